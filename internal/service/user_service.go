package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/duels-api/internal/domain/entity"
	"github.com/yourusername/duels-api/internal/domain/repository"
	"github.com/yourusername/duels-api/internal/handler/dto"
	apperrors "github.com/yourusername/duels-api/internal/pkg/errors"
	"github.com/yourusername/duels-api/internal/service/settlement"
)

// Ключ кеша первой страницы лидерборда. Инвалидируется при разрешении дуэли.
const leaderboardCacheKey = "duels:leaderboard:front"

// UserService предоставляет методы для работы с пользователями и их статистикой
type UserService struct {
	userRepo            repository.UserRepository
	duelRepo            repository.DuelRepository
	cacheRepo           repository.CacheRepository
	leaderboardCacheTTL time.Duration
}

// NewUserService создает новый сервис пользователей.
// cacheRepo может быть nil: лидерборд тогда не кешируется.
func NewUserService(
	userRepo repository.UserRepository,
	duelRepo repository.DuelRepository,
	cacheRepo repository.CacheRepository,
	leaderboardCacheTTL time.Duration,
) *UserService {
	if leaderboardCacheTTL <= 0 {
		leaderboardCacheTTL = time.Minute
	}
	return &UserService{
		userRepo:            userRepo,
		duelRepo:            duelRepo,
		cacheRepo:           cacheRepo,
		leaderboardCacheTTL: leaderboardCacheTTL,
	}
}

// GetByID возвращает пользователя по ID
func (s *UserService) GetByID(id uint) (*entity.User, error) {
	return s.userRepo.GetByID(id)
}

// UpdateProfile обновляет профиль пользователя
func (s *UserService) UpdateProfile(userID uint, username, profilePicture string) (*entity.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if username != "" {
		if len(username) > 50 {
			return nil, fmt.Errorf("%w: username exceeds 50 characters", apperrors.ErrValidation)
		}
		user.Username = username
	}
	if profilePicture != "" {
		user.ProfilePicture = profilePicture
	}
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetLeaderboard возвращает пагинированный лидерборд.
// Первая страница кешируется в Redis.
func (s *UserService) GetLeaderboard(page, pageSize int) (*dto.PaginatedLeaderboardResponse, error) {
	// Валидация параметров пагинации
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	} else if pageSize > 100 {
		pageSize = 100
	}

	cacheable := page == 1 && pageSize == 10
	if cacheable && s.cacheRepo != nil {
		var cached dto.PaginatedLeaderboardResponse
		if err := s.cacheRepo.GetJSON(leaderboardCacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[UserService] Ошибка чтения кеша лидерборда: %v", err)
		}
	}

	offset := (page - 1) * pageSize
	users, total, err := s.userRepo.GetLeaderboard(pageSize, offset)
	if err != nil {
		log.Printf("[UserService] Ошибка при получении лидерборда из репозитория: %v", err)
		return nil, err
	}

	userDTOs := make([]*dto.LeaderboardUserDTO, len(users))
	for i, user := range users {
		userDTOs[i] = &dto.LeaderboardUserDTO{
			Rank:           offset + i + 1,
			UserID:         user.ID,
			Username:       user.Username,
			ProfilePicture: user.ProfilePicture,
			Wins:           user.Wins,
			WinRate:        user.WinRate,
			TotalEarned:    user.TotalEarned,
			BestStreak:     user.BestStreak,
		}
	}

	response := &dto.PaginatedLeaderboardResponse{
		Users:    userDTOs,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}

	if cacheable && s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(leaderboardCacheKey, response, s.leaderboardCacheTTL); err != nil {
			log.Printf("[UserService] Ошибка записи кеша лидерборда: %v", err)
		}
	}
	return response, nil
}

// GetUserStats возвращает статистику пользователя
func (s *UserService) GetUserStats(userID uint) (*dto.UserStatsResponse, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return &dto.UserStatsResponse{
		UserID:        user.ID,
		Username:      user.Username,
		Wins:          user.Wins,
		Losses:        user.Losses,
		GamesPlayed:   user.GamesPlayed(),
		WinRate:       user.WinRate,
		TotalEarned:   user.TotalEarned,
		CurrentStreak: user.CurrentStreak,
		BestStreak:    user.BestStreak,
	}, nil
}

// RecalculateStats пересчитывает статистику пользователя с нуля из записей
// участников разрешенных дуэлей. Авторитетны записи участников: шаг сверки
// исправляет расхождения, накопленные из-за пропущенных инкрементальных
// обновлений.
func (s *UserService) RecalculateStats(userID uint) (*dto.UserStatsResponse, error) {
	if _, err := s.userRepo.GetByID(userID); err != nil {
		return nil, err
	}

	participations, err := s.duelRepo.GetResolvedParticipations(userID)
	if err != nil {
		return nil, err
	}

	// Сворачиваем итоги в хронологическом порядке разрешения:
	// серии зависят от порядка
	var stats entity.User
	for _, p := range participations {
		settlement.ApplyToStats(&stats, p.Won, p.Payout)
	}

	if err := s.userRepo.ReplaceStats(userID, stats); err != nil {
		return nil, err
	}
	log.Printf("[UserService] Статистика пересчитана: userID=%d, дуэлей=%d, wins=%d, losses=%d",
		userID, len(participations), stats.Wins, stats.Losses)

	return s.GetUserStats(userID)
}
