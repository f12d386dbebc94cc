package postgres

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/duels-api/internal/domain/entity"
	apperrors "github.com/yourusername/duels-api/internal/pkg/errors"
	"github.com/yourusername/duels-api/internal/service/settlement"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create создает нового пользователя
func (r *UserRepo) Create(user *entity.User) error {
	return r.db.Create(user).Error
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(id uint) (*entity.User, error) {
	var user entity.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail возвращает пользователя по email
func (r *UserRepo) GetByEmail(email string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername возвращает пользователя по имени пользователя
func (r *UserRepo) GetByUsername(username string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByWalletAddress возвращает пользователя по адресу кошелька
func (r *UserRepo) GetByWalletAddress(address string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("wallet_address = ?", address).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Update обновляет информацию о пользователе
func (r *UserRepo) Update(user *entity.User) error {
	return r.db.Save(user).Error
}

// ApplyDuelOutcome атомарно применяет итог одной дуэли к статистике пользователя.
// Транзакция на одного пользователя: read-modify-write серий и winRate
// нельзя выразить одним UPDATE-выражением.
func (r *UserRepo) ApplyDuelOutcome(userID uint, won bool, payout float64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user entity.User
		// FOR UPDATE: две одновременно разрешаемые дуэли одного пользователя
		// не должны терять обновления серий
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		settlement.ApplyToStats(&user, won, payout)

		return tx.Model(&entity.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"wins":           user.Wins,
				"losses":         user.Losses,
				"win_rate":       user.WinRate,
				"total_earned":   user.TotalEarned,
				"current_streak": user.CurrentStreak,
				"best_streak":    user.BestStreak,
				"updated_at":     time.Now(),
			}).Error
	})
}

// ReplaceStats целиком замещает статистику пользователя значениями из stats.
// Используется сверкой после пересчета из записей участников.
func (r *UserRepo) ReplaceStats(userID uint, stats entity.User) error {
	res := r.db.Model(&entity.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"wins":           stats.Wins,
			"losses":         stats.Losses,
			"win_rate":       stats.WinRate,
			"total_earned":   stats.TotalEarned,
			"current_streak": stats.CurrentStreak,
			"best_streak":    stats.BestStreak,
			"updated_at":     time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// List возвращает список пользователей с пагинацией
func (r *UserRepo) List(limit, offset int) ([]entity.User, error) {
	var users []entity.User
	err := r.db.Limit(limit).Offset(offset).Order("id").Find(&users).Error
	return users, err
}

// GetLeaderboard возвращает пользователей для лидерборда с пагинацией и общим количеством,
// отсортированных по количеству побед и суммарному заработку.
func (r *UserRepo) GetLeaderboard(limit, offset int) ([]entity.User, int64, error) {
	var users []entity.User
	var total int64

	// Используем транзакцию для согласованности чтения данных и общего количества
	tx := r.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()
	if tx.Error != nil {
		return nil, 0, tx.Error
	}

	err := tx.Model(&entity.User{}).Count(&total).Error
	if err != nil {
		tx.Rollback()
		return nil, 0, err
	}

	// Сортируем по wins DESC, затем total_earned DESC, и ID для стабильности
	err = tx.Order("wins DESC, total_earned DESC, id ASC").
		Limit(limit).
		Offset(offset).
		Select("id", "username", "profile_picture", "wins", "losses",
			"win_rate", "total_earned", "current_streak", "best_streak").
		Find(&users).Error
	if err != nil {
		tx.Rollback()
		return nil, 0, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, 0, err
	}

	log.Printf("[UserRepo] Лидерборд: выбрано %d пользователей (total=%d)", len(users), total)
	return users, total, nil
}
