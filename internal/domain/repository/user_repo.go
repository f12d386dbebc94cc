package repository

import (
	"github.com/yourusername/duels-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetByUsername(username string) (*entity.User, error)
	GetByWalletAddress(address string) (*entity.User, error)
	Update(user *entity.User) error

	// ApplyDuelOutcome атомарно применяет итог одной дуэли к статистике
	// пользователя (wins/losses, totalEarned, серии, winRate).
	// Обновления разных пользователей независимы: ошибка одного
	// не должна блокировать остальных.
	ApplyDuelOutcome(userID uint, won bool, payout float64) error

	// ReplaceStats целиком замещает статистику пользователя.
	// Используется шагом сверки, пересчитывающим статистику из записей участников.
	ReplaceStats(userID uint, stats entity.User) error

	List(limit, offset int) ([]entity.User, error)
	// GetLeaderboard возвращает пользователей для лидерборда с пагинацией и общим количеством
	GetLeaderboard(limit, offset int) ([]entity.User, int64, error)
}
