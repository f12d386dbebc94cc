package repository

import (
	"github.com/yourusername/duels-api/internal/domain/entity"
)

// NotificationRepository определяет методы для работы с уведомлениями
type NotificationRepository interface {
	Create(notification *entity.Notification) error
	ListByUser(userID uint, limit, offset int) ([]entity.Notification, int64, error)
	CountUnread(userID uint) (int64, error)
	// MarkRead помечает уведомление прочитанным; userID защищает от
	// чтения чужих уведомлений.
	MarkRead(id, userID uint) error
	MarkAllRead(userID uint) error
}
