package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/duels-api/internal/domain/entity"
	apperrors "github.com/yourusername/duels-api/internal/pkg/errors"
)

// NotificationRepo реализует repository.NotificationRepository
type NotificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo создает новый репозиторий уведомлений
func NewNotificationRepo(db *gorm.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create создает запись уведомления
func (r *NotificationRepo) Create(notification *entity.Notification) error {
	return r.db.Create(notification).Error
}

// ListByUser возвращает уведомления пользователя, новые первыми
func (r *NotificationRepo) ListByUser(userID uint, limit, offset int) ([]entity.Notification, int64, error) {
	var notifications []entity.Notification
	var total int64

	if err := r.db.Model(&entity.Notification{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// CountUnread возвращает количество непрочитанных уведомлений
func (r *NotificationRepo) CountUnread(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Notification{}).
		Where("user_id = ? AND read = false", userID).
		Count(&count).Error
	return count, err
}

// MarkRead помечает уведомление прочитанным
func (r *NotificationRepo) MarkRead(id, userID uint) error {
	res := r.db.Model(&entity.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkAllRead помечает все уведомления пользователя прочитанными
func (r *NotificationRepo) MarkAllRead(userID uint) error {
	return r.db.Model(&entity.Notification{}).
		Where("user_id = ? AND read = false", userID).
		Update("read", true).Error
}
