package entity

import (
	"encoding/json"
	"time"
)

// Константы типов уведомлений
const (
	NotificationTypeDuelResolved  = "duel:resolved"
	NotificationTypeDuelCancelled = "duel:cancelled"
	NotificationTypeDuelJoined    = "duel:joined"
	NotificationTypePayoutClaimed = "duel:payout_claimed"
	NotificationTypeChallenge     = "duel:challenge"
)

// Notification представляет уведомление пользователя.
// Создание уведомления — fire-and-forget: ошибка записи не должна
// прерывать породившую её операцию.
type Notification struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	UserID    uint            `gorm:"not null;index:idx_notifications_user" json:"user_id"`
	Type      string          `gorm:"size:40;not null" json:"type"`
	Title     string          `gorm:"size:100;not null" json:"title"`
	Message   string          `gorm:"size:500;not null;default:''" json:"message"`
	Payload   json.RawMessage `gorm:"type:jsonb" json:"payload,omitempty"`
	Read      bool            `gorm:"not null;default:false;index:idx_notifications_user" json:"read"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Notification) TableName() string {
	return "notifications"
}
