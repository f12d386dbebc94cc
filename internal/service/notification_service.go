package service

import (
	"encoding/json"
	"log"

	"github.com/yourusername/duels-api/internal/domain/entity"
	"github.com/yourusername/duels-api/internal/domain/repository"
	"github.com/yourusername/duels-api/internal/websocket"
)

// NotificationService создает уведомления и доставляет их через WebSocket.
// Все операции отправки — fire-and-forget: ошибки логируются и не
// возвращаются вызывающей операции.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	wsHub            *websocket.Hub
}

// NewNotificationService создает новый сервис уведомлений.
// wsHub может быть nil: тогда уведомления только сохраняются в БД.
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	wsHub *websocket.Hub,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		wsHub:            wsHub,
	}
}

// Notify сохраняет уведомление и пытается доставить его по WebSocket.
func (s *NotificationService) Notify(userID uint, notifType, title, message string, payload interface{}) {
	var rawPayload json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Printf("[NotificationService] Ошибка сериализации payload уведомления %s для userID=%d: %v", notifType, userID, err)
		} else {
			rawPayload = data
		}
	}

	notification := &entity.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Payload: rawPayload,
	}

	if s.notificationRepo != nil {
		if err := s.notificationRepo.Create(notification); err != nil {
			log.Printf("[NotificationService] Ошибка сохранения уведомления %s для userID=%d: %v", notifType, userID, err)
		}
	}

	if s.wsHub != nil {
		s.wsHub.SendToUser(userID, websocket.Event{
			Type: notifType,
			Data: notification,
		})
	}
}

// ListByUser возвращает уведомления пользователя с пагинацией
func (s *NotificationService) ListByUser(userID uint, limit, offset int) ([]entity.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.notificationRepo.ListByUser(userID, limit, offset)
}

// CountUnread возвращает количество непрочитанных уведомлений
func (s *NotificationService) CountUnread(userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(userID)
}

// MarkRead помечает уведомление прочитанным
func (s *NotificationService) MarkRead(id, userID uint) error {
	return s.notificationRepo.MarkRead(id, userID)
}

// MarkAllRead помечает все уведомления пользователя прочитанными
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.notificationRepo.MarkAllRead(userID)
}
