package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/duels-api/internal/pkg/errors"
	"github.com/yourusername/duels-api/internal/service"
)

// NotificationHandler обрабатывает запросы, связанные с уведомлениями
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler создает новый обработчик уведомлений
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List возвращает уведомления текущего пользователя
// GET /api/notifications?limit=20&offset=0
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	notifications, total, err := h.notificationService.ListByUser(userID, limit, offset)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
	})
}

// UnreadCount возвращает количество непрочитанных уведомлений
// GET /api/notifications/unread_count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	count, err := h.notificationService.CountUnread(userID)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkRead помечает уведомление прочитанным
// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	notificationID := c.MustGet("notificationID").(uint)

	if err := h.notificationService.MarkRead(notificationID, userID); err != nil {
		h.handleNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MarkAllRead помечает все уведомления пользователя прочитанными
// POST /api/notifications/read_all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	if err := h.notificationService.MarkAllRead(userID); err != nil {
		h.handleNotificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *NotificationHandler) handleNotificationError(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	} else {
		log.Printf("ERROR: Internal server error in NotificationHandler: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
