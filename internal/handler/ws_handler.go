package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/duels-api/internal/websocket"
	"github.com/yourusername/duels-api/pkg/auth"
)

// WSHandler обрабатывает WebSocket соединения
type WSHandler struct {
	wsManager  *websocket.Manager
	jwtService *auth.JWTService
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(wsManager *websocket.Manager, jwtService *auth.JWTService) *WSHandler {
	return &WSHandler{
		wsManager:  wsManager,
		jwtService: jwtService,
	}
}

// HandleConnection устанавливает WebSocket-соединение.
// Токен передается query-параметром: браузерный WebSocket API
// не позволяет выставить заголовок Authorization.
// GET /ws?token={jwt}
func (h *WSHandler) HandleConnection(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token query parameter is required"})
		return
	}

	claims, err := h.jwtService.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	// После апгрейда ответ принадлежит WebSocket-соединению
	_ = h.wsManager.HandleConnection(c.Writer, c.Request, claims.UserID)
}
