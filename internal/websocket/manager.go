package websocket

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Разрешаем все источники: токен проверяется до апгрейда
		return true
	},
}

// Manager выполняет апгрейд HTTP-соединений и привязывает их к хабу.
type Manager struct {
	hub *Hub
}

// NewManager создает менеджер для хаба.
func NewManager(hub *Hub) *Manager {
	return &Manager{hub: hub}
}

// Hub возвращает хаб менеджера.
func (m *Manager) Hub() *Hub {
	return m.hub
}

// HandleConnection выполняет апгрейд до WebSocket и запускает клиента.
// userID должен быть получен из проверенного токена до вызова.
func (m *Manager) HandleConnection(w http.ResponseWriter, r *http.Request, userID uint) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WSManager] Ошибка апгрейда соединения: userID=%d: %v", userID, err)
		return err
	}

	client := NewClient(m.hub, conn, userID)
	client.Start()
	return nil
}
