package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestConn поднимает тестовый сервер, который регистрирует каждое входящее
// соединение в хабе как клиента userID, и возвращает клиентскую сторону.
func newTestConn(t *testing.T, hub *Hub, userID uint) (*websocket.Conn, func()) {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(hub, conn, userID).Start()
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func waitForUsers(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ConnectedUsers() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("хаб не достиг %d подключенных пользователей", want)
}

func TestHubSendToUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Shutdown()

	conn, cleanup := newTestConn(t, hub, 42)
	defer cleanup()
	waitForUsers(t, hub, 1)

	delivered := hub.SendToUser(42, Event{Type: "duel:resolved", Data: map[string]interface{}{"duel_id": 1}})
	assert.True(t, delivered)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "duel:resolved")

	assert.False(t, hub.SendToUser(99, Event{Type: "noop"}))
}

// Shutdown должен закрыть активные соединения и не блокировать
// ни поздние отключения, ни поздние подключения.
func TestHubShutdown(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	conn, cleanup := newTestConn(t, hub, 7)
	defer cleanup()
	waitForUsers(t, hub, 1)

	hub.Shutdown()

	// Остановка хаба закрывает канал клиента, writePump шлет close-фрейм
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// Подключение после остановки не виснет на register: Start
	// сразу закрывает соединение
	lateConn, lateCleanup := newTestConn(t, hub, 8)
	defer lateCleanup()
	lateConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = lateConn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.ConnectedUsers())
}
