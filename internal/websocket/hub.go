package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Event - сообщение, отправляемое клиенту через WebSocket.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub управляет активными WebSocket-соединениями и рассылкой событий.
// Один пользователь может держать несколько соединений (вкладки, устройства).
type Hub struct {
	mu sync.RWMutex

	// clients группирует соединения по ID пользователя
	clients map[uint]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
}

// NewHub создает новый хаб.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run запускает цикл обработки хаба. Должен вызываться в отдельной горутине.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.sendToAll(message)
		case <-h.done:
			h.closeAll()
			return
		}
	}
}

// Shutdown останавливает хаб и закрывает все соединения.
func (h *Hub) Shutdown() {
	close(h.done)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		h.clients[client.userID] = conns
	}
	conns[client] = struct{}{}
	log.Printf("[WSHub] Клиент подключен: userID=%d, всего соединений=%d", client.userID, len(conns))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := conns[client]; !exists {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	log.Printf("[WSHub] Клиент отключен: userID=%d", client.userID)
}

func (h *Hub) sendToAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conns := range h.clients {
		for client := range conns {
			select {
			case client.send <- message:
			default:
				// Буфер клиента переполнен, пропускаем
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, conns := range h.clients {
		for client := range conns {
			close(client.send)
		}
		delete(h.clients, userID)
	}
	log.Printf("[WSHub] Хаб остановлен, все соединения закрыты")
}

// SendToUser отправляет событие всем соединениям указанного пользователя.
// Возвращает false, если пользователь не подключен.
func (h *Hub) SendToUser(userID uint, event Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[WSHub] Ошибка сериализации события %s: %v", event.Type, err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.clients[userID]
	if !ok || len(conns) == 0 {
		return false
	}

	delivered := false
	for client := range conns {
		select {
		case client.send <- data:
			delivered = true
		default:
			log.Printf("[WSHub] Буфер клиента переполнен: userID=%d, событие %s пропущено", userID, event.Type)
		}
	}
	return delivered
}

// Broadcast отправляет событие всем подключенным клиентам.
func (h *Hub) Broadcast(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	h.broadcast <- data
	return nil
}

// ConnectedUsers возвращает количество пользователей с активными соединениями.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
