package rulebookserver

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub maintains the set of subscribed clients and broadcasts rule-change
// events (rule insertions and finished completion runs) to all of them.
type Hub struct {
	clients   map[uuid.UUID]*websocket.Conn
	broadcast chan []byte
	mutex     sync.Mutex
}

// NewHub builds an empty hub. Call Run in its own goroutine to start
// draining the broadcast channel.
func NewHub() *Hub {
	return &Hub{
		broadcast: make(chan []byte, 256),
		clients:   make(map[uuid.UUID]*websocket.Conn),
	}
}

// Run drains the broadcast channel and fans each message out to every
// connected client, dropping clients whose write fails or times out.
func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mutex.Lock()
		for id, client := range h.clients {
			_ = client.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("rulebookserver: websocket write error for session %s: %v", id, err)
				client.Close()
				delete(h.clients, id)
			}
		}
		h.mutex.Unlock()
	}
}

// Subscribe upgrades the request to a websocket connection, assigns it a
// fresh session id, and registers it with the hub.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("rulebookserver: failed to upgrade websocket: %v", err)
		return
	}

	sessionID := uuid.New()
	h.mutex.Lock()
	h.clients[sessionID] = conn
	count := len(h.clients)
	h.mutex.Unlock()

	log.Printf("rulebookserver: session %s connected, %d total", sessionID, count)

	go func() {
		defer func() {
			h.mutex.Lock()
			delete(h.clients, sessionID)
			remaining := len(h.clients)
			h.mutex.Unlock()
			conn.Close()
			log.Printf("rulebookserver: session %s disconnected, %d remaining", sessionID, remaining)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("rulebookserver: websocket error for session %s: %v", sessionID, err)
				}
				break
			}
		}
	}()
}

// Broadcast enqueues a JSON payload for delivery to every connected client.
func (h *Hub) Broadcast(data []byte) {
	h.broadcast <- data
}
