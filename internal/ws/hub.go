package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // tighten per deployment
}

// AuthFunc validates the token handed over on connect.
type AuthFunc func(token string) (userID, role string, err error)

type client struct {
	id     string
	userID string
	role   string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans accepted live-location samples out to connected dashboard clients.
type Hub struct {
	authFunc AuthFunc

	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub(authFunc AuthFunc) *Hub {
	return &Hub{
		authFunc: authFunc,
		clients:  make(map[string]*client),
	}
}

// BroadcastJSON sends data to every connected client. Slow clients are
// dropped rather than allowed to block the rest.
func (h *Hub) BroadcastJSON(data any) {
	msg, err := json.Marshal(data)
	if err != nil {
		log.Printf("ws: marshal broadcast: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, id)
		}
	}
}

// ServeWS upgrades the request and registers the client. Auth token comes in
// the query string (browser WebSocket API cannot set headers).
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID, role, err := h.authFunc(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	c := &client{
		id:     uuid.NewString(),
		userID: userID,
		role:   role,
		conn:   conn,
		send:   make(chan []byte, 256),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	go c.writePump()
	go h.readPump(c)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
}

// readPump discards inbound frames; the feed is one-way. It exists to drive
// pong handling and to notice closed connections.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
