// Package websocket pushes binder and drag events to connected browser clients.
package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Outbound messages queued per client and for the hub loop.
	sendBuffer      = 256
	broadcastBuffer = 1024
)

// Event is the wire format of a pushed event.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Client is one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub keeps the set of connected clients and fans messages out to them.
type Hub struct {
	clients map[*Client]bool

	// Serialized events waiting for the run loop.
	broadcast chan []byte

	register   chan *Client
	unregister chan *Client

	done     chan struct{}
	stopOnce sync.Once
	stopped  bool

	upgrader websocket.Upgrader

	mu sync.RWMutex
}

// NewHub creates a Hub. With no allowedOrigins every origin may connect;
// otherwise the Origin header must match one of them exactly.
func NewHub(allowedOrigins ...string) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Run is the hub loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Println("[WebSocket] Hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WebSocket] Client connected, %d total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("[WebSocket] Client disconnected, %d total", count)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// deliver hands message to every client. Clients whose queue is full are dropped.
func (h *Hub) deliver(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(h.clients, client)
			log.Printf("[WebSocket] Dropped slow client")
		}
	}
}

// BroadcastEvent queues event for all connected clients without blocking.
// Returns false if the hub is stopped, the event cannot be encoded or the
// queue is full.
func (h *Hub) BroadcastEvent(event Event) bool {
	if h.IsStopped() {
		return false
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[WebSocket] Failed to encode %s event: %v", event.Type, err)
		return false
	}

	select {
	case h.broadcast <- data:
		return true
	case <-h.done:
		return false
	default:
		log.Printf("[WebSocket] Broadcast queue full, dropping %s event", event.Type)
		return false
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop shuts the hub down and disconnects all clients. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// IsStopped reports whether the hub loop has exited.
func (h *Hub) IsStopped() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stopped
}

// ServeWs upgrades the request and registers the client.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	if h.IsStopped() {
		http.Error(w, "WebSocket hub is not running", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WebSocket] Upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	select {
	case h.register <- client:
		go client.writePump()
		go client.readPump()
	case <-h.done:
		if err := conn.Close(); err != nil {
			log.Printf("[WebSocket] Close error: %v", err)
		}
	}
}

// readPump drains the connection so pongs and close frames are processed.
// Clients never send commands over the socket.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		if err := c.conn.Close(); err != nil {
			log.Printf("[WebSocket] Close error: %v", err)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[WebSocket] SetReadDeadline error: %v", err)
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WebSocket] Read error: %v", err)
			}
			return
		}
	}
}

// writePump sends queued messages and keepalive pings. Each queued message is
// written as its own frame so clients can parse frames independently.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			log.Printf("[WebSocket] Close error: %v", err)
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("[WebSocket] SetWriteDeadline error: %v", err)
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WebSocket] Write error: %v", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("[WebSocket] SetWriteDeadline error: %v", err)
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
