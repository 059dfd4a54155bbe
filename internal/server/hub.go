package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Event types pushed to websocket clients
const (
	EventSessionUpdated = "session_updated"
	EventSessionDeleted = "session_deleted"
)

const (
	clientBuffer = 32
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

// Event tells clients that a session changed
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
}

// Hub fans session events out to connected websocket clients. Run owns the
// client set; a client whose buffer is full misses the event. Connections
// are refused with 503 while the hub is not running.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	running atomic.Bool

	broadcast  chan Event
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}

	upgrader websocket.Upgrader
	logger   *slog.Logger
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Event
}

// NewHub creates a hub accepting connections from allowOrigin, or from
// anywhere when allowOrigin is "*" or empty.
func NewHub(logger *slog.Logger, allowOrigin string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*wsClient]struct{}),
		broadcast:  make(chan Event, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowOrigin),
		},
		logger: logger,
	}
}

func originChecker(allow string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if allow == "" || allow == "*" {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || origin == allow
	}
}

// Start marks the hub running and runs it in a new goroutine, so /ws
// accepts connections as soon as Start returns.
func (h *Hub) Start(ctx context.Context) {
	h.running.Store(true)
	go h.Run(ctx)
}

// Run dispatches events until ctx is cancelled, then disconnects every
// client. A hub runs once.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client registered", "clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client unregistered", "clients", n)

		case ev := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- ev:
				default:
					h.logger.Warn("websocket client too slow, event dropped", "type", ev.Type)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues ev for every client. It never blocks.
func (h *Hub) Broadcast(ev Event) {
	select {
	case h.broadcast <- ev:
	default:
		h.logger.Warn("websocket broadcast queue full, event dropped", "type", ev.Type)
	}
}

// Running reports whether Run is dispatching events.
func (h *Hub) Running() bool {
	return h.running.Load()
}

// ServeHTTP upgrades the request and registers the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.running.Load() {
		http.Error(w, "websocket hub is not running", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{hub: h, conn: conn, send: make(chan Event, clientBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump drains client messages so control frames are processed, and
// unregisters the client when the connection ends.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
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
