package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/hearthwatch/hearthwatch/internal/models"
)

// sendBuffer is the per-client assessment queue. A client that cannot keep
// up loses assessments rather than stalling the engine's emit path.
const sendBuffer = 16

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev
	},
}

type wsClient struct {
	conn    *websocket.Conn
	session string // empty = all sessions
	send    chan models.ThreatAssessment
}

// Hub fans emitted assessments out to WebSocket subscribers. Broadcast never
// blocks; it is safe to register directly on the engine's stream.
type Hub struct {
	logger *slog.Logger

	mu      sync.Mutex
	clients map[*wsClient]bool
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*wsClient]bool),
	}
}

// Broadcast queues an assessment to every matching subscriber, dropping it
// for clients whose buffer is full.
func (h *Hub) Broadcast(a models.ThreatAssessment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.session != "" && c.session != a.SessionID {
			continue
		}
		select {
		case c.send <- a:
		default:
			h.logger.Warn("assessment dropped for slow subscriber", "session", a.SessionID)
		}
	}
}

// ServeWS upgrades the request and streams assessments until the client
// disconnects. An optional ?session= parameter filters to one session.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &wsClient{
		conn:    conn,
		session: r.URL.Query().Get("session"),
		send:    make(chan models.ThreatAssessment, sendBuffer),
	}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Info("assessment subscriber connected", "session_filter", c.session)

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) writeLoop(c *wsClient) {
	for a := range c.send {
		if err := c.conn.WriteJSON(a); err != nil {
			h.logger.Debug("subscriber write failed", "error", err)
			_ = c.conn.Close()
			return
		}
	}
}

// readLoop discards inbound frames; its job is detecting disconnect.
func (h *Hub) readLoop(c *wsClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}

	// CloseAll may have already unregistered this client.
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	_ = c.conn.Close()
	h.logger.Info("assessment subscriber disconnected")
}

// CloseAll disconnects every subscriber, for shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		_ = c.conn.Close()
	}
}
