// server/internal/socket/hub.go
package socket

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client serializes writes; a websocket.Conn allows one writer at a time.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub tracks the live WebSocket connection of each user, keyed by the
// SharePoint user ID.
type Hub struct {
	clients map[string]*client
	mu      sync.RWMutex
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// Register adds conn for userID, replacing an older connection.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[userID] = &client{conn: conn}
	h.logger.Info("WebSocket client registered", zap.String("user_id", userID))
}

// Unregister removes userID only while conn is still its current connection.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cl, ok := h.clients[userID]; ok && cl.conn == conn {
		delete(h.clients, userID)
		h.logger.Info("WebSocket client unregistered", zap.String("user_id", userID))
	}
}

// Connected reports whether userID has a live connection.
func (h *Hub) Connected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Send writes message to userID. An offline user is not an error.
func (h *Hub) Send(userID string, message []byte) error {
	h.mu.RLock()
	cl, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		h.logger.Debug("WebSocket client not connected, message dropped", zap.String("user_id", userID))
		return nil
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conn.WriteMessage(websocket.TextMessage, message)
}
