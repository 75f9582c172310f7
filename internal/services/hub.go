package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"whereat-backend/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// WebSocket timing. Clients must answer pings within WSPongWait.
const (
	wsWriteWait  = 10 * time.Second
	WSPongWait   = 60 * time.Second
	wsPingPeriod = (WSPongWait * 9) / 10
	wsSendBuffer = 64
)

// wsClient owns the outbound queue of a single connection
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}

// Hub manages WebSocket connections, one per user
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{clients: make(map[string]*wsClient)}
}

// Register registers a new WebSocket connection for a user, closing any previous one.
// The hub becomes the only writer of conn.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	c := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}

	h.mu.Lock()
	if existing, ok := h.clients[userID]; ok {
		existing.close()
	}
	h.clients[userID] = c
	count := len(h.clients)
	h.mu.Unlock()

	go h.writePump(userID, c)

	metrics.WSConnections.Set(float64(count))
	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes the connection of a user if it is still the registered one
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	c, ok := h.clients[userID]
	if !ok || c.conn != conn {
		h.mu.Unlock()
		return
	}
	delete(h.clients, userID)
	count := len(h.clients)
	h.mu.Unlock()

	c.close()
	metrics.WSConnections.Set(float64(count))
	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
}

func (h *Hub) writePump(userID string, c *wsClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		h.Unregister(userID, c.conn)
	}()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("user_id", userID).Msg("WebSocket write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendToUser queues a message for a specific user without waiting for the
// socket. A client whose queue is full is disconnected.
func (h *Hub) SendToUser(userID string, message WSMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	h.mu.RLock()
	c, ok := h.clients[userID]
	queued := false
	if ok {
		select {
		case c.send <- data:
			queued = true
		default:
		}
	}
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}
	if !queued {
		h.Unregister(userID, c.conn)
		return fmt.Errorf("user %s is not reading, connection dropped", userID)
	}
	return nil
}

// IsOnline checks if a user is online
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// Count returns the number of connected users
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every connection, used on shutdown
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
	metrics.WSConnections.Set(0)
}
