// Package notify pushes pool change events to websocket subscribers.
package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kyiku/caritas-study-back/internal/logger"
)

// writeWait bounds a single write to a subscriber.
const writeWait = 5 * time.Second

// Conn is the subset of *websocket.Conn the hub needs.
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v interface{}) error
	ReadMessage() (int, []byte, error)
	Close() error
}

// PoolUpdate is broadcast after every successful pool save.
type PoolUpdate struct {
	Type          string `json:"type"`
	Subject       string `json:"subject"`
	TotalProblems int    `json:"total_problems"`
}

type client struct {
	id   string
	conn Conn
	wmu  sync.Mutex // gorilla connections allow one writer at a time
}

func (c *client) write(v interface{}) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

// Hub tracks subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	log     *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		log:     log.With("component", "notify"),
	}
}

// Add registers conn and returns its subscriber id.
func (h *Hub) Add(conn Conn) string {
	c := &client{id: uuid.NewString(), conn: conn}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	return c.id
}

// Remove unregisters and closes a subscriber. Unknown ids are ignored.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	c, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()

	if ok {
		_ = c.conn.Close()
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends v to every subscriber. Subscribers whose write fails
// are dropped.
func (h *Hub) Broadcast(v interface{}) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(v); err != nil {
			h.log.Warn("dropping subscriber after write failure", "id", c.id, "error", err)
			h.Remove(c.id)
		}
	}
}

// PoolUpdated broadcasts a pool_updated event.
func (h *Hub) PoolUpdated(subject string, totalProblems int) {
	h.Broadcast(PoolUpdate{
		Type:          "pool_updated",
		Subject:       subject,
		TotalProblems: totalProblems,
	})
}

// Serve registers conn and reads from it until it fails, answering
// {"type":"ping"} with {"type":"pong"}. The connection is closed on return.
func (h *Hub) Serve(conn Conn) {
	id := h.Add(conn)
	h.log.Debug("subscriber connected", "id", id)
	defer func() {
		h.Remove(id)
		h.log.Debug("subscriber disconnected", "id", id)
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if !IsPingMessage(message) {
			continue
		}

		h.mu.RLock()
		c, ok := h.clients[id]
		h.mu.RUnlock()
		if !ok {
			return
		}
		if err := c.write(map[string]interface{}{"type": "pong"}); err != nil {
			return
		}
	}
}

// IsPingMessage checks if a message is a ping message.
func IsPingMessage(message []byte) bool {
	var msg map[string]interface{}
	if err := json.Unmarshal(message, &msg); err != nil {
		return false
	}

	msgType, ok := msg["type"].(string)
	return ok && msgType == "ping"
}
