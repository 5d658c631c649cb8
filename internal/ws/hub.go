package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"spacerent/internal/metrics"
	"spacerent/internal/push"
)

// ErrSendBufferFull is returned when a connection cannot keep up; the event is dropped for it.
var ErrSendBufferFull = errors.New("ws: send buffer full")

// Client represents a single WebSocket connection with user context.
type Client struct {
	ID     string
	UserID uint
	Role   string
	Send   chan []byte
	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func NewClient(id string, userID uint, role string, buffer int) *Client {
	return &Client{ID: id, UserID: userID, Role: role, Send: make(chan []byte, buffer)}
}

// Close unregisters the client and closes Send. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.hub != nil {
		c.hub.unregister(c)
	}
	close(c.Send)
}

func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Reply writes ev to this connection only, without blocking.
func (c *Client) Reply(ev push.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("ws: encode %s: %w", ev.Type, err)
	}
	if !c.trySend(data) {
		return ErrSendBufferFull
	}
	return nil
}

// Hub maintains the set of live clients per user. It implements push.Channel.
type Hub struct {
	mu sync.RWMutex
	// userID -> clients (one user can have multiple connections)
	byUser map[uint]map[*Client]struct{}
}

var _ push.Channel = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{byUser: make(map[uint]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
	metrics.LiveConnections.Inc()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := h.byUser[c.UserID]
	if m == nil {
		return
	}
	if _, ok := m[c]; !ok {
		return
	}
	delete(m, c)
	if len(m) == 0 {
		delete(h.byUser, c.UserID)
	}
	metrics.LiveConnections.Dec()
}

// Publish writes ev to every connection of userID without blocking.
// No connection means nothing to do.
func (h *Hub) Publish(_ context.Context, userID uint, ev push.Event) error {
	h.mu.RLock()
	m := h.byUser[userID]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("ws: encode %s: %w", ev.Type, err)
	}
	dropped := 0
	for _, c := range clients {
		if !c.trySend(data) {
			dropped++
		}
	}
	if dropped > 0 {
		return fmt.Errorf("%w: %d of %d connections for user %d", ErrSendBufferFull, dropped, len(clients), userID)
	}
	return nil
}

// IsOnline reports whether userID has at least one live connection.
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.byUser {
		n += len(m)
	}
	return n
}
