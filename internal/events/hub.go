// Package events pushes server-side flow events to connected clients
// over WebSocket.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/godlykids/journey/internal/domain"
)

const writeTimeout = 5 * time.Second

// Event is a single push message. Transition events carry the flow name
// and cursor movement; other event types may only fill Type and Payload.
type Event struct {
	Type      string         `json:"type"`
	Flow      string         `json:"flow,omitempty"`
	From      domain.StepTag `json:"from,omitempty"`
	To        domain.StepTag `json:"to,omitempty"`
	Completed bool           `json:"completed,omitempty"`
	Payload   any            `json:"payload,omitempty"`
}

// Hub tracks active WebSocket connections per user and session and
// fans events out to them.
type Hub struct {
	mu     sync.RWMutex
	active map[string]map[string]*websocket.Conn
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		active: make(map[string]map[string]*websocket.Conn),
	}
}

// Register adds a connection for a user/session, replacing any previous
// connection for the same session.
func (h *Hub) Register(userID, sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.active[userID]; !exists {
		h.active[userID] = make(map[string]*websocket.Conn)
	}

	if existing, exists := h.active[userID][sessionID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "session replaced")
	}

	h.active[userID][sessionID] = conn
	slog.Info("Event stream registered", "user_id", userID, "session_id", sessionID)
}

// Unregister removes a connection for a user/session. A connection that
// was already replaced is left alone.
func (h *Hub) Unregister(userID, sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sessions, ok := h.active[userID]; ok {
		if current, exists := sessions[sessionID]; exists && current == conn {
			delete(sessions, sessionID)
			if len(sessions) == 0 {
				delete(h.active, userID)
			}
			slog.Info("Event stream unregistered", "user_id", userID, "session_id", sessionID)
		}
	}
}

// ActiveSessions returns the number of open connections for a user.
func (h *Hub) ActiveSessions(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.active[userID])
}

// Publish sends an event to every connection of a user. Delivery is
// best effort: a dead connection is skipped, not retried.
func (h *Hub) Publish(userID string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to encode event", "type", ev.Type, "error", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.active[userID]))
	for _, conn := range h.active[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("Event push failed", "user_id", userID, "type", ev.Type, "error", err)
		}
		cancel()
	}
}

// NotifyTransition publishes a cursor transition as an event. It
// satisfies the notifier hook of the flow services.
func (h *Hub) NotifyTransition(userID, flow string, from, to domain.StepTag, completed bool) {
	h.Publish(userID, Event{
		Type:      "transition",
		Flow:      flow,
		From:      from,
		To:        to,
		Completed: completed,
	})
}

// CloseUser terminates all connections for a user.
func (h *Hub) CloseUser(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.active[userID]
	if !ok {
		return
	}
	for sid, conn := range sessions {
		_ = conn.Close(websocket.StatusNormalClosure, "session closed")
		slog.Info("Event stream closed", "user_id", userID, "session_id", sid)
	}
	delete(h.active, userID)
}
