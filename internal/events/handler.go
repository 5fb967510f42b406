package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/godlykids/journey/internal/identity"
	"github.com/godlykids/journey/internal/store"
)

// lastSeenInterval caps how often a single connection writes its
// last-seen timestamp, whatever the inbound message rate.
const lastSeenInterval = 30 * time.Second

// WebSocketHandler upgrades /ws/events requests and keeps the
// connection registered with the hub for the lifetime of the socket.
type WebSocketHandler struct {
	repo          store.Repository
	hub           *Hub
	allowedOrigin string
	isDev         bool
	lastSeenEvery time.Duration
}

// NewWebSocketHandler creates a handler bound to a hub.
func NewWebSocketHandler(repo store.Repository, hub *Hub, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		repo:          repo,
		hub:           hub,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
		lastSeenEvery: lastSeenInterval,
	}
}

// clientMessage is the only inbound traffic we accept: keepalive pings.
type clientMessage struct {
	Type string `json:"type"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	slog.Info("Event stream connection request", "user_id", userID, "session_id", sessionID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	h.hub.Register(userID, sessionID, ws)
	defer h.hub.Unregister(userID, sessionID, ws)

	ctx := r.Context()
	var lastSeenAt time.Time
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				slog.Debug("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			h.hub.Publish(userID, Event{Type: "pong"})
		}

		// At most one last-seen write per interval per connection,
		// however chatty the client is.
		if now := time.Now(); now.Sub(lastSeenAt) >= h.lastSeenEvery {
			lastSeenAt = now
			updateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := h.repo.UpdateLastSeen(updateCtx, userID, now); err != nil {
				slog.Warn("Failed to update last seen", "error", err)
			}
			cancel()
		}
	}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}
