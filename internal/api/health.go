package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/godlykids/journey/internal/content"
	"github.com/godlykids/journey/internal/store"
)

const healthCheckTimeout = 5 * time.Second

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	repo  store.Repository
	voice *content.VoiceClient
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo store.Repository, voice *content.VoiceClient) *HealthHandler {
	return &HealthHandler{repo: repo, voice: voice}
}

// Health returns the health status of the API and its dependencies.
// The voice sidecar is optional: it is reported but never degrades the
// overall status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := "healthy"
	statusCode := http.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		checks["database"] = "unreachable"
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if h.voice != nil && h.voice.Enabled() {
		if h.voice.Status(ctx).Online {
			checks["voice"] = "ok"
		} else {
			checks["voice"] = "unreachable"
		}
	}

	JSON(w, statusCode, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// RegisterHealth registers the health check route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/health", h.Health)
}
