package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/godlykids/journey/internal/domain"
	"github.com/godlykids/journey/internal/identity"
	"github.com/godlykids/journey/internal/tutorial"
)

// TutorialHandler handles onboarding tutorial endpoints.
type TutorialHandler struct {
	*Handler
	flow *tutorial.Service
}

// NewTutorialHandler creates a tutorial handler.
func NewTutorialHandler(base *Handler, flow *tutorial.Service) *TutorialHandler {
	return &TutorialHandler{Handler: base, flow: flow}
}

// RegisterRoutes registers tutorial routes.
func (h *TutorialHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/tutorial", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/start", h.Start)
		r.Post("/next", h.Next)
		r.Post("/skip", h.Skip)
		r.Post("/goto", h.GoTo)
		r.Post("/events", h.Event)
	})
}

// Get returns the stored progress plus the full step catalog so the
// client can render the whole walkthrough.
func (h *TutorialHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	progress, err := h.flow.Progress(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to load tutorial progress", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load tutorial progress")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"progress": progress,
		"steps":    h.flow.Steps(),
	})
}

// Start enters the first tutorial step.
func (h *TutorialHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.flow.Start)
}

// Next advances the cursor, completing the current step.
func (h *TutorialHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.flow.Next)
}

// Skip advances the cursor, marking the current step skipped.
func (h *TutorialHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, h.flow.Skip)
}

type gotoRequest struct {
	Step domain.StepTag `json:"step"`
}

// GoTo jumps the cursor to a named step. Unknown targets leave the
// cursor untouched.
func (h *TutorialHandler) GoTo(w http.ResponseWriter, r *http.Request) {
	var req gotoRequest
	if err := decodeBody(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Step == "" {
		Error(w, http.StatusBadRequest, "step is required")
		return
	}

	h.apply(w, r, func(ctx context.Context, userID string) (*domain.TutorialProgress, error) {
		return h.flow.GoTo(ctx, userID, req.Step)
	})
}

type tutorialEventRequest struct {
	Event string `json:"event"`
}

// Event feeds a client gesture into the flow, such as a storybook page
// swipe or the end of the quiz.
func (h *TutorialHandler) Event(w http.ResponseWriter, r *http.Request) {
	var req tutorialEventRequest
	if err := decodeBody(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Event == "" {
		Error(w, http.StatusBadRequest, "event is required")
		return
	}

	h.apply(w, r, func(ctx context.Context, userID string) (*domain.TutorialProgress, error) {
		return h.flow.HandleEvent(ctx, userID, req.Event)
	})
}


func (h *TutorialHandler) apply(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID string) (*domain.TutorialProgress, error)) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	progress, err := op(r.Context(), userID)
	if err != nil {
		slog.Error("Tutorial update failed", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "tutorial update failed")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"progress": progress})
}
