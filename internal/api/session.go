package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/godlykids/journey/internal/domain"
	"github.com/godlykids/journey/internal/identity"
	"github.com/godlykids/journey/internal/session"
)

// SessionHandler handles daily session endpoints.
type SessionHandler struct {
	*Handler
	sessions *session.Service
}

// NewSessionHandler creates a session handler.
func NewSessionHandler(base *Handler, sessions *session.Service) *SessionHandler {
	return &SessionHandler{Handler: base, sessions: sessions}
}

// RegisterRoutes registers session routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/session", func(r chi.Router) {
		r.Post("/", h.Obtain)
		r.Get("/", h.Get)
		r.Post("/start-step", h.StartStep)
		r.Post("/complete-step", h.CompleteStep)
		r.Post("/skip-step", h.SkipStep)
		r.Post("/exit", h.Exit)
		r.Put("/steps/{index}/content", h.SetStepContent)
	})
}

type obtainRequest struct {
	Topics []string `json:"topics"`
	// Duration is the selected session length in minutes. It is stored
	// as a preference so the next visit can default to it.
	Duration   int  `json:"duration"`
	FreshStart bool `json:"fresh_start"`
}

// Obtain creates or resumes the daily session for the device.
func (h *SessionHandler) Obtain(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req obtainRequest
	if err := decodeBody(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.sessions.Obtain(r.Context(), userID, req.Topics, req.FreshStart)
	if err != nil {
		slog.Error("Failed to obtain session", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to obtain session")
		return
	}

	if req.Duration > 0 {
		if err := h.repo.SetPref(r.Context(), userID, "session_duration", strconv.Itoa(req.Duration)); err != nil {
			slog.Warn("Failed to store session duration", "user_id", userID, "error", err)
		}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"session": result.Record,
		"resumed": result.Resumed,
	})
}

// Get returns the current persisted session, if any.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	record, err := h.sessions.Current(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to load session", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if record == nil {
		Error(w, http.StatusNotFound, "no active session")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"session": record})
}

// StartStep marks the current step in progress.
func (h *SessionHandler) StartStep(w http.ResponseWriter, r *http.Request) {
	h.mutateSession(w, r, func(userID string) (*domain.SessionRecord, error) {
		return h.sessions.StartCurrentStep(r.Context(), userID)
	})
}

type completeStepRequest struct {
	Reward int `json:"reward"`
}

// CompleteStep marks the current step completed and credits its reward.
// A missing or non-positive reward falls back to the step's default.
func (h *SessionHandler) CompleteStep(w http.ResponseWriter, r *http.Request) {
	var req completeStepRequest
	if err := decodeBody(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.mutateSession(w, r, func(userID string) (*domain.SessionRecord, error) {
		return h.sessions.CompleteCurrentStep(r.Context(), userID, req.Reward)
	})
}

// SkipStep marks the current step skipped with no reward.
func (h *SessionHandler) SkipStep(w http.ResponseWriter, r *http.Request) {
	h.mutateSession(w, r, func(userID string) (*domain.SessionRecord, error) {
		return h.sessions.SkipCurrentStep(r.Context(), userID)
	})
}

// Exit clears the session when no progress was made.
func (h *SessionHandler) Exit(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if err := h.sessions.Exit(r.Context(), userID); err != nil {
		slog.Error("Failed to exit session", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to exit session")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type stepContentRequest struct {
	ContentID string `json:"content_id"`
	Title     string `json:"title"`
}

// SetStepContent attaches a content reference to a step by index.
func (h *SessionHandler) SetStepContent(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid step index")
		return
	}

	var req stepContentRequest
	if err := decodeBody(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.mutateSession(w, r, func(userID string) (*domain.SessionRecord, error) {
		return h.sessions.SetStepContent(r.Context(), userID, index, req.ContentID, req.Title)
	})
}

func (h *SessionHandler) mutateSession(w http.ResponseWriter, r *http.Request, op func(userID string) (*domain.SessionRecord, error)) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	record, err := op(userID)
	if err != nil {
		if errors.Is(err, session.ErrNoSession) {
			Error(w, http.StatusNotFound, "no active session")
			return
		}
		slog.Error("Session update failed", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "session update failed")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"session": record})
}
