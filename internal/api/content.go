package api

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/godlykids/journey/internal/content"
	"github.com/godlykids/journey/internal/domain"
	"github.com/godlykids/journey/internal/identity"
)

const maxSpeakerSampleBytes = 10 << 20

// ContentHandler handles content catalog, voice and preference endpoints.
type ContentHandler struct {
	*Handler
	fetcher *content.Client
	voice   *content.VoiceClient
}

// NewContentHandler creates a content handler.
func NewContentHandler(base *Handler, fetcher *content.Client, voice *content.VoiceClient) *ContentHandler {
	return &ContentHandler{Handler: base, fetcher: fetcher, voice: voice}
}

// RegisterRoutes registers content, voice and preference routes.
func (h *ContentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/content", func(r chi.Router) {
		r.Get("/books", h.Books)
		r.Get("/lessons", h.Lessons)
		r.Get("/voices", h.Voices)
		r.Get("/campaigns", h.Campaigns)
		r.Post("/discussion-questions", h.DiscussionQuestions)
	})
	r.Route("/api/voice", func(r chi.Router) {
		r.Get("/status", h.VoiceStatus)
		r.Post("/generate", h.VoiceGenerate)
	})
	r.Route("/api/prefs", func(r chi.Router) {
		r.Get("/", h.GetPrefs)
		r.Put("/", h.PutPref)
	})
}

// Books returns books for a topic, from the backend or fallbacks.
func (h *ContentHandler) Books(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	JSON(w, http.StatusOK, map[string]interface{}{
		"books": h.fetcher.Books(r.Context(), topic),
	})
}

// Lessons returns scripture lessons for a topic.
func (h *ContentHandler) Lessons(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	JSON(w, http.StatusOK, map[string]interface{}{
		"lessons": h.fetcher.Lessons(r.Context(), topic),
	})
}

// Voices returns the narration voice catalog.
func (h *ContentHandler) Voices(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"voices": h.fetcher.Voices(r.Context()),
	})
}

// Campaigns returns the raw campaign catalog without per-device totals.
func (h *ContentHandler) Campaigns(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"campaigns": h.fetcher.Campaigns(r.Context()),
	})
}

// DiscussionQuestions returns family discussion questions for a topic.
func (h *ContentHandler) DiscussionQuestions(w http.ResponseWriter, r *http.Request) {
	var req domain.DiscussionRequest
	if err := decodeBody(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"questions": h.fetcher.DiscussionQuestions(r.Context(), req),
	})
}

// VoiceStatus reports whether the voice-cloning sidecar is reachable
// and has its model loaded.
func (h *ContentHandler) VoiceStatus(w http.ResponseWriter, r *http.Request) {
	status := h.voice.Status(r.Context())
	JSON(w, http.StatusOK, map[string]interface{}{
		"enabled":      h.voice.Enabled(),
		"online":       status.Online,
		"model_loaded": status.ModelLoaded,
	})
}

// VoiceGenerate proxies a narration request to the voice-cloning
// sidecar and streams the generated audio back.
func (h *ContentHandler) VoiceGenerate(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if !h.voice.Enabled() {
		Error(w, http.StatusServiceUnavailable, "voice generation is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxSpeakerSampleBytes); err != nil {
		Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	text := strings.TrimSpace(r.FormValue("text"))
	if text == "" {
		Error(w, http.StatusBadRequest, "text is required")
		return
	}
	language := r.FormValue("language")

	speaker, header, err := r.FormFile("speaker_wav")
	if err != nil {
		Error(w, http.StatusBadRequest, "speaker_wav file is required")
		return
	}
	defer func() {
		if closeErr := speaker.Close(); closeErr != nil {
			slog.Debug("Failed to close speaker sample", "error", closeErr)
		}
	}()

	audio, contentType, err := h.voice.Generate(r.Context(), text, language, speaker, header.Filename)
	if err != nil {
		slog.Error("Voice generation failed", "user_id", userID, "error", err)
		Error(w, http.StatusBadGateway, "voice generation failed")
		return
	}
	defer func() {
		if closeErr := audio.Close(); closeErr != nil {
			slog.Debug("Failed to close audio stream", "error", closeErr)
		}
	}()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, audio); err != nil {
		slog.Debug("Audio stream interrupted", "user_id", userID, "error", err)
	}
}

// GetPrefs returns every stored preference for the device.
func (h *ContentHandler) GetPrefs(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	prefs, err := h.repo.AllPrefs(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to read prefs", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to read preferences")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"prefs": prefs})
}

type prefRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// PutPref stores one opaque preference value.
func (h *ContentHandler) PutPref(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	var req prefRequest
	if err := decodeBody(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		Error(w, http.StatusBadRequest, "key is required")
		return
	}

	if err := h.repo.SetPref(r.Context(), userID, req.Key, req.Value); err != nil {
		slog.Error("Failed to store pref", "user_id", userID, "key", req.Key, "error", err)
		Error(w, http.StatusInternalServerError, "failed to store preference")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
