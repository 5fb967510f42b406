// Package api provides HTTP handlers for the GodlyKids API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/godlykids/journey/internal/store"
)

// Handler provides common handler utilities.
type Handler struct {
	repo                store.Repository
	frontendRedirectURL string
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, frontendURL string) *Handler {
	return &Handler{
		repo:                repo,
		frontendRedirectURL: frontendURL,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decodeBody decodes a JSON request body into v. An empty body is not an
// error: handlers treat missing fields as their zero values.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// isDevelopment returns true if running in development mode.
func (h *Handler) isDevelopment() bool {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env == "development"
	}
	return h.frontendRedirectURL == "" ||
		strings.Contains(h.frontendRedirectURL, "localhost") ||
		strings.Contains(h.frontendRedirectURL, "127.0.0.1")
}
