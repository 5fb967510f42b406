// Package content fetches books, lessons, voices, campaigns and discussion
// questions from the remote content backend. Every fetch degrades to a
// small built-in fallback set on failure or timeout so the flow can always
// proceed.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/godlykids/journey/internal/domain"
)

// Client is an HTTP client for the content backend. A zero base URL puts
// the client in offline mode: every call answers from the fallback data.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a content client. timeout bounds each request; late
// responses are dropped, not waited for.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Online reports whether a content backend is configured.
func (c *Client) Online() bool { return c.baseURL != "" }

// Books returns the book list for a topic, falling back to the built-in
// library when the backend is unreachable.
func (c *Client) Books(ctx context.Context, topic string) []domain.Book {
	var books []domain.Book
	if err := c.getJSON(ctx, "/v1/books", url.Values{"topic": {topic}}, &books); err != nil {
		slog.Warn("Content fetch failed, using fallback books", "topic", topic, "error", err)
		return FallbackBooks(topic)
	}
	if len(books) == 0 {
		return FallbackBooks(topic)
	}
	return books
}

// Lessons returns the scripture lessons for a topic.
func (c *Client) Lessons(ctx context.Context, topic string) []domain.Lesson {
	var lessons []domain.Lesson
	if err := c.getJSON(ctx, "/v1/lessons", url.Values{"topic": {topic}}, &lessons); err != nil {
		slog.Warn("Content fetch failed, using fallback lessons", "topic", topic, "error", err)
		return FallbackLessons(topic)
	}
	if len(lessons) == 0 {
		return FallbackLessons(topic)
	}
	return lessons
}

// Voices returns the narration voice catalog.
func (c *Client) Voices(ctx context.Context) []domain.Voice {
	var voices []domain.Voice
	if err := c.getJSON(ctx, "/v1/voices", nil, &voices); err != nil {
		slog.Warn("Content fetch failed, using fallback voices", "error", err)
		return FallbackVoices()
	}
	if len(voices) == 0 {
		return FallbackVoices()
	}
	return voices
}

// Campaigns returns the active giving campaigns.
func (c *Client) Campaigns(ctx context.Context) []domain.Campaign {
	var campaigns []domain.Campaign
	if err := c.getJSON(ctx, "/v1/campaigns", nil, &campaigns); err != nil {
		slog.Warn("Content fetch failed, using fallback campaigns", "error", err)
		return FallbackCampaigns()
	}
	if len(campaigns) == 0 {
		return FallbackCampaigns()
	}
	return campaigns
}

// DiscussionQuestions returns AI-generated questions for the topic within
// the request's constraints, or the built-in question set when the AI
// backend cannot answer in time.
func (c *Client) DiscussionQuestions(ctx context.Context, req domain.DiscussionRequest) []string {
	if req.MaxQuestions <= 0 {
		req.MaxQuestions = 3
	}

	var out struct {
		Questions []string `json:"questions"`
	}
	if err := c.postJSON(ctx, "/v1/discussion-questions", req, &out); err != nil {
		slog.Warn("Discussion question fetch failed, using fallback set", "topic", req.Topic, "error", err)
		return FallbackQuestions(req.Topic, req.MaxQuestions)
	}
	if len(out.Questions) == 0 {
		return FallbackQuestions(req.Topic, req.MaxQuestions)
	}
	if len(out.Questions) > req.MaxQuestions {
		out.Questions = out.Questions[:req.MaxQuestions]
	}
	return out.Questions
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("content backend not configured")
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("failed to close content response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, v interface{}) error {
	if c.baseURL == "" {
		return fmt.Errorf("content backend not configured")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("failed to close content response body", "error", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
