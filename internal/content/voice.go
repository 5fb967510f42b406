package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"
)

// VoiceClient proxies the voice-cloning sidecar service: it submits text
// plus a short speaker sample and streams back generated narration audio.
type VoiceClient struct {
	baseURL string
	http    *http.Client
}

// VoiceStatus is the sidecar's readiness report.
type VoiceStatus struct {
	Online      bool `json:"online"`
	ModelLoaded bool `json:"model_loaded"`
}

// NewVoiceClient creates a voice client. An empty base URL disables the
// feature; generation then reports unavailable instead of failing requests.
func NewVoiceClient(baseURL string, timeout time.Duration) *VoiceClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &VoiceClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a voice service is configured.
func (c *VoiceClient) Enabled() bool { return c.baseURL != "" }

// Status probes the sidecar's root endpoint. An unreachable service is
// reported as offline, not as an error.
func (c *VoiceClient) Status(ctx context.Context) VoiceStatus {
	if !c.Enabled() {
		return VoiceStatus{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return VoiceStatus{}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Debug("Voice service unreachable", "error", err)
		return VoiceStatus{}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("failed to close voice status body", "error", closeErr)
		}
	}()

	var body struct {
		Status      string `json:"status"`
		ModelLoaded bool   `json:"model_loaded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return VoiceStatus{Online: resp.StatusCode == http.StatusOK}
	}
	return VoiceStatus{Online: body.Status == "online", ModelLoaded: body.ModelLoaded}
}

// Generate submits text, a language code and a speaker wav sample and
// returns the generated audio stream with its content type. The caller
// must close the returned reader.
func (c *VoiceClient) Generate(ctx context.Context, text, language string, speaker io.Reader, filename string) (io.ReadCloser, string, error) {
	if !c.Enabled() {
		return nil, "", fmt.Errorf("voice service not configured")
	}
	if language == "" {
		language = "en"
	}

	body, contentType, err := buildGenerateForm(text, language, speaker, filename)
	if err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", body)
	if err != nil {
		return nil, "", fmt.Errorf("build voice request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("voice generate: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("failed to close voice error body", "error", closeErr)
		}
		return nil, "", fmt.Errorf("voice generate: upstream status %d: %s", resp.StatusCode, string(detail))
	}

	audioType := resp.Header.Get("Content-Type")
	if audioType == "" {
		audioType = "audio/wav"
	}
	return resp.Body, audioType, nil
}

// buildGenerateForm assembles the multipart body the sidecar expects:
// text and language form fields plus a speaker_wav file part.
func buildGenerateForm(text, language string, speaker io.Reader, filename string) (io.Reader, string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			if err := mw.WriteField("text", text); err != nil {
				return err
			}
			if err := mw.WriteField("language", language); err != nil {
				return err
			}
			part, err := mw.CreateFormFile("speaker_wav", filename)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, speaker); err != nil {
				return err
			}
			return mw.Close()
		}()
		if err != nil {
			err = fmt.Errorf("write voice form: %w", err)
		}
		if closeErr := pw.CloseWithError(err); closeErr != nil {
			slog.Debug("failed to close voice form pipe", "error", closeErr)
		}
	}()

	return pr, mw.FormDataContentType(), nil
}
