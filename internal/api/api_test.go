//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/godlykids/journey/internal/content"
	"github.com/godlykids/journey/internal/identity"
	"github.com/godlykids/journey/internal/ledger"
	"github.com/godlykids/journey/internal/sequencer"
	"github.com/godlykids/journey/internal/session"
	"github.com/godlykids/journey/internal/store"
	"github.com/godlykids/journey/internal/tutorial"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusNotFound, "missing")

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["error"] != "missing" {
		t.Errorf("Expected error=missing, got %v", got["error"])
	}
}

// newTestClient spins up the full route stack on a real SQLite store and
// returns a client whose cookie jar holds the anonymous identity.
func newTestClient(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "api_test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})

	dailyCatalog := sequencer.DailySession()
	tutorialCatalog := sequencer.Tutorial()
	timers := sequencer.NewTimerRegistry()
	t.Cleanup(timers.CancelAll)

	wallet := ledger.NewService(repo)
	sessions := session.NewService(repo, dailyCatalog, wallet)
	flow := tutorial.NewService(repo, tutorialCatalog, timers, nil)
	fetcher := content.NewClient("", time.Second)
	voice := content.NewVoiceClient("", time.Second)

	base := NewHandler(repo, "")
	r := chi.NewRouter()
	r.Use(identity.Middleware(repo, true))
	NewHealthHandler(repo, voice).RegisterHealth(r)
	NewSessionHandler(base, sessions).RegisterRoutes(r)
	NewTutorialHandler(base, flow).RegisterRoutes(r)
	NewWalletHandler(base, wallet, fetcher).RegisterRoutes(r)
	NewContentHandler(base, fetcher, voice).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return srv, &http.Client{Jar: jar}
}

func doJSON(t *testing.T, client *http.Client, method, url string, body interface{}, out interface{}) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("close body: %v", err)
		}
	}()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, url, err)
		}
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv, client := newTestClient(t)

	var body map[string]interface{}
	resp := doJSON(t, client, http.MethodGet, srv.URL+"/health", nil, &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv, client := newTestClient(t)

	var created struct {
		Session struct {
			Steps []struct {
				Tag    string `json:"tag"`
				Status string `json:"status"`
			} `json:"steps"`
			Cursor    int  `json:"cursor"`
			Completed bool `json:"completed"`
		} `json:"session"`
		Resumed bool `json:"resumed"`
	}
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/session",
		map[string]interface{}{"topics": []string{"courage"}}, &created)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if created.Resumed {
		t.Error("fresh session reported as resumed")
	}
	if len(created.Session.Steps) != 4 {
		t.Fatalf("steps = %d, want 4", len(created.Session.Steps))
	}

	// Complete the first step without an explicit reward: the catalog
	// default for the scripture step should be credited.
	doJSON(t, client, http.MethodPost, srv.URL+"/api/session/start-step", nil, nil)
	var completed struct {
		Session struct {
			Steps []struct {
				Status string `json:"status"`
				Reward int    `json:"reward"`
			} `json:"steps"`
			Cursor int `json:"cursor"`
		} `json:"session"`
	}
	resp = doJSON(t, client, http.MethodPost, srv.URL+"/api/session/complete-step", map[string]int{}, &completed)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("complete-step status = %d", resp.StatusCode)
	}
	if completed.Session.Steps[0].Status != "completed" {
		t.Errorf("first step status = %q", completed.Session.Steps[0].Status)
	}
	if completed.Session.Steps[0].Reward == 0 {
		t.Error("default reward was not applied")
	}
	if completed.Session.Cursor != 1 {
		t.Errorf("cursor = %d", completed.Session.Cursor)
	}

	var wallet struct {
		Balance int64 `json:"balance"`
	}
	doJSON(t, client, http.MethodGet, srv.URL+"/api/wallet", nil, &wallet)
	if wallet.Balance != int64(completed.Session.Steps[0].Reward) {
		t.Errorf("balance = %d, want %d", wallet.Balance, completed.Session.Steps[0].Reward)
	}
}

func TestSessionGetWithoutSession(t *testing.T) {
	srv, client := newTestClient(t)

	resp := doJSON(t, client, http.MethodGet, srv.URL+"/api/session", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestWalletSpendDeclined(t *testing.T) {
	srv, client := newTestClient(t)

	var result struct {
		Accepted bool  `json:"accepted"`
		Balance  int64 `json:"balance"`
	}
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/wallet/spend",
		map[string]interface{}{"amount": 100, "reason": "shop_purchase"}, &result)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("declined spend must stay 200, got %d", resp.StatusCode)
	}
	if result.Accepted {
		t.Error("overdraft was accepted")
	}
	if result.Balance != 0 {
		t.Errorf("balance = %d", result.Balance)
	}
}

func TestShopPurchaseFlow(t *testing.T) {
	srv, client := newTestClient(t)

	// Not enough coins yet.
	var declined struct {
		Accepted bool `json:"accepted"`
	}
	doJSON(t, client, http.MethodPost, srv.URL+"/api/shop/purchase",
		map[string]string{"item_id": "hat-shepherd"}, &declined)
	if declined.Accepted {
		t.Fatal("purchase accepted with empty wallet")
	}

	doJSON(t, client, http.MethodPost, srv.URL+"/api/wallet/earn",
		map[string]interface{}{"amount": 100, "reason": "step_reward"}, nil)

	var accepted struct {
		Accepted bool  `json:"accepted"`
		Balance  int64 `json:"balance"`
	}
	doJSON(t, client, http.MethodPost, srv.URL+"/api/shop/purchase",
		map[string]string{"item_id": "hat-shepherd"}, &accepted)
	if !accepted.Accepted {
		t.Fatal("funded purchase was declined")
	}
	if accepted.Balance != 60 {
		t.Errorf("balance = %d, want 60", accepted.Balance)
	}

	var items struct {
		Items []struct {
			ID    string `json:"id"`
			Owned bool   `json:"owned"`
		} `json:"items"`
	}
	doJSON(t, client, http.MethodGet, srv.URL+"/api/shop/items", nil, &items)
	found := false
	for _, item := range items.Items {
		if item.ID == "hat-shepherd" {
			found = true
			if !item.Owned {
				t.Error("purchased item not marked owned")
			}
		}
	}
	if !found {
		t.Fatal("purchased item missing from catalog")
	}

	// Repurchase is rejected before the wallet is touched.
	resp := doJSON(t, client, http.MethodPost, srv.URL+"/api/shop/purchase",
		map[string]string{"item_id": "hat-shepherd"}, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("repurchase status = %d, want 409", resp.StatusCode)
	}
}

func TestTutorialFlow(t *testing.T) {
	srv, client := newTestClient(t)

	var started struct {
		Progress struct {
			Cursor    string `json:"cursor"`
			Completed bool   `json:"completed"`
		} `json:"progress"`
	}
	doJSON(t, client, http.MethodPost, srv.URL+"/api/tutorial/start", nil, &started)
	if started.Progress.Cursor != string(sequencer.TutWelcome) {
		t.Errorf("cursor = %q", started.Progress.Cursor)
	}

	var jumped struct {
		Progress struct {
			Cursor string `json:"cursor"`
		} `json:"progress"`
	}
	doJSON(t, client, http.MethodPost, srv.URL+"/api/tutorial/goto",
		map[string]string{"step": string(sequencer.TutQuizInProgress)}, &jumped)
	if jumped.Progress.Cursor != string(sequencer.TutQuizInProgress) {
		t.Errorf("cursor after goto = %q", jumped.Progress.Cursor)
	}

	// The quiz-finished event jumps to the coins highlight.
	var after struct {
		Progress struct {
			Cursor string `json:"cursor"`
		} `json:"progress"`
	}
	doJSON(t, client, http.MethodPost, srv.URL+"/api/tutorial/events",
		map[string]string{"event": "quiz_finished"}, &after)
	if after.Progress.Cursor != string(sequencer.TutCoinsHighlight) {
		t.Errorf("cursor after quiz_finished = %q", after.Progress.Cursor)
	}

	var state struct {
		Steps []json.RawMessage `json:"steps"`
	}
	doJSON(t, client, http.MethodGet, srv.URL+"/api/tutorial", nil, &state)
	if len(state.Steps) != tutorialCatalogLen(t) {
		t.Errorf("steps = %d", len(state.Steps))
	}
}

func tutorialCatalogLen(t *testing.T) int {
	t.Helper()
	return sequencer.Tutorial().Len()
}

func TestPrefsRoundTrip(t *testing.T) {
	srv, client := newTestClient(t)

	resp := doJSON(t, client, http.MethodPut, srv.URL+"/api/prefs",
		map[string]string{"key": "narration_voice", "value": "fb-voice-grace"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d", resp.StatusCode)
	}

	var got struct {
		Prefs map[string]string `json:"prefs"`
	}
	doJSON(t, client, http.MethodGet, srv.URL+"/api/prefs", nil, &got)
	if got.Prefs["narration_voice"] != "fb-voice-grace" {
		t.Errorf("prefs = %v", got.Prefs)
	}
}

func TestContentBooksFallback(t *testing.T) {
	srv, client := newTestClient(t)

	var got struct {
		Books []struct {
			ID string `json:"id"`
		} `json:"books"`
	}
	doJSON(t, client, http.MethodGet, srv.URL+"/api/content/books?topic=courage", nil, &got)
	if len(got.Books) == 0 {
		t.Error("offline fetcher returned no books")
	}
}

func TestVoiceGenerateUnconfigured(t *testing.T) {
	srv, client := newTestClient(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/voice/generate", bytes.NewReader(nil))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("close body: %v", err)
		}
	}()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}
