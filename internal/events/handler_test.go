package events

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/godlykids/journey/internal/store"
)

type lastSeenRepo struct {
	store.Repository

	mu    sync.Mutex
	calls int
}

func (r *lastSeenRepo) UpdateLastSeen(ctx context.Context, userID string, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return nil
}

func (r *lastSeenRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestServeHTTPThrottlesLastSeenWrites(t *testing.T) {
	repo := &lastSeenRepo{}
	handler := NewWebSocketHandler(repo, NewHub(), "*", true)
	handler.lastSeenEvery = time.Hour

	srv := httptest.NewServer(handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):], nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = conn.Close(websocket.StatusNormalClosure, "done")
	}()

	// Each ping is answered with a pong, so every received pong proves
	// the server finished another loop iteration.
	ping, _ := json.Marshal(clientMessage{Type: "ping"})
	for i := 0; i < 5; i++ {
		if err := conn.Write(ctx, websocket.MessageText, ping); err != nil {
			t.Fatal(err)
		}
		if _, _, err := conn.Read(ctx); err != nil {
			t.Fatal(err)
		}
	}

	if got := repo.callCount(); got != 1 {
		t.Errorf("UpdateLastSeen calls = %d, want 1 for a chatty client within the interval", got)
	}
}
