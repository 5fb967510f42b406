package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/godlykids/journey/internal/store"
)

type fakeRepo struct {
	store.Repository

	mu       sync.Mutex
	calls    []string
	failures int
	removed  int64
}

func (f *fakeRepo) DeleteStaleSessions(ctx context.Context, today string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, today)
	if f.failures > 0 {
		f.failures--
		return 0, errors.New("database is locked (SQLITE_BUSY)")
	}
	return f.removed, nil
}

func (f *fakeRepo) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestSweepUsesCurrentDate(t *testing.T) {
	repo := &fakeRepo{removed: 2}
	s := New(repo, time.Hour)
	s.now = func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) }

	s.sweep(context.Background())

	if repo.callCount() != 1 {
		t.Fatalf("calls = %d, want 1", repo.callCount())
	}
	if repo.calls[0] != "2026-03-14" {
		t.Errorf("today = %q", repo.calls[0])
	}
}

func TestSweepRetriesLockedDatabase(t *testing.T) {
	repo := &fakeRepo{failures: 2}
	s := New(repo, time.Hour)

	removed, err := s.deleteStaleWithRetry(context.Background(), "2026-03-14")
	if err != nil {
		t.Fatalf("retry did not recover: %v", err)
	}
	if removed != 0 {
		t.Errorf("removed = %d", removed)
	}
	if repo.callCount() != 3 {
		t.Errorf("calls = %d, want 3", repo.callCount())
	}
}

func TestSweepGivesUpAfterMaxRetries(t *testing.T) {
	repo := &fakeRepo{failures: 10}
	s := New(repo, time.Hour)

	if _, err := s.deleteStaleWithRetry(context.Background(), "2026-03-14"); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if repo.callCount() != 3 {
		t.Errorf("calls = %d, want 3", repo.callCount())
	}
}

func TestStartSweepsImmediatelyAndStops(t *testing.T) {
	repo := &fakeRepo{}
	s := New(repo, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for repo.callCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no sweep after Start")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
}
