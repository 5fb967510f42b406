// Package sweeper removes stale daily session records in the background.
package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/godlykids/journey/internal/domain"
	"github.com/godlykids/journey/internal/shared"
	"github.com/godlykids/journey/internal/store"
)

const defaultInterval = time.Hour

// Sweeper periodically deletes daily session records left over from
// previous days. A stale record would otherwise only be replaced the
// next time its owner shows up.
type Sweeper struct {
	repo     store.Repository
	interval time.Duration
	now      func() time.Time
}

// New creates a sweeper. A non-positive interval falls back to the
// hourly default.
func New(repo store.Repository, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sweeper{repo: repo, interval: interval, now: time.Now}
}

// Start runs the sweep loop in a background goroutine until the context
// is cancelled. One sweep runs immediately on startup.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", s.interval)

		s.sweep(ctx)
		for {
			select {
			case <-ticker.C:
				s.sweep(ctx)
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func (s *Sweeper) sweep(ctx context.Context) {
	today := s.now().Format(domain.SessionDateLayout)
	removed, err := s.deleteStaleWithRetry(ctx, today)
	if err != nil {
		slog.Error("Session sweep failed", "error", err)
		return
	}
	if removed > 0 {
		slog.Info("Swept stale sessions", "removed", removed, "today", today)
	}
}

// deleteStaleWithRetry retries SQLITE_BUSY conflicts with exponential
// backoff before giving up.
func (s *Sweeper) deleteStaleWithRetry(ctx context.Context, today string) (int64, error) {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		removed, err := s.repo.DeleteStaleSessions(ctx, today)
		if err == nil {
			return removed, nil
		}
		lastErr = err

		if !shared.IsSQLiteConflictError(err) || ctx.Err() != nil {
			return 0, err
		}
		if i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("Session sweep hit a locked database, retrying",
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
		}
	}
	return 0, fmt.Errorf("delete stale sessions after %d attempts: %w", maxRetries, lastErr)
}
