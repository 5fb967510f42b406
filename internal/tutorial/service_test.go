package tutorial

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/godlykids/journey/internal/domain"
	"github.com/godlykids/journey/internal/sequencer"
	"github.com/godlykids/journey/internal/store"
)

type recordedTransition struct {
	From, To  domain.StepTag
	Completed bool
}

type fakeNotifier struct {
	mu          sync.Mutex
	transitions []recordedTransition
}

func (n *fakeNotifier) NotifyTransition(userID, flow string, from, to domain.StepTag, completed bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.transitions = append(n.transitions, recordedTransition{From: from, To: to, Completed: completed})
}

func (n *fakeNotifier) last() (recordedTransition, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.transitions) == 0 {
		return recordedTransition{}, false
	}
	return n.transitions[len(n.transitions)-1], true
}

func newTestService(t *testing.T, catalog *sequencer.Catalog) (*Service, *fakeNotifier) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "tutorial.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})

	timers := sequencer.NewTimerRegistry()
	t.Cleanup(timers.CancelAll)
	notifier := &fakeNotifier{}
	return NewService(repo, catalog, timers, notifier), notifier
}

func TestStartAndPersistCursor(t *testing.T) {
	svc, _ := newTestService(t, sequencer.Tutorial())
	ctx := context.Background()

	progress, err := svc.Start(ctx, "u1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if progress.Cursor != sequencer.TutWelcome {
		t.Errorf("cursor = %q, want %q", progress.Cursor, sequencer.TutWelcome)
	}

	// A new service instance over the same store sees the cursor.
	reloaded, err := svc.Progress(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Cursor != sequencer.TutWelcome {
		t.Errorf("persisted cursor = %q", reloaded.Cursor)
	}
}

func TestPaywallCompletionAndStartNoOp(t *testing.T) {
	svc, notifier := newTestService(t, sequencer.Tutorial())
	ctx := context.Background()

	if _, err := svc.Start(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GoTo(ctx, "u1", sequencer.TutPaywall); err != nil {
		t.Fatal(err)
	}

	progress, err := svc.Next(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !progress.Completed {
		t.Error("complete flag not set after final step")
	}
	if progress.Cursor != domain.CursorIdle {
		t.Errorf("cursor = %q, want idle", progress.Cursor)
	}
	if last, ok := notifier.last(); !ok || !last.Completed {
		t.Errorf("completion transition not notified: %+v", last)
	}

	// Start after completion is a no-op.
	progress, err = svc.Start(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if progress.Cursor != domain.CursorIdle || !progress.Completed {
		t.Errorf("Start after complete = %+v", progress)
	}
}

func TestGoToUnknownStepIgnored(t *testing.T) {
	svc, _ := newTestService(t, sequencer.Tutorial())
	ctx := context.Background()

	if _, err := svc.Start(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	progress, err := svc.GoTo(ctx, "u1", "step_that_never_existed")
	if err != nil {
		t.Fatal(err)
	}
	if progress.Cursor != sequencer.TutWelcome {
		t.Errorf("cursor = %q, want unchanged", progress.Cursor)
	}
}

func TestPageSwipeAdvancesOnlyBookPages(t *testing.T) {
	svc, _ := newTestService(t, sequencer.Tutorial())
	ctx := context.Background()

	if _, err := svc.Start(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	// Swiping on the welcome step does nothing.
	progress, err := svc.HandleEvent(ctx, "u1", EventPageSwiped)
	if err != nil {
		t.Fatal(err)
	}
	if progress.Cursor != sequencer.TutWelcome {
		t.Errorf("cursor = %q after irrelevant swipe", progress.Cursor)
	}

	if _, err := svc.GoTo(ctx, "u1", sequencer.TutBookPageOne); err != nil {
		t.Fatal(err)
	}
	progress, err = svc.HandleEvent(ctx, "u1", EventPageSwiped)
	if err != nil {
		t.Fatal(err)
	}
	if progress.Cursor != sequencer.TutBookPageTwo {
		t.Errorf("cursor after swipe = %q, want %q", progress.Cursor, sequencer.TutBookPageTwo)
	}
}

func TestQuizFinishedJumpsToCoins(t *testing.T) {
	svc, _ := newTestService(t, sequencer.Tutorial())
	ctx := context.Background()

	if _, err := svc.Start(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GoTo(ctx, "u1", sequencer.TutQuizInProgress); err != nil {
		t.Fatal(err)
	}

	progress, err := svc.HandleEvent(ctx, "u1", EventQuizFinished)
	if err != nil {
		t.Fatal(err)
	}
	if progress.Cursor != sequencer.TutCoinsHighlight {
		t.Errorf("cursor = %q, want %q", progress.Cursor, sequencer.TutCoinsHighlight)
	}

	// The same event away from the quiz step is ignored.
	progress, err = svc.HandleEvent(ctx, "u1", EventQuizFinished)
	if err != nil {
		t.Fatal(err)
	}
	if progress.Cursor != sequencer.TutCoinsHighlight {
		t.Errorf("cursor = %q, want unchanged", progress.Cursor)
	}
}

func TestAutoAdvanceFiresAndMovesCursor(t *testing.T) {
	catalog, err := sequencer.NewCatalog("mini", []domain.Step{
		{Tag: "flash", Title: "Flash", AutoAdvanceMS: 20},
		{Tag: "stay", Title: "Stay"},
	})
	if err != nil {
		t.Fatal(err)
	}
	svc, _ := newTestService(t, catalog)
	ctx := context.Background()

	if _, err := svc.Start(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		progress, err := svc.Progress(ctx, "u1")
		if err != nil {
			t.Fatal(err)
		}
		if progress.Cursor == "stay" {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("auto-advance never moved the cursor")
}

func TestManualAdvanceCancelsPendingTimer(t *testing.T) {
	catalog, err := sequencer.NewCatalog("mini", []domain.Step{
		{Tag: "slow", Title: "Slow", AutoAdvanceMS: 60},
		{Tag: "middle", Title: "Middle"},
		{Tag: "last", Title: "Last"},
	})
	if err != nil {
		t.Fatal(err)
	}
	svc, _ := newTestService(t, catalog)
	ctx := context.Background()

	if _, err := svc.Start(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	// User advances before the timer fires; the stale timer must not
	// advance a second time.
	if _, err := svc.Next(ctx, "u1"); err != nil {
		t.Fatal(err)
	}

	time.Sleep(120 * time.Millisecond)
	progress, err := svc.Progress(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if progress.Cursor != "middle" {
		t.Errorf("cursor = %q, want middle (no double advance)", progress.Cursor)
	}
}
