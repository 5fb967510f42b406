// Package tutorial drives the onboarding overlay: a persisted cursor over
// the tutorial step catalog with auto-advance timers and event-triggered
// jumps.
package tutorial

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godlykids/journey/internal/domain"
	"github.com/godlykids/journey/internal/sequencer"
	"github.com/godlykids/journey/internal/store"
)

// Client-reported events that can advance the tutorial.
const (
	EventPageSwiped   = "page_swiped"
	EventQuizFinished = "quiz_finished"
)

// TransitionNotifier receives sequencer transitions for delivery to the
// device's open connections.
type TransitionNotifier interface {
	NotifyTransition(userID, flow string, from, to domain.StepTag, completed bool)
}

const advanceTimeout = 5 * time.Second

// Service owns tutorial progress per device. All mutations for one user
// are serialized, and the cursor plus complete flag are written through to
// storage on every transition.
type Service struct {
	repo    store.Repository
	catalog *sequencer.Catalog
	timers  *sequencer.TimerRegistry
	notify  TransitionNotifier

	locks sync.Map // userID -> *sync.Mutex
}

// NewService creates a tutorial service. notify may be nil when no event
// stream is attached.
func NewService(repo store.Repository, catalog *sequencer.Catalog, timers *sequencer.TimerRegistry, notify TransitionNotifier) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		timers:  timers,
		notify:  notify,
	}
}

func (s *Service) lock(userID string) func() {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Progress returns the stored tutorial state, defaulting to idle/incomplete
// for a device that has never seen the tutorial.
func (s *Service) Progress(ctx context.Context, userID string) (*domain.TutorialProgress, error) {
	progress, err := s.repo.GetTutorialProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load tutorial progress: %w", err)
	}
	if progress == nil {
		progress = &domain.TutorialProgress{UserID: userID, Cursor: domain.CursorIdle}
	}
	return progress, nil
}

// Steps returns the catalog the overlay renders.
func (s *Service) Steps() []domain.Step {
	return s.catalog.Steps()
}

// Start moves the cursor to the first step unless the tutorial was already
// completed on this device.
func (s *Service) Start(ctx context.Context, userID string) (*domain.TutorialProgress, error) {
	return s.apply(ctx, userID, func(seq *sequencer.Sequencer) sequencer.Transition {
		return seq.Start()
	})
}

// Next advances the cursor one step; finishing the last step sets the
// durable complete flag and clears the persisted cursor.
func (s *Service) Next(ctx context.Context, userID string) (*domain.TutorialProgress, error) {
	return s.apply(ctx, userID, func(seq *sequencer.Sequencer) sequencer.Transition {
		return seq.Next()
	})
}

// Skip marks the current step skipped and advances.
func (s *Service) Skip(ctx context.Context, userID string) (*domain.TutorialProgress, error) {
	return s.apply(ctx, userID, func(seq *sequencer.Sequencer) sequencer.Transition {
		return seq.Skip()
	})
}

// GoTo jumps directly to a step. Unknown targets are silently ignored.
func (s *Service) GoTo(ctx context.Context, userID string, tag domain.StepTag) (*domain.TutorialProgress, error) {
	return s.apply(ctx, userID, func(seq *sequencer.Sequencer) sequencer.Transition {
		return seq.GoTo(tag)
	})
}

// HandleEvent applies a client-reported page event: a page swipe advances
// within the book sub-range, and finishing the quiz jumps to the coins
// highlight. Events that do not match the current step are ignored.
func (s *Service) HandleEvent(ctx context.Context, userID, event string) (*domain.TutorialProgress, error) {
	return s.apply(ctx, userID, func(seq *sequencer.Sequencer) sequencer.Transition {
		switch event {
		case EventPageSwiped:
			if sequencer.IsBookPageStep(seq.Cursor()) {
				return seq.Next()
			}
		case EventQuizFinished:
			if seq.Cursor() == sequencer.TutQuizInProgress {
				return seq.GoTo(sequencer.TutCoinsHighlight)
			}
		default:
			slog.Debug("Ignoring unknown tutorial event", "user_id", userID, "event", event)
		}
		return sequencer.Transition{From: seq.Cursor(), To: seq.Cursor()}
	})
}

// apply rebuilds the machine from storage, runs one operation, persists the
// outcome, and re-arms the auto-advance timer for the new step.
func (s *Service) apply(ctx context.Context, userID string, op func(seq *sequencer.Sequencer) sequencer.Transition) (*domain.TutorialProgress, error) {
	unlock := s.lock(userID)
	defer unlock()

	progress, err := s.Progress(ctx, userID)
	if err != nil {
		return nil, err
	}

	seq := sequencer.New(s.catalog)
	seq.Restore(progress.Cursor, progress.Completed)

	tr := op(seq)
	if !tr.Moved {
		return progress, nil
	}

	progress.Cursor = seq.Cursor()
	progress.Completed = seq.Complete()
	progress.UpdatedAt = time.Now()
	if err := s.repo.SaveTutorialProgress(ctx, progress); err != nil {
		return nil, fmt.Errorf("persist tutorial progress: %w", err)
	}

	// The step changed: the previous step's timer must never fire.
	s.timers.Cancel(userID)
	if step, ok := seq.AutoAdvanceDelay(); ok {
		delay, _ := step.AutoAdvance()
		s.timers.Schedule(userID, step.Tag, delay, func(tag domain.StepTag) {
			s.autoAdvance(userID, tag)
		})
	}

	if s.notify != nil {
		s.notify.NotifyTransition(userID, s.catalog.Name(), tr.From, tr.To, tr.Completed)
	}
	return progress, nil
}

// autoAdvance runs when a step's auto-advance delay elapses. The cursor is
// re-checked under the user's lock so a transition that raced the timer
// wins and the advance becomes a no-op.
func (s *Service) autoAdvance(userID string, tag domain.StepTag) {
	ctx, cancel := context.WithTimeout(context.Background(), advanceTimeout)
	defer cancel()

	_, err := s.apply(ctx, userID, func(seq *sequencer.Sequencer) sequencer.Transition {
		if seq.Cursor() != tag {
			return sequencer.Transition{From: seq.Cursor(), To: seq.Cursor()}
		}
		return seq.Next()
	})
	if err != nil {
		slog.Warn("Tutorial auto-advance failed", "user_id", userID, "step", tag, "error", err)
	}
}
