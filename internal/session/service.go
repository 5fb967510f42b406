// Package session implements the persisted daily learning session: a
// 4-step guided flow whose record is mirrored to storage after every
// mutation and rehydrated on load.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godlykids/journey/internal/domain"
	"github.com/godlykids/journey/internal/ledger"
	"github.com/godlykids/journey/internal/sequencer"
	"github.com/godlykids/journey/internal/store"
	"github.com/google/uuid"
)

// ErrNoSession is returned by step mutations when no session record exists.
var ErrNoSession = errors.New("no active session")

// Service coordinates the daily session record for each device. Mutations
// for the same user are serialized; the record is written through to
// storage before any call returns.
type Service struct {
	repo    store.Repository
	catalog *sequencer.Catalog
	rewards *ledger.Service
	now     func() time.Time

	locks sync.Map // userID -> *sync.Mutex
}

// ObtainResult is the outcome of Obtain: the active record plus whether an
// earlier in-progress session was resumed rather than recreated.
type ObtainResult struct {
	Record  *domain.SessionRecord `json:"record"`
	Resumed bool                  `json:"resumed"`
}

// NewService creates a session service over the given catalog. rewards may
// be nil in tests; step completion then records the reward on the record
// only.
func NewService(repo store.Repository, catalog *sequencer.Catalog, rewards *ledger.Service) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		rewards: rewards,
		now:     time.Now,
	}
}

func (s *Service) lock(userID string) func() {
	v, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Obtain returns the session to show the user, applying the resume policy:
// a fresh-start request always recreates; a record from a previous calendar
// day is discarded; an unfinished record with real progress is resumed;
// anything else is replaced by a fresh record.
func (s *Service) Obtain(ctx context.Context, userID string, topics []string, freshStart bool) (ObtainResult, error) {
	unlock := s.lock(userID)
	defer unlock()

	existing, err := s.repo.GetDailySession(ctx, userID)
	if err != nil {
		return ObtainResult{}, fmt.Errorf("load session: %w", err)
	}

	today := s.now()
	resume := !freshStart &&
		existing != nil &&
		!existing.Completed &&
		existing.CreatedOn(today) &&
		existing.HasProgress()
	if resume {
		slog.Info("Resuming daily session", "user_id", userID, "cursor", existing.Cursor)
		return ObtainResult{Record: existing, Resumed: true}, nil
	}

	record := s.newRecord(topics, today)
	if err := s.repo.SaveDailySession(ctx, userID, record); err != nil {
		return ObtainResult{}, fmt.Errorf("create session: %w", err)
	}
	slog.Info("Created daily session", "user_id", userID, "topics", topics, "fresh_start", freshStart)
	return ObtainResult{Record: record}, nil
}

func (s *Service) newRecord(topics []string, today time.Time) *domain.SessionRecord {
	if topics == nil {
		topics = []string{}
	}
	steps := make([]domain.SessionStep, 0, s.catalog.Len())
	for _, step := range s.catalog.Steps() {
		steps = append(steps, domain.SessionStep{
			Tag:    step.Tag,
			Title:  step.Title,
			Status: domain.StepPending,
		})
	}
	return &domain.SessionRecord{
		ID:          uuid.NewString(),
		Topics:      topics,
		Steps:       steps,
		Cursor:      0,
		CreatedDate: today.Format(domain.SessionDateLayout),
		CreatedAt:   today,
		UpdatedAt:   today,
	}
}

// Current returns the persisted record, or nil when none exists.
func (s *Service) Current(ctx context.Context, userID string) (*domain.SessionRecord, error) {
	return s.repo.GetDailySession(ctx, userID)
}

// StartCurrentStep marks the step under the cursor in progress.
// No-op when there is no pending current step.
func (s *Service) StartCurrentStep(ctx context.Context, userID string) (*domain.SessionRecord, error) {
	return s.mutate(ctx, userID, func(record *domain.SessionRecord) bool {
		cur := record.CurrentStep()
		if cur == nil || cur.Status != domain.StepPending {
			return false
		}
		cur.Status = domain.StepInProgress
		return true
	})
}

// CompleteCurrentStep marks the step under the cursor completed, records
// the reward against it, credits the wallet, and advances the cursor.
// A non-positive reward resolves to the catalog default for the step.
// Advancing past the last step marks the record completed; on an already
// completed record nothing changes and nothing is credited.
func (s *Service) CompleteCurrentStep(ctx context.Context, userID string, reward int) (*domain.SessionRecord, error) {
	credited := 0
	record, err := s.mutate(ctx, userID, func(record *domain.SessionRecord) bool {
		cur := record.CurrentStep()
		if cur == nil {
			return false
		}
		if reward <= 0 {
			if step, ok := s.catalog.At(record.Cursor); ok {
				reward = step.DefaultReward
			}
		}
		cur.Status = domain.StepCompleted
		cur.Reward = reward
		credited = reward
		s.advance(record)
		return true
	})
	if err != nil {
		return nil, err
	}

	if credited > 0 && s.rewards != nil {
		if _, err := s.rewards.AddCoins(ctx, userID, int64(credited), domain.ReasonStepReward); err != nil {
			return nil, fmt.Errorf("credit step reward: %w", err)
		}
	}
	return record, nil
}

// SkipCurrentStep marks the step under the cursor skipped with no reward
// and advances the cursor. The wallet is never touched.
func (s *Service) SkipCurrentStep(ctx context.Context, userID string) (*domain.SessionRecord, error) {
	return s.mutate(ctx, userID, func(record *domain.SessionRecord) bool {
		cur := record.CurrentStep()
		if cur == nil {
			return false
		}
		cur.Status = domain.StepSkipped
		cur.Reward = 0
		s.advance(record)
		return true
	})
}

func (s *Service) advance(record *domain.SessionRecord) {
	record.Cursor++
	if record.Cursor >= len(record.Steps) {
		record.Completed = true
	}
}

// SetStepContent attaches a content reference to the step at index without
// changing its status. Out-of-range indexes are silently ignored.
func (s *Service) SetStepContent(ctx context.Context, userID string, index int, contentID, title string) (*domain.SessionRecord, error) {
	return s.mutate(ctx, userID, func(record *domain.SessionRecord) bool {
		if index < 0 || index >= len(record.Steps) {
			return false
		}
		record.Steps[index].ContentID = contentID
		record.Steps[index].ContentTitle = title
		return true
	})
}

// Exit clears the persisted record when no real progress was made, and
// leaves it intact otherwise so the user can resume later.
func (s *Service) Exit(ctx context.Context, userID string) error {
	unlock := s.lock(userID)
	defer unlock()

	record, err := s.repo.GetDailySession(ctx, userID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if record == nil {
		return nil
	}
	if record.HasProgress() {
		slog.Info("Exit with progress, keeping session", "user_id", userID, "cursor", record.Cursor)
		return nil
	}

	if err := s.repo.DeleteDailySession(ctx, userID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	slog.Info("Exit without progress, session cleared", "user_id", userID)
	return nil
}

// mutate loads the record and applies fn under the user's lock. fn reports
// whether it changed anything; the record is written back only then.
func (s *Service) mutate(ctx context.Context, userID string, fn func(record *domain.SessionRecord) bool) (*domain.SessionRecord, error) {
	unlock := s.lock(userID)
	defer unlock()

	record, err := s.repo.GetDailySession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if record == nil {
		return nil, ErrNoSession
	}

	if !fn(record) {
		return record, nil
	}
	record.UpdatedAt = s.now()

	if err := s.repo.SaveDailySession(ctx, userID, record); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return record, nil
}
