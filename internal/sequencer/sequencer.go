package sequencer

import (
	"github.com/godlykids/journey/internal/domain"
)

// Transition describes the outcome of one sequencer operation. Moved is
// false for no-ops (already complete, unknown jump target, past the end).
type Transition struct {
	From      domain.StepTag
	To        domain.StepTag
	Moved     bool
	Completed bool
}

// Sequencer walks a catalog's steps with a single cursor. States are the
// catalog's step tags plus the idle and complete sentinels; transitions are
// forward-only except for explicit GoTo jumps. The zero cursor is idle.
//
// The sequencer is a pure in-memory machine: callers persist the cursor and
// complete flag and restore them on load.
type Sequencer struct {
	catalog  *Catalog
	cursor   domain.StepTag
	complete bool
	statuses []domain.StepStatus
}

// New creates an idle sequencer over the given catalog.
func New(catalog *Catalog) *Sequencer {
	s := &Sequencer{catalog: catalog}
	s.resetStatuses()
	return s
}

func (s *Sequencer) resetStatuses() {
	s.statuses = make([]domain.StepStatus, s.catalog.Len())
	for i := range s.statuses {
		s.statuses[i] = domain.StepPending
	}
}

// Restore sets the machine to a persisted cursor and complete flag.
// A complete machine is forced to idle regardless of the stored cursor;
// an unknown cursor is treated as idle.
func (s *Sequencer) Restore(cursor domain.StepTag, complete bool) {
	s.complete = complete
	s.resetStatuses()
	if complete || !s.catalog.Contains(cursor) {
		s.cursor = domain.CursorIdle
		return
	}
	s.jumpTo(cursor)
}

// Catalog returns the catalog the sequencer walks.
func (s *Sequencer) Catalog() *Catalog { return s.catalog }

// Cursor returns the current step tag, or the idle sentinel.
func (s *Sequencer) Cursor() domain.StepTag { return s.cursor }

// Complete reports whether the flow has been finished.
func (s *Sequencer) Complete() bool { return s.complete }

// Current returns the step under the cursor.
func (s *Sequencer) Current() (domain.Step, bool) {
	i, ok := s.catalog.Index(s.cursor)
	if !ok {
		return domain.Step{}, false
	}
	return s.catalog.steps[i], true
}

// Statuses returns a copy of the per-step statuses in catalog order.
func (s *Sequencer) Statuses() []domain.StepStatus {
	out := make([]domain.StepStatus, len(s.statuses))
	copy(out, s.statuses)
	return out
}

// Start moves the cursor to the first step. No-op if the flow is already
// complete.
func (s *Sequencer) Start() Transition {
	if s.complete {
		return Transition{From: s.cursor, To: s.cursor}
	}
	from := s.cursor
	s.resetStatuses()
	s.cursor = s.catalog.steps[0].Tag
	s.statuses[0] = domain.StepInProgress
	return Transition{From: from, To: s.cursor, Moved: true}
}

// Next advances the cursor to the following step, marking the current one
// completed. From idle it enters the first step. Advancing past the last
// step sets the complete flag and returns the cursor to idle. No-op once
// complete.
func (s *Sequencer) Next() Transition {
	return s.advance(domain.StepCompleted)
}

// Skip marks the current step skipped and advances, with the same
// end-of-flow handling as Next. No-op when idle or complete.
func (s *Sequencer) Skip() Transition {
	if _, ok := s.catalog.Index(s.cursor); !ok {
		return Transition{From: s.cursor, To: s.cursor}
	}
	return s.advance(domain.StepSkipped)
}

func (s *Sequencer) advance(outcome domain.StepStatus) Transition {
	if s.complete {
		return Transition{From: s.cursor, To: s.cursor}
	}
	from := s.cursor

	i, ok := s.catalog.Index(s.cursor)
	if !ok {
		// Idle: enter the flow at the first step.
		s.cursor = s.catalog.steps[0].Tag
		s.statuses[0] = domain.StepInProgress
		return Transition{From: from, To: s.cursor, Moved: true}
	}

	s.statuses[i] = outcome
	if i+1 >= s.catalog.Len() {
		s.complete = true
		s.cursor = domain.CursorIdle
		return Transition{From: from, To: domain.CursorComplete, Moved: true, Completed: true}
	}
	s.cursor = s.catalog.steps[i+1].Tag
	s.statuses[i+1] = domain.StepInProgress
	return Transition{From: from, To: s.cursor, Moved: true}
}

// GoTo jumps the cursor directly to the given step, or to idle. Unknown
// targets are silently ignored, as is any jump once the flow is complete.
func (s *Sequencer) GoTo(tag domain.StepTag) Transition {
	if s.complete {
		return Transition{From: s.cursor, To: s.cursor}
	}
	from := s.cursor
	if tag == domain.CursorIdle {
		if s.cursor == domain.CursorIdle {
			return Transition{From: from, To: from}
		}
		s.cursor = domain.CursorIdle
		s.resetStatuses()
		return Transition{From: from, To: domain.CursorIdle, Moved: true}
	}
	if !s.catalog.Contains(tag) || tag == s.cursor {
		return Transition{From: from, To: from}
	}
	s.jumpTo(tag)
	return Transition{From: from, To: tag, Moved: true}
}

// jumpTo places the cursor on a known tag and rebuilds statuses so that
// everything before the cursor is completed (skipped marks are preserved),
// the cursor step is in progress, and everything after is pending.
func (s *Sequencer) jumpTo(tag domain.StepTag) {
	target, _ := s.catalog.Index(tag)
	for i := range s.statuses {
		switch {
		case i < target:
			if s.statuses[i] != domain.StepSkipped {
				s.statuses[i] = domain.StepCompleted
			}
		case i == target:
			s.statuses[i] = domain.StepInProgress
		default:
			s.statuses[i] = domain.StepPending
		}
	}
	s.cursor = tag
}

// AutoAdvanceDelay returns the current step's auto-advance delay, if the
// cursor is on a step that declares one.
func (s *Sequencer) AutoAdvanceDelay() (d domain.Step, ok bool) {
	step, ok := s.Current()
	if !ok {
		return domain.Step{}, false
	}
	if _, has := step.AutoAdvance(); !has {
		return domain.Step{}, false
	}
	return step, true
}
