package sequencer

import (
	"testing"

	"github.com/godlykids/journey/internal/domain"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog("test", []domain.Step{
		{Tag: "one", Title: "One"},
		{Tag: "two", Title: "Two", AutoAdvanceMS: 500},
		{Tag: "three", Title: "Three"},
	})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	return c
}

func TestNextVisitsEveryStepInOrder(t *testing.T) {
	s := New(testCatalog(t))

	want := []domain.StepTag{"one", "two", "three"}
	for i, tag := range want {
		tr := s.Next()
		if !tr.Moved {
			t.Fatalf("Next() %d did not move", i)
		}
		if s.Cursor() != tag {
			t.Errorf("after Next() %d cursor = %q, want %q", i, s.Cursor(), tag)
		}
	}

	tr := s.Next()
	if !tr.Completed {
		t.Error("final Next() should set the complete flag")
	}
	if s.Cursor() != domain.CursorIdle {
		t.Errorf("cursor after completion = %q, want idle", s.Cursor())
	}
	if !s.Complete() {
		t.Error("Complete() = false after walking all steps")
	}

	// Next after complete is a no-op.
	tr = s.Next()
	if tr.Moved {
		t.Error("Next() after complete should be a no-op")
	}
}

func TestStartNoOpWhenComplete(t *testing.T) {
	s := New(testCatalog(t))
	s.Restore(domain.CursorIdle, true)

	tr := s.Start()
	if tr.Moved {
		t.Error("Start() on a complete flow should be a no-op")
	}
	if s.Cursor() != domain.CursorIdle {
		t.Errorf("cursor = %q, want idle", s.Cursor())
	}
}

func TestStartEntersFirstStep(t *testing.T) {
	s := New(testCatalog(t))
	tr := s.Start()
	if !tr.Moved || s.Cursor() != "one" {
		t.Fatalf("Start() cursor = %q, want %q", s.Cursor(), "one")
	}
	if got := s.Statuses()[0]; got != domain.StepInProgress {
		t.Errorf("first step status = %q, want in_progress", got)
	}
}

func TestGoToIdempotent(t *testing.T) {
	s := New(testCatalog(t))
	s.Start()

	first := s.GoTo("three")
	if !first.Moved || s.Cursor() != "three" {
		t.Fatalf("GoTo moved=%v cursor=%q", first.Moved, s.Cursor())
	}

	second := s.GoTo("three")
	if second.Moved {
		t.Error("second GoTo to the same step should not move")
	}
	if s.Cursor() != "three" {
		t.Errorf("cursor changed on repeated GoTo: %q", s.Cursor())
	}
}

func TestGoToUnknownTargetIgnored(t *testing.T) {
	s := New(testCatalog(t))
	s.Start()

	tr := s.GoTo("no_such_step")
	if tr.Moved {
		t.Error("GoTo with unknown target should be ignored")
	}
	if s.Cursor() != "one" {
		t.Errorf("cursor = %q, want unchanged %q", s.Cursor(), "one")
	}
}

func TestGoToRebuildsStatuses(t *testing.T) {
	s := New(testCatalog(t))
	s.Start()
	s.GoTo("three")

	statuses := s.Statuses()
	if statuses[0] != domain.StepCompleted || statuses[1] != domain.StepCompleted {
		t.Errorf("steps before cursor = %v, want completed", statuses[:2])
	}
	if statuses[2] != domain.StepInProgress {
		t.Errorf("cursor step status = %q, want in_progress", statuses[2])
	}
}

func TestSkipMarksSkippedAndAdvances(t *testing.T) {
	s := New(testCatalog(t))
	s.Start()

	tr := s.Skip()
	if !tr.Moved || s.Cursor() != "two" {
		t.Fatalf("Skip moved=%v cursor=%q", tr.Moved, s.Cursor())
	}
	if got := s.Statuses()[0]; got != domain.StepSkipped {
		t.Errorf("skipped step status = %q", got)
	}
}

func TestSkipFromIdleNoOp(t *testing.T) {
	s := New(testCatalog(t))
	if tr := s.Skip(); tr.Moved {
		t.Error("Skip() from idle should be a no-op")
	}
}

func TestAtMostOneInProgress(t *testing.T) {
	s := New(testCatalog(t))
	s.Start()
	s.Next()
	s.GoTo("one")
	s.GoTo("three")

	inProgress := 0
	for _, st := range s.Statuses() {
		if st == domain.StepInProgress {
			inProgress++
		}
	}
	if inProgress != 1 {
		t.Errorf("in-progress steps = %d, want 1", inProgress)
	}
}

func TestRestoreUnknownCursorFallsBackToIdle(t *testing.T) {
	s := New(testCatalog(t))
	s.Restore("removed_step", false)
	if s.Cursor() != domain.CursorIdle {
		t.Errorf("cursor = %q, want idle for stale persisted cursor", s.Cursor())
	}
}

func TestRestoreCompleteForcesIdle(t *testing.T) {
	s := New(testCatalog(t))
	s.Restore("two", true)
	if s.Cursor() != domain.CursorIdle {
		t.Errorf("cursor = %q, want idle once complete", s.Cursor())
	}
	if !s.Complete() {
		t.Error("Complete() = false after restoring complete flag")
	}
}

func TestAutoAdvanceDelayOnlyForDeclaredSteps(t *testing.T) {
	s := New(testCatalog(t))
	s.Start()
	if _, ok := s.AutoAdvanceDelay(); ok {
		t.Error("step one declares no delay")
	}
	s.Next()
	step, ok := s.AutoAdvanceDelay()
	if !ok {
		t.Fatal("step two declares a delay")
	}
	if d, _ := step.AutoAdvance(); d.Milliseconds() != 500 {
		t.Errorf("delay = %v, want 500ms", d)
	}
}

func TestNewCatalogRejectsDuplicatesAndReservedTags(t *testing.T) {
	if _, err := NewCatalog("dup", []domain.Step{{Tag: "a"}, {Tag: "a"}}); err == nil {
		t.Error("duplicate tags should be rejected")
	}
	if _, err := NewCatalog("reserved", []domain.Step{{Tag: domain.CursorComplete}}); err == nil {
		t.Error("reserved tag should be rejected")
	}
	if _, err := NewCatalog("empty", nil); err == nil {
		t.Error("empty catalog should be rejected")
	}
}

func TestBuiltinCatalogs(t *testing.T) {
	if got := Tutorial().Len(); got != 26 {
		t.Errorf("tutorial catalog has %d steps, want 26", got)
	}
	if got := DailySession().Len(); got != 4 {
		t.Errorf("daily session catalog has %d steps, want 4", got)
	}

	// Paywall is the final tutorial step.
	last, _ := Tutorial().At(25)
	if last.Tag != TutPaywall {
		t.Errorf("final tutorial step = %q, want %q", last.Tag, TutPaywall)
	}
}
