// Package domain contains core domain types for the GodlyKids journey server.
package domain

import "time"

// StepTag identifies one named stage of a guided flow (tutorial or daily session).
type StepTag string

// Sentinel cursor values that live outside any step catalog.
const (
	CursorIdle     StepTag = ""
	CursorComplete StepTag = "complete"
)

// StepStatus is the runtime state of a single step within a flow instance.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in_progress"
	StepCompleted  StepStatus = "completed"
	StepSkipped    StepStatus = "skipped"
)

// Terminal reports whether the status can no longer change.
func (s StepStatus) Terminal() bool {
	return s == StepCompleted || s == StepSkipped
}

// Step is immutable configuration for one stage of a guided flow.
// Steps carry display metadata only; runtime state lives in the
// flow's record, never here.
type Step struct {
	Tag           StepTag `json:"tag" yaml:"tag"`
	Title         string  `json:"title" yaml:"title"`
	Description   string  `json:"description,omitempty" yaml:"description,omitempty"`
	Target        string  `json:"target,omitempty" yaml:"target,omitempty"`
	AutoAdvanceMS int     `json:"auto_advance_ms,omitempty" yaml:"auto_advance_ms,omitempty"`
	RequiresClick bool    `json:"requires_click,omitempty" yaml:"requires_click,omitempty"`
	DefaultReward int     `json:"default_reward,omitempty" yaml:"default_reward,omitempty"`
}

// AutoAdvance returns the auto-advance delay for the step, if it declares one.
func (s Step) AutoAdvance() (time.Duration, bool) {
	if s.AutoAdvanceMS <= 0 {
		return 0, false
	}
	return time.Duration(s.AutoAdvanceMS) * time.Millisecond, true
}
