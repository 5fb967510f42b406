package domain

import "time"

// TutorialProgress is the durable onboarding state for one device: the
// persisted cursor plus the completion flag. Once Completed is set the
// cursor is forced back to idle and stays there.
type TutorialProgress struct {
	UserID    string    `json:"user_id"`
	Cursor    StepTag   `json:"cursor"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the tutorial overlay should currently be shown.
func (p *TutorialProgress) Active() bool {
	return !p.Completed && p.Cursor != CursorIdle
}
