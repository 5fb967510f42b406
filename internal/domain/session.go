package domain

import "time"

// SessionDateLayout is the calendar-day format stored with a session record.
// A record whose date does not match today's is stale and gets replaced.
const SessionDateLayout = "2006-01-02"

// SessionStep is one (step, status, content, reward) tuple of a daily session.
type SessionStep struct {
	Tag          StepTag    `json:"tag"`
	Title        string     `json:"title"`
	Status       StepStatus `json:"status"`
	ContentID    string     `json:"content_id,omitempty"`
	ContentTitle string     `json:"content_title,omitempty"`
	Reward       int        `json:"reward"`
}

// SessionRecord is the persisted aggregate for one daily learning session.
// It is owned exclusively by one device profile and mirrored to storage
// after every mutation.
type SessionRecord struct {
	ID          string        `json:"id"`
	Topics      []string      `json:"topics"`
	Steps       []SessionStep `json:"steps"`
	Cursor      int           `json:"cursor"`
	Completed   bool          `json:"completed"`
	CreatedDate string        `json:"created_date"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// CurrentStep returns the step under the cursor, or nil if the cursor is
// past the end of the sequence.
func (r *SessionRecord) CurrentStep() *SessionStep {
	if r.Cursor < 0 || r.Cursor >= len(r.Steps) {
		return nil
	}
	return &r.Steps[r.Cursor]
}

// HasProgress reports whether any step has been started or completed.
// Skips alone do not count: a record with nothing but skipped steps is
// safe to discard on exit.
func (r *SessionRecord) HasProgress() bool {
	for _, s := range r.Steps {
		if s.Status == StepInProgress || s.Status == StepCompleted {
			return true
		}
	}
	return false
}

// TotalReward sums the rewards recorded against completed steps.
func (r *SessionRecord) TotalReward() int {
	total := 0
	for _, s := range r.Steps {
		total += s.Reward
	}
	return total
}

// CreatedOn reports whether the record was created on the given calendar day.
func (r *SessionRecord) CreatedOn(day time.Time) bool {
	return r.CreatedDate == day.Format(SessionDateLayout)
}
