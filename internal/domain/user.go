package domain

import (
	"time"
)

// User represents an anonymous device profile. All guided-flow state,
// preferences and the coin wallet hang off this row.
type User struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
