// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/godlykids/journey/internal/domain"
)

// ErrInsufficientFunds is returned by AppendLedgerEntry when applying the
// entry would drive the balance negative. Callers translate it into a
// declined spend, never a 5xx.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Repository defines the interface for persisting device profiles,
// guided-flow state, the coin ledger and preferences.
type Repository interface {
	// GetUser retrieves a device profile by user ID. Returns nil when absent.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a device profile.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// GetDailySession reads the persisted daily session record for a user.
	// Returns nil for both an absent and an unreadable (corrupt) record.
	GetDailySession(ctx context.Context, userID string) (*domain.SessionRecord, error)

	// SaveDailySession persists the record, overwriting any existing one.
	SaveDailySession(ctx context.Context, userID string, record *domain.SessionRecord) error

	// DeleteDailySession removes the persisted record.
	DeleteDailySession(ctx context.Context, userID string) error

	// DeleteStaleSessions removes session records not created on the given
	// calendar day (layout domain.SessionDateLayout). Returns rows deleted.
	DeleteStaleSessions(ctx context.Context, today string) (int64, error)

	// GetTutorialProgress reads the tutorial cursor and complete flag.
	// Returns nil when the user has no stored progress yet.
	GetTutorialProgress(ctx context.Context, userID string) (*domain.TutorialProgress, error)

	// SaveTutorialProgress persists the tutorial cursor and complete flag.
	SaveTutorialProgress(ctx context.Context, progress *domain.TutorialProgress) error

	// AppendLedgerEntry appends a ledger entry, computing the running
	// balance atomically. Returns ErrInsufficientFunds when the entry
	// would drive the balance below zero.
	AppendLedgerEntry(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error)

	// LedgerBalance returns the current coin balance for a user.
	LedgerBalance(ctx context.Context, userID string) (int64, error)

	// LedgerHistory returns the most recent ledger entries, newest first.
	LedgerHistory(ctx context.Context, userID string, limit int) ([]*domain.LedgerEntry, error)

	// GetPref reads one preference value. ok is false when the key is absent.
	GetPref(ctx context.Context, userID, key string) (value string, ok bool, err error)

	// SetPref writes one preference value.
	SetPref(ctx context.Context, userID, key, value string) error

	// AllPrefs returns every preference for a user.
	AllPrefs(ctx context.Context, userID string) (map[string]string, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
