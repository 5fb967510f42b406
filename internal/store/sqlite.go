package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/godlykids/journey/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	sessionMu sync.Mutex // serializes session-record writes to prevent SQLITE_BUSY
	ledgerMu  sync.Mutex // serializes ledger appends so the balance check stays atomic
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_sessions (
		user_id TEXT PRIMARY KEY,
		record_json TEXT NOT NULL,
		created_date TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_daily_sessions_date ON daily_sessions(created_date);

	CREATE TABLE IF NOT EXISTS tutorial_progress (
		user_id TEXT PRIMARY KEY,
		cursor TEXT NOT NULL DEFAULT '',
		completed INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		reason TEXT NOT NULL,
		balance_after INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ledger_user ON ledger_entries(user_id, created_at);

	CREATE TABLE IF NOT EXISTS prefs (
		user_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (user_id, key)
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetUser retrieves a device profile by user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, username, last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.User
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(&user.UserID, &user.Username, &lastSeen, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a device profile.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, username, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		username = excluded.username,
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Username, user.LastSeenAt.Unix(),
		user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}

	return nil
}

// GetDailySession reads the persisted daily session record for a user.
// A record that fails to deserialize is treated as absent, never as an
// error that could break the flow.
func (s *SQLiteStore) GetDailySession(ctx context.Context, userID string) (*domain.SessionRecord, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	query := `SELECT record_json FROM daily_sessions WHERE user_id = ?`
	row := s.db.QueryRowContext(ctx, query, userID)

	var recordJSON string
	err := row.Scan(&recordJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan daily session: %w", err)
	}

	var record domain.SessionRecord
	if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
		slog.Warn("Corrupt daily session record, treating as absent", "user_id", userID, "error", err)
		return nil, nil
	}
	return &record, nil
}

// SaveDailySession persists the record, overwriting any existing one.
func (s *SQLiteStore) SaveDailySession(ctx context.Context, userID string, record *domain.SessionRecord) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal daily session: %w", err)
	}

	completed := 0
	if record.Completed {
		completed = 1
	}

	query := `
	INSERT INTO daily_sessions (user_id, record_json, created_date, completed, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		record_json = excluded.record_json,
		created_date = excluded.created_date,
		completed = excluded.completed,
		updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		userID, string(recordJSON), record.CreatedDate, completed, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save daily session: %w", err)
	}
	return nil
}

// DeleteDailySession removes the persisted record.
func (s *SQLiteStore) DeleteDailySession(ctx context.Context, userID string) error {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM daily_sessions WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete daily session: %w", err)
	}
	return nil
}

// DeleteStaleSessions removes session records not created today.
func (s *SQLiteStore) DeleteStaleSessions(ctx context.Context, today string) (int64, error) {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM daily_sessions WHERE created_date <> ?`, today)
	if err != nil {
		return 0, fmt.Errorf("delete stale sessions: %w", err)
	}
	return result.RowsAffected()
}

// GetTutorialProgress reads the tutorial cursor and complete flag.
func (s *SQLiteStore) GetTutorialProgress(ctx context.Context, userID string) (*domain.TutorialProgress, error) {
	query := `SELECT user_id, cursor, completed, updated_at FROM tutorial_progress WHERE user_id = ?`
	row := s.db.QueryRowContext(ctx, query, userID)

	var progress domain.TutorialProgress
	var cursor string
	var completed int
	var updatedAt int64

	err := row.Scan(&progress.UserID, &cursor, &completed, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan tutorial progress: %w", err)
	}

	progress.Cursor = domain.StepTag(cursor)
	progress.Completed = completed != 0
	progress.UpdatedAt = time.Unix(updatedAt, 0)
	return &progress, nil
}

// SaveTutorialProgress persists the tutorial cursor and complete flag.
func (s *SQLiteStore) SaveTutorialProgress(ctx context.Context, progress *domain.TutorialProgress) error {
	completed := 0
	if progress.Completed {
		completed = 1
	}

	query := `
	INSERT INTO tutorial_progress (user_id, cursor, completed, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		cursor = excluded.cursor,
		completed = excluded.completed,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		progress.UserID, string(progress.Cursor), completed, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save tutorial progress: %w", err)
	}
	return nil
}

// AppendLedgerEntry appends a ledger entry inside a transaction, computing
// the running balance from the existing entries so the stored balance
// always equals the sum of all amounts.
func (s *SQLiteStore) AppendLedgerEntry(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	s.ledgerMu.Lock()
	defer s.ledgerMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && rollbackErr != sql.ErrTxDone {
			slog.Warn("Ledger tx rollback failed", "error", rollbackErr)
		}
	}()

	var balance int64
	row := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE user_id = ?`, entry.UserID)
	if err := row.Scan(&balance); err != nil {
		return nil, fmt.Errorf("sum ledger balance: %w", err)
	}

	newBalance := balance + entry.Amount
	if newBalance < 0 {
		return nil, ErrInsufficientFunds
	}

	stored := *entry
	stored.Balance = newBalance
	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (id, user_id, amount, reason, balance_after, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		stored.ID, stored.UserID, stored.Amount, stored.Reason, stored.Balance, stored.CreatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ledger tx: %w", err)
	}
	return &stored, nil
}

// LedgerBalance returns the current coin balance for a user.
func (s *SQLiteStore) LedgerBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE user_id = ?`, userID)
	if err := row.Scan(&balance); err != nil {
		return 0, fmt.Errorf("sum ledger balance: %w", err)
	}
	return balance, nil
}

// LedgerHistory returns the most recent ledger entries, newest first.
func (s *SQLiteStore) LedgerHistory(ctx context.Context, userID string, limit int) ([]*domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, amount, reason, balance_after, created_at
		FROM ledger_entries WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close ledger history rows", "error", closeErr)
		}
	}()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		var entry domain.LedgerEntry
		var createdAt int64
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Amount, &entry.Reason, &entry.Balance, &createdAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entry.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger history: %w", err)
	}
	return entries, nil
}

// GetPref reads one preference value.
func (s *SQLiteStore) GetPref(ctx context.Context, userID, key string) (string, bool, error) {
	var value string
	row := s.db.QueryRowContext(ctx, `SELECT value FROM prefs WHERE user_id = ? AND key = ?`, userID, key)
	err := row.Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("scan pref: %w", err)
	}
	return value, true, nil
}

// SetPref writes one preference value.
func (s *SQLiteStore) SetPref(ctx context.Context, userID, key, value string) error {
	query := `
	INSERT INTO prefs (user_id, key, value, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id, key) DO UPDATE SET
		value = excluded.value,
		updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, userID, key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("set pref: %w", err)
	}
	return nil
}

// AllPrefs returns every preference for a user.
func (s *SQLiteStore) AllPrefs(ctx context.Context, userID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM prefs WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query prefs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close prefs rows", "error", closeErr)
		}
	}()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan pref row: %w", err)
		}
		prefs[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prefs: %w", err)
	}
	return prefs, nil
}
