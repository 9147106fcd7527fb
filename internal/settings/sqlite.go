package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hoppxi/luxflex/internal/dimmer"
)

// SQLiteStore appends every saved state, so the history of changes is kept.
type SQLiteStore struct {
	db   *sql.DB
	keep int
}

// DefaultHistory is how many states the sqlite store retains.
const DefaultHistory = 500

// Entry is one saved state.
type Entry struct {
	ID      string
	State   dimmer.State
	SavedAt time.Time
}

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:"
// for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS dimmer_states (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		brightness INTEGER NOT NULL,
		overlay_alpha INTEGER NOT NULL,
		overlay_enabled INTEGER NOT NULL,
		saved_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_saved_at ON dimmer_states(saved_at);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, keep: DefaultHistory}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, st dimmer.State) error {
	query := `INSERT INTO dimmer_states (id, brightness, overlay_alpha, overlay_enabled, saved_at) VALUES (?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(), st.Brightness, st.OverlayAlpha, boolToInt(st.OverlayEnabled), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert state: %w", err)
	}

	if s.keep > 0 {
		return s.Prune(ctx, s.keep)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*dimmer.State, error) {
	entries, err := s.History(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	st := entries[0].State
	return &st, nil
}

// History returns up to limit entries, newest first.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, brightness, overlay_alpha, overlay_enabled, saved_at
		FROM dimmer_states
		ORDER BY seq DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query states: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			enabled int
			savedAt int64
		)
		if err := rows.Scan(&e.ID, &e.State.Brightness, &e.State.OverlayAlpha, &enabled, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan state: %w", err)
		}
		e.State.OverlayEnabled = enabled != 0
		e.SavedAt = time.Unix(0, savedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read states: %w", err)
	}

	return entries, nil
}

// Prune keeps the newest keep entries.
func (s *SQLiteStore) Prune(ctx context.Context, keep int) error {
	query := `DELETE FROM dimmer_states WHERE seq NOT IN (SELECT seq FROM dimmer_states ORDER BY seq DESC LIMIT ?)`
	if _, err := s.db.ExecContext(ctx, query, keep); err != nil {
		return fmt.Errorf("failed to prune states: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
