package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gridrival/podium/internal/domain"
	"github.com/gridrival/podium/internal/ports"
)

// Compile-time verification that SQLiteStore implements StateStore.
var _ ports.StateStore = (*SQLiteStore)(nil)

// SQLiteStore persists the engine state as a single JSON document row in
// a SQLite database. Each save replaces the row transactionally, which
// gives the same crash-atomicity as the file store's rename, and records
// a revision id and timestamp for operational inspection.
type SQLiteStore struct {
	db *sql.DB
}

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS engine_snapshot (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	revision TEXT NOT NULL,
	saved_at TEXT NOT NULL,
	state    BLOB NOT NULL
);`

// NewSQLiteStore opens (creating if necessary) a SQLite database at the
// given path and ensures the snapshot schema exists. Call Close when the
// store is no longer needed.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path must not be empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	// A single writer matches the engine's serialized mutation model.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, snapshotSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize snapshot schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load reads the last saved snapshot. An empty database yields the empty
// default state.
func (s *SQLiteStore) Load(ctx context.Context) (domain.EngineState, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM engine_snapshot WHERE id = 1`).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewEngineState(), nil
	}
	if err != nil {
		return domain.EngineState{}, fmt.Errorf("read snapshot row: %w", err)
	}

	var state domain.EngineState
	if err := json.Unmarshal(blob, &state); err != nil {
		return domain.EngineState{}, fmt.Errorf("decode snapshot: %w: %v", ports.ErrCorruptSnapshot, err)
	}
	state.Normalize()
	return state, nil
}

// Save replaces the snapshot row inside a transaction with a fresh
// revision id.
func (s *SQLiteStore) Save(ctx context.Context, state domain.EngineState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO engine_snapshot (id, revision, saved_at, state)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			revision = excluded.revision,
			saved_at = excluded.saved_at,
			state    = excluded.state`,
		uuid.NewString(), time.Now().UTC().Format(time.RFC3339Nano), blob)
	if err != nil {
		return fmt.Errorf("write snapshot row: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Revision returns the revision id and timestamp of the stored snapshot,
// or ok=false when nothing has been saved yet.
func (s *SQLiteStore) Revision(ctx context.Context) (revision string, savedAt time.Time, ok bool, err error) {
	var at string
	err = s.db.QueryRowContext(ctx,
		`SELECT revision, saved_at FROM engine_snapshot WHERE id = 1`).Scan(&revision, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("read snapshot revision: %w", err)
	}
	savedAt, err = time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("parse snapshot timestamp: %w", err)
	}
	return revision, savedAt, true, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
