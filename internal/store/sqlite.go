package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/atlassify/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db        *sqlx.DB
	namespace string
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// An in-memory database exists per connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, namespace: Namespace}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// storedState mirrors State with a raw settings object so that partial
// settings can be merged over defaults.
type storedState struct {
	Auth     *model.AuthState `json:"auth,omitempty"`
	Settings json.RawMessage  `json:"settings,omitempty"`
}

// LoadState reads the state blob. A missing blob yields default settings
// and no accounts.
func (s *SQLiteStore) LoadState(ctx context.Context) (State, error) {
	state := State{Settings: model.DefaultSettings()}

	var raw string
	err := s.db.GetContext(ctx, &raw, "SELECT value FROM kv_store WHERE namespace = ?", s.namespace)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("loading state %s: %w", s.namespace, err)
	}

	var stored storedState
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return state, fmt.Errorf("decoding state %s: %w", s.namespace, err)
	}

	if stored.Auth != nil {
		state.Auth = *stored.Auth
	}
	settings, err := model.MergeSettings(stored.Settings)
	if err != nil {
		return state, err
	}
	state.Settings = settings

	return state, nil
}

// SaveState replaces the state blob.
func (s *SQLiteStore) SaveState(ctx context.Context, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO kv_store (namespace, value, updated_at)
		VALUES (?, ?, ?)`,
		s.namespace, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving state %s: %w", s.namespace, err)
	}

	return nil
}

// ClearState deletes the state blob.
func (s *SQLiteStore) ClearState(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv_store WHERE namespace = ?", s.namespace)
	if err != nil {
		return fmt.Errorf("clearing state %s: %w", s.namespace, err)
	}
	return nil
}

// SaveRaw stores a raw blob under the namespace, as written by another
// install or version. LoadState merges it over the defaults.
func (s *SQLiteStore) SaveRaw(ctx context.Context, raw []byte) error {
	if !json.Valid(raw) {
		return fmt.Errorf("saving state %s: invalid JSON", s.namespace)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO kv_store (namespace, value, updated_at)
		VALUES (?, ?, ?)`,
		s.namespace, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving state %s: %w", s.namespace, err)
	}
	return nil
}
