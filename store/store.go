// Package store persists processes, parties and their satellite records in
// SQLite. The write path is get-or-create by natural key: existing rows are
// never overwritten by re-ingestion, and uniqueness violations raced in by
// concurrent writers are absorbed by re-reading the winner.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// Schema holds every table the pipeline and its API surface rely on.
// Applied on Open; all statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS processes (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	process_number  TEXT NOT NULL UNIQUE,
	process_class   TEXT NOT NULL,
	subject         TEXT NOT NULL,
	judge           TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS parties (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	process_id  INTEGER NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	document    TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	UNIQUE (process_id, name, document)
);
CREATE INDEX IF NOT EXISTS idx_parties_process ON parties(process_id);

CREATE TABLE IF NOT EXISTS party_contacts (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	party_id      INTEGER NOT NULL REFERENCES parties(id) ON DELETE CASCADE,
	contact_type  TEXT NOT NULL CHECK (contact_type IN ('EMAIL', 'PHONE')),
	value         TEXT NOT NULL,
	is_primary    INTEGER NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_contacts_party ON party_contacts(party_id);

CREATE TABLE IF NOT EXISTS snapshots (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	process_id  INTEGER NOT NULL REFERENCES processes(id) ON DELETE CASCADE,
	source      TEXT NOT NULL,
	sha256      TEXT NOT NULL,
	html        TEXT NOT NULL,
	markdown    TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	UNIQUE (process_id, sha256)
);

CREATE TABLE IF NOT EXISTS users (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	email          TEXT NOT NULL UNIQUE,
	name           TEXT NOT NULL DEFAULT '',
	password_hash  TEXT NOT NULL,
	role           TEXT NOT NULL DEFAULT 'admin',
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id           TEXT PRIMARY KEY,
	root         TEXT NOT NULL,
	started_at   TEXT NOT NULL,
	finished_at  TEXT,
	processed    INTEGER NOT NULL DEFAULT 0,
	created      INTEGER NOT NULL DEFAULT 0,
	skipped      INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS ingest_files (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id          TEXT NOT NULL,
	path            TEXT NOT NULL,
	status          TEXT NOT NULL,
	process_number  TEXT NOT NULL DEFAULT '',
	detail          TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ingest_files_run ON ingest_files(run_id);
`

// Store wraps the SQLite database behind the ingestion pipeline and API.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option customises Open behaviour.
type Option func(*openConfig)

type openConfig struct {
	logger      *slog.Logger
	busyTimeout int
	mkdirAll    bool
}

// WithLogger sets the store's logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option { return func(c *openConfig) { c.logger = l } }

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *openConfig) { c.busyTimeout = ms } }

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() Option { return func(c *openConfig) { c.mkdirAll = true } }

// Open opens (or creates) the SQLite database at path, applies the
// production pragmas and runs the schema.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := openConfig{logger: slog.Default(), busyTimeout: 10_000}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &Store{db: db, logger: cfg.logger}, nil
}

// OpenMemory opens an in-memory store for testing. MaxOpenConns(1) keeps
// every query on the same connection (each ":memory:" connection is a
// separate database). Closed automatically via t.Cleanup.
func OpenMemory(t testing.TB, opts ...Option) *Store {
	t.Helper()
	s, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("store.OpenMemory: %v", err)
	}
	s.db.SetMaxOpenConns(1)
	t.Cleanup(func() { s.Close() })
	return s
}

// DB returns the underlying *sql.DB for sharing with the run log writer.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }
