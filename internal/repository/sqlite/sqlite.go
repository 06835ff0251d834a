// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite. No CGo, no C compiler, and the
// whole store is a single file (or ":memory:" in tests).
//
// LAYOUT:
// DB owns the connection pool and the schema. Each table gets a small store
// type (UserStore, PlatformStore, ...) reached through an accessor such as
// db.Users(). The stores share the pool, so they're cheap to create.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool.
type DB struct {
	conn *sql.DB
}

// New opens the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/socialsync.db"  → file-based database (persistent)
//   - ":memory:"            → in-memory database (tests; lost on close)
//
// PER-CONNECTION PRAGMAS:
// foreign_keys and busy_timeout are per-connection settings in SQLite. A plain
// conn.Exec("PRAGMA ...") would only configure whichever pooled connection ran
// it, so they go into the DSN via _pragma and every new connection gets them.
// _time_format=sqlite stores times as sortable text, which the ORDER BY and
// token_expiry comparisons rely on.
func New(dbPath string) (*DB, error) {
	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate, empty database. Pinning
	// the pool to one connection makes the request handlers and the
	// background sync goroutine share the same data.
	if strings.Contains(dbPath, ":memory:") {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets the status poller read while the sync loop writes.
	// journal_mode is persistent for file databases, so once is enough.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database still answers.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Users returns the users table store.
func (db *DB) Users() *UserStore { return &UserStore{conn: db.conn} }

// Platforms returns the platform catalog store.
func (db *DB) Platforms() *PlatformStore { return &PlatformStore{conn: db.conn} }

// Connections returns the platform_connections store.
func (db *DB) Connections() *ConnectionStore { return &ConnectionStore{conn: db.conn} }

// Following returns the following store.
func (db *DB) Following() *FollowingStore { return &FollowingStore{conn: db.conn} }

// SyncHistory returns the sync_history store.
func (db *DB) SyncHistory() *SyncHistoryStore { return &SyncHistoryStore{conn: db.conn} }

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			username   TEXT NOT NULL UNIQUE COLLATE NOCASE,
			email      TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password   TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS platforms (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			name    TEXT NOT NULL,
			code    TEXT NOT NULL UNIQUE,
			icon    TEXT NOT NULL,
			color   TEXT NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1
		);
	`)
	if err != nil {
		return fmt.Errorf("creating platforms table: %w", err)
	}

	// The UNIQUE index enforces "at most one connection per (user, platform)".
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS platform_connections (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id           INTEGER NOT NULL REFERENCES users(id),
			platform_id       INTEGER NOT NULL REFERENCES platforms(id),
			connected         INTEGER NOT NULL DEFAULT 0,
			access_token      TEXT,
			refresh_token     TEXT,
			token_expiry      DATETIME,
			platform_username TEXT,
			last_synced       DATETIME,
			status            TEXT NOT NULL DEFAULT 'not_connected'
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_connections_user_platform
			ON platform_connections(user_id, platform_id);
	`)
	if err != nil {
		return fmt.Errorf("creating platform_connections table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS following (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id             INTEGER NOT NULL REFERENCES users(id),
			platform_id         INTEGER NOT NULL REFERENCES platforms(id),
			username            TEXT NOT NULL,
			display_name        TEXT,
			profile_picture_url TEXT,
			platform_user_id    TEXT,
			platform_data       TEXT,
			created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_following_user_platform
			ON following(user_id, platform_id);
	`)
	if err != nil {
		return fmt.Errorf("creating following table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS sync_history (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id         INTEGER NOT NULL REFERENCES users(id),
			platform_id     INTEGER NOT NULL REFERENCES platforms(id),
			status          TEXT NOT NULL DEFAULT 'in_progress',
			total_items     INTEGER NOT NULL DEFAULT 0,
			items_processed INTEGER NOT NULL DEFAULT 0,
			start_time      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			end_time        DATETIME,
			error           TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_sync_history_user ON sync_history(user_id, start_time);
	`)
	if err != nil {
		return fmt.Errorf("creating sync_history table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
// The driver doesn't export a typed constraint error we can match portably,
// so we match the SQLite message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound converts sql.ErrNoRows into the caller-supplied error and wraps
// everything else with context.
func notFound(err error, ifMissing error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ifMissing
	}
	return fmt.Errorf("sqlite: "+format+": %w", append(args, err)...)
}

// Nullable column helpers.

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
