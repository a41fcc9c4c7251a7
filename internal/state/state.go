// Package state persists the small amount of local state the CLI keeps
// between runs, most importantly the event-stream cursor that lets
// "pcloud events" resume where the previous invocation stopped.
//
// The backing store is an embedded SQLite database. One database serves
// all accounts: cursors are keyed by API host and user ID, so switching
// regions or accounts never replays or skips someone else's events.
package state

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// dirPerms is the mode for the state directory when it has to be created.
const dirPerms = 0o700

// Store is the on-disk cursor store. It is the sole writer to its
// database file; open one Store per process.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	nowFunc func() time.Time // injectable for deterministic tests
}

// Open opens the state database at dbPath, creating the file and its
// parent directory if needed, and applies any pending schema migrations.
// Use ":memory:" in tests.
func Open(dbPath string, logger *slog.Logger) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), dirPerms); err != nil {
			return nil, fmt.Errorf("state: creating state directory: %w", err)
		}
	}

	// DSN parameters ensure pragmas apply to every connection from the pool.
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)&_pragma=busy_timeout(5000)",
		dbPath,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("state: opening database %s: %w", dbPath, err)
	}

	// Sole-writer pattern: one connection, writes serialized.
	db.SetMaxOpenConns(1)

	if err := runMigrations(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("state database ready", slog.String("path", dbPath))

	return &Store{db: db, logger: logger, nowFunc: time.Now}, nil
}

// runMigrations applies embedded SQL migrations through the goose v3
// provider API (no global state, context-aware).
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	// Strip the "migrations/" prefix so goose sees files at the root of the FS.
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("state: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("state: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("state: applying migrations: %w", err)
	}

	for _, r := range results {
		logger.Debug("applied migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()))
	}

	return nil
}

const (
	sqlGetCursor = `SELECT diff_id FROM diff_cursors WHERE host = ? AND user_id = ?`

	sqlSaveCursor = `INSERT INTO diff_cursors (host, user_id, diff_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(host, user_id) DO UPDATE SET
		 diff_id = excluded.diff_id,
		 updated_at = excluded.updated_at`

	sqlDeleteCursor = `DELETE FROM diff_cursors WHERE host = ? AND user_id = ?`
)

// Cursor returns the stored diff cursor for the given host and user.
// The second return is false when no cursor has been saved yet.
func (s *Store) Cursor(ctx context.Context, host string, userID int64) (int64, bool, error) {
	var diffID int64

	err := s.db.QueryRowContext(ctx, sqlGetCursor, host, userID).Scan(&diffID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}

	if err != nil {
		return 0, false, fmt.Errorf("state: reading cursor: %w", err)
	}

	return diffID, true, nil
}

// SaveCursor records diffID as the resume point for the given host and
// user, replacing any earlier cursor.
func (s *Store) SaveCursor(ctx context.Context, host string, userID, diffID int64) error {
	if _, err := s.db.ExecContext(ctx, sqlSaveCursor, host, userID, diffID, s.nowFunc().Unix()); err != nil {
		return fmt.Errorf("state: saving cursor: %w", err)
	}

	return nil
}

// ResetCursor removes the stored cursor so the next run starts from the
// account's current state instead of resuming.
func (s *Store) ResetCursor(ctx context.Context, host string, userID int64) error {
	if _, err := s.db.ExecContext(ctx, sqlDeleteCursor, host, userID); err != nil {
		return fmt.Errorf("state: resetting cursor: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
