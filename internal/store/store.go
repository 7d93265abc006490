// Package store persists resolved quote windows in a local SQLite
// database so repeat playback skips subtitle fetching and alignment.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"quoteclip/internal/playback"
	"quoteclip/internal/textnorm"
)

const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an
// incompatible version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS windows (
    media_key  TEXT NOT NULL,
    quote_norm TEXT NOT NULL,
    quote      TEXT NOT NULL,
    start_ms   INTEGER NOT NULL,
    end_ms     INTEGER NOT NULL,
    score      REAL NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (media_key, quote_norm)
);

CREATE INDEX IF NOT EXISTS idx_windows_media ON windows(media_key);
`

// Window is one cached alignment result. Times are raw entry times,
// without guard padding.
type Window struct {
	MediaKey  string
	Quote     string
	Start     time.Duration
	End       time.Duration
	Score     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store wraps the SQLite window cache. Safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

var _ playback.WindowStore = (*Store)(nil)

// Open connects to the database at path, creating the file and schema
// on first use.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Path reports the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) initSchema() error {
	var hasVersionTable bool
	err := s.db.QueryRow(
		`SELECT COUNT(*) > 0 FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`,
	).Scan(&hasVersionTable)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}

	if hasVersionTable {
		var version int
		if err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version); err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		if version != schemaVersion {
			return fmt.Errorf("%w: database has version %d, expected %d (delete %s to rebuild the cache)",
				ErrSchemaMismatch, version, schemaVersion, s.path)
		}
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Put inserts or updates the cached window for (MediaKey, Quote).
// Quotes are keyed by their normalized form, so punctuation and casing
// variants of the same line share one row.
func (s *Store) Put(ctx context.Context, w Window) error {
	quoteNorm := textnorm.Normalize(w.Quote)
	if w.MediaKey == "" || quoteNorm == "" {
		return errors.New("media key and quote are required")
	}
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO windows (media_key, quote_norm, quote, start_ms, end_ms, score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(media_key, quote_norm) DO UPDATE SET
			quote = excluded.quote,
			start_ms = excluded.start_ms,
			end_ms = excluded.end_ms,
			score = excluded.score,
			updated_at = excluded.updated_at`,
		w.MediaKey, quoteNorm, w.Quote, w.Start.Milliseconds(), w.End.Milliseconds(), w.Score, now, now)
	if err != nil {
		return fmt.Errorf("save window: %w", err)
	}
	return nil
}

// Get returns the cached window for the media and quote, or nil when
// nothing is cached.
func (s *Store) Get(ctx context.Context, mediaKey, quote string) (*Window, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT media_key, quote, start_ms, end_ms, score, created_at, updated_at
		FROM windows WHERE media_key = ? AND quote_norm = ?`,
		mediaKey, textnorm.Normalize(quote))

	var (
		w         Window
		startMs   int64
		endMs     int64
		createdAt string
		updatedAt string
	)
	err := row.Scan(&w.MediaKey, &w.Quote, &startMs, &endMs, &w.Score, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan window: %w", err)
	}
	w.Start = time.Duration(startMs) * time.Millisecond
	w.End = time.Duration(endMs) * time.Millisecond
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	w.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &w, nil
}

// List returns cached windows ordered by media key then quote. An
// empty mediaKey lists every media.
func (s *Store) List(ctx context.Context, mediaKey string) ([]*Window, error) {
	query := `
		SELECT media_key, quote, start_ms, end_ms, score, created_at, updated_at
		FROM windows`
	var args []any
	if mediaKey != "" {
		query += ` WHERE media_key = ?`
		args = append(args, mediaKey)
	}
	query += ` ORDER BY media_key, quote_norm`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	defer rows.Close()

	var windows []*Window
	for rows.Next() {
		var (
			w         Window
			startMs   int64
			endMs     int64
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&w.MediaKey, &w.Quote, &startMs, &endMs, &w.Score, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		w.Start = time.Duration(startMs) * time.Millisecond
		w.End = time.Duration(endMs) * time.Millisecond
		w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		w.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		windows = append(windows, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	return windows, nil
}

// Count reports how many windows are cached.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM windows`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count windows: %w", err)
	}
	return n, nil
}

// Delete removes one cached window, reporting whether a row existed.
func (s *Store) Delete(ctx context.Context, mediaKey, quote string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM windows WHERE media_key = ? AND quote_norm = ?`,
		mediaKey, textnorm.Normalize(quote))
	if err != nil {
		return false, fmt.Errorf("delete window: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete window: %w", err)
	}
	return n > 0, nil
}

// Clear removes every cached window and reports how many were dropped.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM windows`)
	if err != nil {
		return 0, fmt.Errorf("clear windows: %w", err)
	}
	return res.RowsAffected()
}

// CachedWindow implements the playback window cache contract.
func (s *Store) CachedWindow(ctx context.Context, mediaKey, quote string) (time.Duration, time.Duration, bool, error) {
	w, err := s.Get(ctx, mediaKey, quote)
	if err != nil || w == nil {
		return 0, 0, false, err
	}
	return w.Start, w.End, true, nil
}

// SaveWindow implements the playback window cache contract.
func (s *Store) SaveWindow(ctx context.Context, mediaKey, quote string, start, end time.Duration, score float64) error {
	return s.Put(ctx, Window{MediaKey: mediaKey, Quote: quote, Start: start, End: end, Score: score})
}
