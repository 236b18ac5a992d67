// Package sqlite implements core.StyleStore on a single SQLite database
// file. Styles are stored as JSON blobs keyed by ID; the schema is created
// on Initialize. Use it when styles should travel as one file or be shared
// between processes without watching a directory.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aretw0/atlas/pkg/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS styles (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_styles_updated_at ON styles (updated_at);
`

// Config holds the configuration for the SQLite store.
type Config struct {
	Path   string // database file path, or ":memory:"
	Logger *slog.Logger
}

// Store implements core.StyleStore backed by SQLite.
type Store struct {
	config Config
	db     *sql.DB
}

// NewStore creates a new SQLite-backed style store. The database is opened
// lazily on Initialize.
func NewStore(config Config) *Store {
	return &Store{config: config}
}

// Initialize opens the database and applies the schema.
func (s *Store) Initialize(ctx context.Context) error {
	db, err := sql.Open("sqlite", s.config.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	// modernc.org/sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	s.db = db
	if s.config.Logger != nil {
		s.config.Logger.Debug("sqlite store initialized", "path", s.config.Path)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts a style record.
func (s *Store) Save(ctx context.Context, rec core.StyleRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("style has no ID")
	}
	body, err := rec.Style.Encode()
	if err != nil {
		return fmt.Errorf("failed to serialize style: %w", err)
	}
	updated := rec.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO styles (id, name, body, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, body = excluded.body, updated_at = excluded.updated_at`,
		rec.ID, rec.Style.Name, string(body), updated.Unix())
	if err != nil {
		return fmt.Errorf("failed to save style %s: %w", rec.ID, err)
	}
	return nil
}

// Get retrieves a style by ID.
func (s *Store) Get(ctx context.Context, id string) (core.StyleRecord, error) {
	var body string
	var updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT body, updated_at FROM styles WHERE id = ?`, id).Scan(&body, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.StyleRecord{}, fmt.Errorf("style %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.StyleRecord{}, fmt.Errorf("failed to load style %s: %w", id, err)
	}

	style, err := core.DecodeStyle([]byte(body))
	if err != nil {
		return core.StyleRecord{}, fmt.Errorf("failed to parse style %s: %w", id, err)
	}
	return core.StyleRecord{ID: id, Style: style, UpdatedAt: time.Unix(updated, 0)}, nil
}

// Latest returns the most recently saved style.
func (s *Store) Latest(ctx context.Context) (core.StyleRecord, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM styles ORDER BY updated_at DESC, id LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.StyleRecord{}, core.ErrEmptyStore
	}
	if err != nil {
		return core.StyleRecord{}, fmt.Errorf("failed to find latest style: %w", err)
	}
	return s.Get(ctx, id)
}

// List returns lightweight entries for all persisted styles.
func (s *Store) List(ctx context.Context) ([]core.StyleInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, updated_at FROM styles ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list styles: %w", err)
	}
	defer rows.Close()

	var infos []core.StyleInfo
	for rows.Next() {
		var info core.StyleInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan style row: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Exists reports whether a style with the given ID is persisted.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM styles WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check style %s: %w", id, err)
	}
	return n > 0, nil
}

// Delete removes a style by ID. Deleting a missing style is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM styles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete style %s: %w", id, err)
	}
	return nil
}

// Purge removes all persisted styles.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM styles`); err != nil {
		return fmt.Errorf("failed to purge styles: %w", err)
	}
	return nil
}

var _ core.StyleStore = (*Store)(nil)
