package core

import (
	"context"
	"time"
)

// StyleRecord is the persisted envelope around a style snapshot.
type StyleRecord struct {
	ID        string
	Style     *Style
	UpdatedAt time.Time
}

// StyleStore defines the contract for persisting styles by ID.
// Adhering to this interface keeps the engine independent of the
// underlying storage mechanism (Filesystem, SQLite, S3, etc).
type StyleStore interface {
	// Initialize ensures the underlying storage is ready (e.g., create
	// directories, schema migration).
	Initialize(ctx context.Context) error

	// Get retrieves a style by its ID.
	Get(ctx context.Context, id string) (StyleRecord, error)

	// Latest returns the most recently saved style.
	Latest(ctx context.Context) (StyleRecord, error)

	// List returns lightweight entries for all persisted styles.
	List(ctx context.Context) ([]StyleInfo, error)

	// Exists reports whether a style with the given ID is persisted.
	Exists(ctx context.Context, id string) (bool, error)

	// Save persists a record. It creates if not exists, or updates if it does.
	Save(ctx context.Context, rec StyleRecord) error

	// Delete removes a style by its ID. Deleting a missing style is
	// not an error.
	Delete(ctx context.Context, id string) error

	// Purge removes all persisted styles.
	Purge(ctx context.Context) error
}

// Watchable defines an interface for stores that can report out-of-band
// changes to persisted styles (e.g. a file edited behind the engine's back).
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
