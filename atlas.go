package atlas

import (
	"log/slog"
	"time"

	"github.com/aretw0/atlas/internal/platform"
	"github.com/aretw0/atlas/pkg/core"
	"github.com/aretw0/atlas/pkg/engine"
)

// --- Configuration ---

// Option defines a functional option for configuring atlas.
type Option = platform.Option

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStore allows injecting a custom persistence adapter.
func WithStore(store core.StyleStore) Option {
	return platform.WithStore(store)
}

// WithAdapter allows specifying the storage adapter to use by name
// ("fs" or "sqlite").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithValidator overrides the default schema validator.
func WithValidator(v core.Validator) Option {
	return platform.WithValidator(v)
}

// WithSystemDir allows specifying the hidden directory name (e.g. ".atlas").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithMustExist ensures the store directory must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithHistoryLimit caps the number of retained document revisions.
func WithHistoryLimit(n int) Option {
	return platform.WithHistoryLimit(n)
}

// WithInfoTTL sets how long transient informational messages stay visible.
func WithInfoTTL(d time.Duration) Option {
	return platform.WithInfoTTL(d)
}

// WithUnloadGuard registers the hook toggled when unsaved changes appear or
// are saved away.
func WithUnloadGuard(fn func(dirty bool)) Option {
	return platform.WithUnloadGuard(fn)
}

// WithWatcherErrorHandler registers a callback for runtime watcher failures.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// --- Factory ---

// New creates a document engine backed by a store at the given URI: a
// directory for the "fs" adapter, a database file for "sqlite". The most
// recent persisted style is loaded as the working document; a cold or
// unreachable store starts the engine on an empty document instead.
func New(uri string, opts ...Option) (*engine.Engine, error) {
	return platform.New(uri, opts...)
}

// Init initializes a persistence store explicitly, without an engine.
func Init(uri string, opts ...Option) (core.StyleStore, error) {
	return platform.Init(uri, opts...)
}

// --- Utils ---

// FindStoreRoot looks upwards from startDir for a store root indicator.
func FindStoreRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}
