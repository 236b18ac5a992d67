package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/atlas/pkg/core"
)

// options holds the internal configuration for the atlas service.
type options struct {
	store     core.StyleStore
	logger    *slog.Logger
	adapter   string
	validator core.Validator
	config    map[string]interface{}
}

// Option defines a functional option for configuring atlas.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		store:   nil,
		logger:  nil,
		adapter: "fs",
		config:  make(map[string]interface{}),
	}
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStore allows injecting a custom persistence adapter (e.g. mock, s3).
// If provided, the adapter selection is skipped.
func WithStore(store core.StyleStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithAdapter allows specifying the storage adapter to use by name
// ("fs" or "sqlite"). Defaults to "fs".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithValidator overrides the default schema validator.
func WithValidator(v core.Validator) Option {
	return func(o *options) {
		o.validator = v
	}
}

// WithSystemDir allows specifying the hidden directory name used by the
// filesystem adapter. Defaults to ".atlas".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.config["system_dir"] = name
	}
}

// WithMustExist ensures the store directory must already exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.config["must_exist"] = must
	}
}

// WithHistoryLimit caps the number of retained document revisions.
func WithHistoryLimit(n int) Option {
	return func(o *options) {
		o.config["history_limit"] = n
	}
}

// WithInfoTTL sets how long transient informational messages stay visible.
func WithInfoTTL(d time.Duration) Option {
	return func(o *options) {
		o.config["info_ttl"] = d
	}
}

// WithUnloadGuard registers the hook toggled when unsaved changes appear
// or are saved away.
func WithUnloadGuard(fn func(dirty bool)) Option {
	return func(o *options) {
		o.config["unload_guard"] = fn
	}
}

// WithWatcherErrorHandler registers a callback for errors occurring during
// the filesystem watch loop, which are otherwise only logged.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.config["watcher_error_handler"] = fn
	}
}
