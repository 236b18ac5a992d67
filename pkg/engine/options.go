package engine

import (
	"log/slog"
	"time"

	"github.com/aretw0/atlas/pkg/core"
	"github.com/aretw0/atlas/pkg/metadata"
)

// Defaults for engine construction.
const (
	DefaultInfoTTL      = 3 * time.Second
	DefaultHistoryLimit = 100
)

// options holds the internal configuration for the engine.
type options struct {
	logger       *slog.Logger
	store        core.StyleStore
	validator    core.Validator
	resolver     *metadata.Resolver
	specVersion  int
	historyLimit int
	infoTTL      time.Duration
	unloadGuard  func(dirty bool)
	initial      *core.Style
}

// Option defines a functional option for configuring the engine.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		specVersion:  core.CurrentSpecVersion,
		historyLimit: DefaultHistoryLimit,
		infoTTL:      DefaultInfoTTL,
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStore sets the persistence store. Without one the engine still edits
// in memory, but Save and Navigate report ErrNoStore.
func WithStore(s core.StyleStore) Option {
	return func(o *options) { o.store = s }
}

// WithValidator injects the schema validator consulted by the commit path.
func WithValidator(v core.Validator) Option {
	return func(o *options) { o.validator = v }
}

// WithResolver injects the metadata resolver.
func WithResolver(r *metadata.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithSpecVersion overrides the style spec version passed to the validator.
func WithSpecVersion(v int) Option {
	return func(o *options) { o.specVersion = v }
}

// WithHistoryLimit caps the number of retained revisions.
func WithHistoryLimit(n int) Option {
	return func(o *options) { o.historyLimit = n }
}

// WithInfoTTL sets how long transient messages stay visible.
func WithInfoTTL(d time.Duration) Option {
	return func(o *options) { o.infoTTL = d }
}

// WithUnloadGuard registers the hook toggled when unsaved changes appear or
// are saved away (the host wires this to its page-unload warning).
func WithUnloadGuard(fn func(dirty bool)) Option {
	return func(o *options) { o.unloadGuard = fn }
}

// WithInitialStyle seeds the engine with a document other than the default
// empty style.
func WithInitialStyle(s *core.Style) Option {
	return func(o *options) { o.initial = s }
}
