package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/atlas/pkg/adapters/fs"
	"github.com/aretw0/atlas/pkg/adapters/sqlite"
	"github.com/aretw0/atlas/pkg/core"
	"github.com/aretw0/atlas/pkg/engine"
)

// Init initializes the persistence store for the given URI. The uri is
// adapter-specific: a directory path for "fs", a database file (or
// ":memory:") for "sqlite".
//
// It returns the configured core.StyleStore.
func Init(uri string, opts ...Option) (core.StyleStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	// 1. Check for injected store
	if o.store != nil {
		return o.store, nil
	}

	// 2. Initialize based on adapter
	var store core.StyleStore
	switch o.adapter {
	case "fs":
		systemDir, _ := o.config["system_dir"].(string)
		mustExist, _ := o.config["must_exist"].(bool)
		errorHandler, _ := o.config["watcher_error_handler"].(func(error))
		store = fs.NewStore(fs.Config{
			Path:         uri,
			SystemDir:    systemDir,
			MustExist:    mustExist,
			Logger:       o.logger,
			ErrorHandler: errorHandler,
		})
	case "sqlite":
		store = sqlite.NewStore(sqlite.Config{
			Path:   uri,
			Logger: o.logger,
		})
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	// 3. Run initialization
	if err := store.Initialize(context.Background()); err != nil {
		return nil, err
	}

	return store, nil
}

// New wires a ready-to-use document engine: store from the URI, the default
// validator unless overridden, and the most recent persisted style loaded
// as the working document. A cold or unreachable store is not fatal; the
// engine starts on an empty document instead.
//
//	eng, err := atlas.New("./styles", atlas.WithAdapter("fs"))
func New(uri string, opts ...Option) (*engine.Engine, error) {
	store, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	engOpts := []engine.Option{
		engine.WithStore(store),
		engine.WithLogger(o.logger),
	}
	if o.validator != nil {
		engOpts = append(engOpts, engine.WithValidator(o.validator))
	}
	if n, ok := o.config["history_limit"].(int); ok {
		engOpts = append(engOpts, engine.WithHistoryLimit(n))
	}
	if d, ok := o.config["info_ttl"].(time.Duration); ok {
		engOpts = append(engOpts, engine.WithInfoTTL(d))
	}
	if fn, ok := o.config["unload_guard"].(func(bool)); ok {
		engOpts = append(engOpts, engine.WithUnloadGuard(fn))
	}

	eng := engine.New(engOpts...)

	// Load the most recent style; an empty or failing store leaves the
	// engine on its default empty document.
	ctx := context.Background()
	rec, err := store.Latest(ctx)
	switch {
	case err == nil:
		if verrs := eng.Open(ctx, rec.Style, rec.ID); len(verrs) > 0 && o.logger != nil {
			o.logger.Warn("latest persisted style failed validation, starting empty",
				"id", rec.ID, "errors", len(verrs))
		}
	case errors.Is(err, core.ErrEmptyStore):
		// Fresh store, nothing to load.
	default:
		if o.logger != nil {
			o.logger.Warn("failed to load latest style, starting empty", "error", err)
		}
	}

	return eng, nil
}
