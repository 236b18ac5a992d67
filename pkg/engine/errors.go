package engine

import "errors"

// Common errors.
var (
	// ErrNoStore is returned by persistence operations when the engine was
	// built without a store.
	ErrNoStore = errors.New("no style store configured")
)
