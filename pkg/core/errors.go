package core

import "errors"

// Common errors.
var (
	// ErrNotFound is returned by stores when no style matches the given ID.
	ErrNotFound = errors.New("style not found")

	// ErrEmptyStore is returned by Latest when nothing has been saved yet.
	ErrEmptyStore = errors.New("store holds no styles")
)
