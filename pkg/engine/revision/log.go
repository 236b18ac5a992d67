// Package revision maintains the linear undo/redo history of style
// snapshots: an ordered vector of immutable revisions with a single cursor.
// Push truncates everything after the cursor, so no redo branch survives a
// new edit. Undo and Redo are total: at a boundary they return the boundary
// snapshot unchanged instead of failing.
package revision

import (
	"sync"

	"github.com/aretw0/atlas/pkg/core"
)

// DefaultMaxEntries bounds history growth when no explicit cap is given.
const DefaultMaxEntries = 100

// Log is the revision store. It always holds at least one revision.
type Log struct {
	mu         sync.Mutex
	revisions  []*core.Style
	cursor     int
	maxEntries int
}

// NewLog creates a log seeded with the initial snapshot.
func NewLog(initial *core.Style, maxEntries int) *Log {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Log{
		revisions:  []*core.Style{initial},
		maxEntries: maxEntries,
	}
}

// Push appends a snapshot as the new current revision, discarding any
// revisions after the previous cursor.
func (l *Log) Push(s *core.Style) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.revisions = append(l.revisions[:l.cursor+1], s)
	l.cursor = len(l.revisions) - 1

	if len(l.revisions) > l.maxEntries {
		excess := len(l.revisions) - l.maxEntries
		l.revisions = l.revisions[excess:]
		l.cursor -= excess
	}
}

// Undo moves the cursor one step back and returns that snapshot.
// At the oldest revision it returns the oldest snapshot unchanged.
func (l *Log) Undo() *core.Style {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cursor > 0 {
		l.cursor--
	}
	return l.revisions[l.cursor]
}

// Redo moves the cursor one step forward and returns that snapshot.
// At the newest revision it returns the newest snapshot unchanged.
func (l *Log) Redo() *core.Style {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cursor < len(l.revisions)-1 {
		l.cursor++
	}
	return l.revisions[l.cursor]
}

// Current returns the snapshot at the cursor.
func (l *Log) Current() *core.Style {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.revisions[l.cursor]
}

// Clear resets the history to a single snapshot. Used when opening a new
// document so history does not leak across documents.
func (l *Log) Clear(s *core.Style) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revisions = []*core.Style{s}
	l.cursor = 0
}

// CanUndo reports whether the cursor can move backwards.
func (l *Log) CanUndo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor > 0
}

// CanRedo reports whether the cursor can move forwards.
func (l *Log) CanRedo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor < len(l.revisions)-1
}

// Len returns the number of revisions held.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.revisions)
}

// Cursor returns the current cursor position.
func (l *Log) Cursor() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor
}
