package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// indexEntry holds collected metadata for a single persisted style.
type indexEntry struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// indexState is the serialized shape of the index file.
type indexState struct {
	Version int                    `json:"version"`
	Latest  string                 `json:"latest,omitempty"`
	Entries map[string]*indexEntry `json:"entries"`
}

// index manages the loading, updating, and saving of store metadata.
// It lives in {storePath}/{systemDir}/index.json.
type index struct {
	path  string
	mu    sync.RWMutex
	state indexState
	dirty bool
}

// newIndex initializes an index rooted at the given store path.
func newIndex(storePath, systemDir string) *index {
	return &index{
		path: filepath.Join(storePath, systemDir, "index.json"),
		state: indexState{
			Version: 1,
			Entries: make(map[string]*indexEntry),
		},
	}
}

// Load reads the index from disk. A missing or corrupted file yields an
// empty index so the store can rebuild it on the next List.
func (ix *index) Load() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	data, err := os.ReadFile(ix.path)
	if os.IsNotExist(err) {
		return nil // Start fresh
	}
	if err != nil {
		return fmt.Errorf("failed to read index: %w", err)
	}

	if err := json.Unmarshal(data, &ix.state); err != nil {
		// Treat corruption as an empty index so it self-heals.
		ix.state = indexState{Version: 1, Entries: make(map[string]*indexEntry)}
		return nil
	}
	if ix.state.Entries == nil {
		ix.state.Entries = make(map[string]*indexEntry)
	}

	ix.dirty = false
	return nil
}

// Save persists the index to disk if it has unsaved changes.
func (ix *index) Save() error {
	ix.mu.RLock()
	if !ix.dirty {
		ix.mu.RUnlock()
		return nil
	}
	data, err := json.MarshalIndent(&ix.state, "", "  ")
	ix.mu.RUnlock()

	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(ix.path), 0755); err != nil {
		return err
	}

	if err := writeFileAtomic(ix.path, data, 0644); err != nil {
		return err
	}

	ix.mu.Lock()
	ix.dirty = false
	ix.mu.Unlock()

	return nil
}

// Get retrieves an entry if it exists and its recorded mtime matches the
// file's current mtime. Returns nil and false on a miss or stale hit.
func (ix *index) Get(id string, currentMtime time.Time) (*indexEntry, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	entry, ok := ix.state.Entries[id]
	if !ok {
		return nil, false
	}
	if !entry.LastModified.Equal(currentMtime) {
		return nil, false
	}
	return entry, true
}

// Set updates an entry in the index.
func (ix *index) Set(id string, entry *indexEntry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.state.Entries[id] = entry
	ix.dirty = true
}

// Has reports whether the index knows about the given ID, fresh or not.
func (ix *index) Has(id string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.state.Entries[id]
	return ok
}

// Remove drops a single entry from the index.
func (ix *index) Remove(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	delete(ix.state.Entries, id)
	if ix.state.Latest == id {
		ix.state.Latest = ""
	}
	ix.dirty = true
}

// Prune removes entries that are not in the 'keep' set.
func (ix *index) Prune(keep map[string]bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for id := range ix.state.Entries {
		if !keep[id] {
			delete(ix.state.Entries, id)
			if ix.state.Latest == id {
				ix.state.Latest = ""
			}
			ix.dirty = true
		}
	}
}

// SetLatest records the most recently saved style ID.
func (ix *index) SetLatest(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.state.Latest != id {
		ix.state.Latest = id
		ix.dirty = true
	}
}

// Latest returns the most recently saved style ID, or "" when unknown.
func (ix *index) Latest() string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.state.Latest
}

// IDs returns a snapshot of all indexed style IDs.
func (ix *index) IDs() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	ids := make([]string, 0, len(ix.state.Entries))
	for id := range ix.state.Entries {
		ids = append(ids, id)
	}
	return ids
}

// Reset empties the index entirely.
func (ix *index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.state.Entries = make(map[string]*indexEntry)
	ix.state.Latest = ""
	ix.dirty = true
}

// Len returns the number of indexed entries.
func (ix *index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.state.Entries)
}
