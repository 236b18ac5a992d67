// Package fs implements core.StyleStore on the local filesystem: one
// <id>.json document per style under the store root, with a metadata index
// kept in a hidden system directory. Writes are atomic (temp file + rename)
// and out-of-band edits can be observed through Watch or Reconcile.
package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/atlas/pkg/core"
)

// DefaultSystemDir is the hidden directory holding the store index.
const DefaultSystemDir = ".atlas"

const styleExt = ".json"

// Config holds the configuration for the filesystem store.
type Config struct {
	Path         string
	SystemDir    string // e.g. ".atlas"
	MustExist    bool
	Logger       *slog.Logger
	ErrorHandler func(error) // invoked for runtime watcher failures
}

// Store implements core.StyleStore using the filesystem.
type Store struct {
	Path   string
	config Config
	index  *index

	mu            sync.RWMutex
	watcherActive bool
	lastReconcile *time.Time
}

// NewStore creates a new filesystem-backed style store.
func NewStore(config Config) *Store {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	return &Store{
		Path:   config.Path,
		config: config,
		index:  newIndex(config.Path, config.SystemDir),
	}
}

// Initialize performs the necessary setup for the store (mkdir, index load).
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("store path does not exist: %s", s.Path)
		}
		if err != nil {
			return fmt.Errorf("failed to stat store path: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("store path is not a directory: %s", s.Path)
		}
	} else {
		if err := os.MkdirAll(s.Path, 0755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	if err := s.index.Load(); err != nil {
		if s.config.Logger != nil {
			s.config.Logger.Warn("failed to load store index", "error", err)
		}
	}
	return nil
}

// Save persists a style record atomically and updates the index.
func (s *Store) Save(ctx context.Context, rec core.StyleRecord) error {
	if err := validateID(rec.ID); err != nil {
		return err
	}
	if rec.Style == nil {
		return fmt.Errorf("record %s has no style", rec.ID)
	}

	data, err := rec.Style.Encode()
	if err != nil {
		return fmt.Errorf("failed to serialize style: %w", err)
	}

	fullPath := filepath.Join(s.Path, rec.ID+styleExt)
	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write style file: %w", err)
	}

	mtime := rec.UpdatedAt
	if mtime.IsZero() {
		mtime = time.Now()
	}
	s.index.Set(rec.ID, &indexEntry{
		ID:           rec.ID,
		Name:         rec.Style.Name,
		LastModified: fileModTime(fullPath, mtime),
	})
	s.index.SetLatest(rec.ID)
	if err := s.index.Save(); err != nil {
		if s.config.Logger != nil {
			s.config.Logger.Warn("failed to save store index", "error", err)
		}
	}
	return nil
}

// Get retrieves a style by ID.
func (s *Store) Get(ctx context.Context, id string) (core.StyleRecord, error) {
	if err := validateID(id); err != nil {
		return core.StyleRecord{}, err
	}

	fullPath := filepath.Join(s.Path, id+styleExt)
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return core.StyleRecord{}, core.ErrNotFound
		}
		return core.StyleRecord{}, fmt.Errorf("failed to read style %s: %w", id, err)
	}

	style, err := core.DecodeStyle(data)
	if err != nil {
		return core.StyleRecord{}, fmt.Errorf("failed to parse style %s: %w", id, err)
	}

	rec := core.StyleRecord{ID: id, Style: style}
	if info, err := os.Stat(fullPath); err == nil {
		rec.UpdatedAt = info.ModTime()
	}
	return rec, nil
}

// Latest returns the most recently saved style. The index remembers the
// last Save; when it is cold (fresh checkout, external writes) the store
// falls back to the newest file on disk.
func (s *Store) Latest(ctx context.Context) (core.StyleRecord, error) {
	if id := s.index.Latest(); id != "" {
		rec, err := s.Get(ctx, id)
		if err == nil {
			return rec, nil
		}
	}

	var newest string
	var newestTime time.Time
	if err := s.walkStyles(func(id string, info os.FileInfo) {
		if newest == "" || info.ModTime().After(newestTime) {
			newest = id
			newestTime = info.ModTime()
		}
	}); err != nil {
		return core.StyleRecord{}, err
	}
	if newest == "" {
		return core.StyleRecord{}, core.ErrEmptyStore
	}
	return s.Get(ctx, newest)
}

// List returns lightweight entries for all persisted styles. Entries with a
// fresh index hit skip the full parse.
func (s *Store) List(ctx context.Context) ([]core.StyleInfo, error) {
	var infos []core.StyleInfo
	seen := make(map[string]bool)

	err := s.walkStyles(func(id string, fi os.FileInfo) {
		seen[id] = true

		if entry, hit := s.index.Get(id, fi.ModTime()); hit {
			infos = append(infos, core.StyleInfo{
				ID:        entry.ID,
				Name:      entry.Name,
				UpdatedAt: fi.ModTime().Unix(),
			})
			return
		}

		rec, err := s.Get(ctx, id)
		if err != nil {
			if s.config.Logger != nil {
				s.config.Logger.Warn("failed to parse style during list", "id", id, "error", err)
			}
			return // skip unparseable
		}

		s.index.Set(id, &indexEntry{
			ID:           id,
			Name:         rec.Style.Name,
			LastModified: fi.ModTime(),
		})
		infos = append(infos, core.StyleInfo{
			ID:        id,
			Name:      rec.Style.Name,
			UpdatedAt: fi.ModTime().Unix(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.index.Prune(seen)
	if err := s.index.Save(); err != nil {
		if s.config.Logger != nil {
			s.config.Logger.Warn("failed to save store index", "error", err)
		}
	}
	return infos, nil
}

// Exists reports whether a style with the given ID is persisted.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.Path, id+styleExt))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a style by ID. Deleting a missing style is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	fullPath := filepath.Join(s.Path, id+styleExt)
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return nil
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to remove style file: %w", err)
	}

	s.index.Remove(id)
	if err := s.index.Save(); err != nil {
		if s.config.Logger != nil {
			s.config.Logger.Warn("failed to save store index", "error", err)
		}
	}
	return nil
}

// Purge removes all persisted styles and resets the index.
func (s *Store) Purge(ctx context.Context) error {
	var ids []string
	if err := s.walkStyles(func(id string, _ os.FileInfo) {
		ids = append(ids, id)
	}); err != nil {
		return err
	}
	for _, id := range ids {
		if err := os.Remove(filepath.Join(s.Path, id+styleExt)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove style %s: %w", id, err)
		}
	}
	s.index.Reset()
	return s.index.Save()
}

// Reconcile compares the directory with the index and reports changes made
// while no watcher was running. The index is updated in the process.
func (s *Store) Reconcile(ctx context.Context) ([]core.Event, error) {
	var events []core.Event
	seen := make(map[string]bool)
	now := time.Now().Unix()

	err := s.walkStyles(func(id string, fi os.FileInfo) {
		seen[id] = true
		if _, hit := s.index.Get(id, fi.ModTime()); hit {
			return
		}
		eType := core.EventModify
		if !s.index.Has(id) {
			eType = core.EventCreate
		}
		events = append(events, core.Event{Type: eType, ID: id, Timestamp: now})

		name := ""
		if rec, err := s.Get(ctx, id); err == nil {
			name = rec.Style.Name
		}
		s.index.Set(id, &indexEntry{ID: id, Name: name, LastModified: fi.ModTime()})
	})
	if err != nil {
		return nil, err
	}

	for _, id := range s.index.IDs() {
		if !seen[id] {
			events = append(events, core.Event{Type: core.EventDelete, ID: id, Timestamp: now})
			s.index.Remove(id)
		}
	}

	if err := s.index.Save(); err != nil {
		if s.config.Logger != nil {
			s.config.Logger.Warn("failed to save store index", "error", err)
		}
	}
	s.recordReconcile()
	return events, nil
}

// walkStyles visits every style file directly under the store root.
func (s *Store) walkStyles(visit func(id string, info os.FileInfo)) error {
	entries, err := os.ReadDir(s.Path)
	if err != nil {
		return fmt.Errorf("failed to read store dir: %w", err)
	}
	for _, d := range entries {
		if d.IsDir() {
			continue // system dir and anything else nested
		}
		name := d.Name()
		if filepath.Ext(name) != styleExt || strings.HasPrefix(name, TempFilePrefix) {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		visit(strings.TrimSuffix(name, styleExt), info)
	}
	return nil
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("style has no ID")
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("invalid style ID %q", id)
	}
	return nil
}

func fileModTime(path string, fallback time.Time) time.Time {
	if info, err := os.Stat(path); err == nil {
		return info.ModTime()
	}
	return fallback
}

var _ core.StyleStore = (*Store)(nil)
var _ core.Watchable = (*Store)(nil)
