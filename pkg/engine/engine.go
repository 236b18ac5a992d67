// Package engine owns the authoritative style document and every path that
// may change it. All mutations — edits, undo/redo, opened documents,
// metadata completions — funnel through one validated commit path; the
// engine is the sole writer of the authoritative snapshot, which is replaced
// (never mutated) on each commit.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/atlas/pkg/core"
	"github.com/aretw0/atlas/pkg/diff"
	"github.com/aretw0/atlas/pkg/engine/revision"
	"github.com/aretw0/atlas/pkg/metadata"
	"github.com/aretw0/atlas/pkg/validate"
)

// SourceInfo is the derived per-source entry consumed by the layer editor:
// the source type plus the child layer names discovered for it so far.
type SourceInfo struct {
	Type   string
	Layers []string
}

// Engine is the document engine. Construct with New; the zero value is not
// usable.
type Engine struct {
	logger      *slog.Logger
	store       core.StyleStore
	validator   core.Validator
	resolver    *metadata.Resolver
	specVersion int
	infoTTL     time.Duration
	unloadGuard func(dirty bool)

	mu        sync.Mutex
	log       *revision.Log
	current   *core.Style
	currentID string
	selected  int

	dirty     bool
	valErrors []core.ValidationError
	infos     []string
	infoTimer *time.Timer

	// sourceLayers is the side table of discovered vector layer names,
	// keyed by source key. Presence of a key means a fetch was already
	// issued for it; it is never re-issued for the same key.
	sourceLayers map[string][]string
	inventory    map[string]SourceInfo
	fonts        []string
	icons        []string

	link LinkState

	onChange []func(*core.Style)
}

// fetchReq is a metadata lookup decided under the lock but issued after it
// is released, so cache-hit completions cannot deadlock.
type fetchReq struct {
	kind  metadata.Kind
	url   string
	apply func(metadata.Result)
}

// New creates an engine seeded with an empty style (or the injected one).
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if o.validator == nil {
		o.validator = validate.New()
	}
	if o.resolver == nil {
		o.resolver = metadata.NewResolver(metadata.WithLogger(o.logger))
	}
	initial := o.initial
	if initial == nil {
		initial = core.NewStyle("Empty Style")
	}

	e := &Engine{
		logger:       o.logger,
		store:        o.store,
		validator:    o.validator,
		resolver:     o.resolver,
		specVersion:  o.specVersion,
		infoTTL:      o.infoTTL,
		unloadGuard:  o.unloadGuard,
		log:          revision.NewLog(initial, o.historyLimit),
		current:      initial,
		selected:     -1,
		sourceLayers: make(map[string][]string),
		inventory:    make(map[string]SourceInfo),
	}
	e.mu.Lock()
	e.rebuildInventoryLocked()
	e.mu.Unlock()
	return e
}

// Current returns the authoritative snapshot. Callers must treat it as
// immutable; derive a candidate with Clone before editing.
func (e *Engine) Current() *core.Style {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// CurrentID returns the identifier of the open document ("" before the
// first save or open).
func (e *Engine) CurrentID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentID
}

// Propose is the commit path: the only way an edit becomes authoritative.
// The candidate is validated first; on any violation it is rejected, the
// authoritative document stays untouched and the violations are returned
// (and kept available via Errors). On success the candidate becomes the
// authoritative snapshot, a revision is pushed, changed glyph/sprite fields
// trigger catalog fetches (fire-and-forget) and the source inventory is
// re-derived.
func (e *Engine) Propose(ctx context.Context, candidate *core.Style) []core.ValidationError {
	if errs := e.validator.Validate(candidate, e.specVersion); len(errs) > 0 {
		e.mu.Lock()
		e.valErrors = errs
		e.mu.Unlock()
		return errs
	}

	e.mu.Lock()
	prev := e.current

	var reqs []fetchReq
	if candidate.Glyphs != prev.Glyphs && candidate.Glyphs != "" {
		reqs = append(reqs, fetchReq{metadata.KindGlyphs, candidate.Glyphs, e.applyFonts})
	}
	if candidate.Sprite != prev.Sprite && candidate.Sprite != "" {
		reqs = append(reqs, fetchReq{metadata.KindSprite, candidate.Sprite, e.applyIcons})
	}

	e.log.Push(candidate)
	e.current = candidate
	e.valErrors = nil
	e.dirty = true
	e.refreshLinkLocked()
	reqs = append(reqs, e.syncInventoryLocked()...)
	subs := e.subscribersLocked()
	e.mu.Unlock()

	e.issueFetches(ctx, reqs)
	e.setGuard(true)
	e.notify(subs, candidate)
	return nil
}

// Open replaces the document wholesale: history is cleared, the unsaved
// flag is reset and no diff messages are produced. The candidate is still
// validated; an invalid document is rejected like any other.
func (e *Engine) Open(ctx context.Context, candidate *core.Style, id string) []core.ValidationError {
	if errs := e.validator.Validate(candidate, e.specVersion); len(errs) > 0 {
		e.mu.Lock()
		e.valErrors = errs
		e.mu.Unlock()
		return errs
	}
	if id == "" {
		id = uuid.NewString()
	}

	e.mu.Lock()
	var reqs []fetchReq
	if candidate.Glyphs != "" {
		reqs = append(reqs, fetchReq{metadata.KindGlyphs, candidate.Glyphs, e.applyFonts})
	}
	if candidate.Sprite != "" {
		reqs = append(reqs, fetchReq{metadata.KindSprite, candidate.Sprite, e.applyIcons})
	}

	e.log.Clear(candidate)
	e.current = candidate
	e.currentID = id
	e.selected = -1
	e.valErrors = nil
	e.dirty = false
	e.refreshLinkLocked()
	reqs = append(reqs, e.syncInventoryLocked()...)
	subs := e.subscribersLocked()
	e.mu.Unlock()

	if e.logger != nil {
		e.logger.Info("opened style", "id", id, "layers", len(candidate.Layers))
	}
	e.issueFetches(ctx, reqs)
	e.setGuard(false)
	e.notify(subs, candidate)
	return nil
}

// Undo steps the history cursor back and returns the diff messages for the
// traversed edge. At the oldest revision it is a no-op returning nil.
// History snapshots were validated when they were pushed, so undo does not
// re-validate and does not push.
func (e *Engine) Undo() []string {
	return e.traverse(func() (*core.Style, *core.Style, []string) {
		before := e.log.Current()
		after := e.log.Undo()
		return before, after, diff.ForUndo(before, after)
	})
}

// Redo steps the history cursor forward. At the newest revision it is a
// no-op returning nil.
func (e *Engine) Redo() []string {
	return e.traverse(func() (*core.Style, *core.Style, []string) {
		before := e.log.Current()
		after := e.log.Redo()
		return before, after, diff.ForRedo(before, after)
	})
}

func (e *Engine) traverse(step func() (*core.Style, *core.Style, []string)) []string {
	e.mu.Lock()
	before, after, msgs := step()
	if after == before {
		e.mu.Unlock()
		return nil
	}
	e.current = after
	e.dirty = true
	e.addInfosLocked(msgs)
	e.refreshLinkLocked()
	reqs := e.syncInventoryLocked()
	subs := e.subscribersLocked()
	e.mu.Unlock()

	e.issueFetches(context.Background(), reqs)
	e.setGuard(true)
	e.notify(subs, after)
	return msgs
}

// CanUndo reports whether an undo step would change the document.
func (e *Engine) CanUndo() bool { return e.log.CanUndo() }

// CanRedo reports whether a redo step would change the document.
func (e *Engine) CanRedo() bool { return e.log.CanRedo() }

// Save persists the current document. A failure surfaces one transient
// message and leaves the in-memory document (and its dirty flag) untouched.
func (e *Engine) Save(ctx context.Context) error {
	if e.store == nil {
		return ErrNoStore
	}

	e.mu.Lock()
	if e.currentID == "" {
		e.currentID = uuid.NewString()
	}
	rec := core.StyleRecord{
		ID:        e.currentID,
		Style:     e.current,
		UpdatedAt: time.Now(),
	}
	e.mu.Unlock()

	if err := e.store.Save(ctx, rec); err != nil {
		e.addInfos([]string{"failed to save style: " + err.Error()})
		return fmt.Errorf("save style %s: %w", rec.ID, err)
	}

	e.mu.Lock()
	e.dirty = false
	e.refreshLinkLocked()
	e.mu.Unlock()

	e.addInfos([]string{"style saved"})
	e.setGuard(false)
	if e.logger != nil {
		e.logger.Debug("style saved", "id", rec.ID)
	}
	return nil
}

// Navigate reacts to back/forward navigation. A known identifier loads that
// document (clearing history); an unknown one re-derives the address state
// from the current in-memory document instead of trusting the target.
func (e *Engine) Navigate(ctx context.Context, id string) error {
	if e.store == nil {
		return ErrNoStore
	}

	known, err := e.store.Exists(ctx, id)
	if err != nil || !known {
		if err != nil && e.logger != nil {
			e.logger.Warn("navigation lookup failed", "id", id, "error", err)
		}
		e.mu.Lock()
		e.refreshLinkLocked()
		e.mu.Unlock()
		return nil
	}

	rec, err := e.store.Get(ctx, id)
	if err != nil {
		e.mu.Lock()
		e.refreshLinkLocked()
		e.mu.Unlock()
		return fmt.Errorf("load style %s: %w", id, err)
	}
	if errs := e.Open(ctx, rec.Style, rec.ID); len(errs) > 0 {
		return fmt.Errorf("stored style %s failed validation (%d errors)", id, len(errs))
	}
	return nil
}

// DataChanged is the renderer surface's "data changed" reaction: re-derive
// the source inventory so the editor never observes a source without a type
// entry.
func (e *Engine) DataChanged(ctx context.Context) {
	e.mu.Lock()
	reqs := e.syncInventoryLocked()
	e.mu.Unlock()
	e.issueFetches(ctx, reqs)
}

// SelectLayer resolves a picked layer id to its index and records the
// selection. Returns -1, false for an unknown id.
func (e *Engine) SelectLayer(id string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.current.LayerIndex(id)
	if idx >= 0 {
		e.selected = idx
	}
	return idx, idx >= 0
}

// Selected returns the index of the selected layer, -1 when none.
func (e *Engine) Selected() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Dirty reports whether there are unsaved changes.
func (e *Engine) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

// Errors returns the validation errors of the last rejected candidate.
func (e *Engine) Errors() []core.ValidationError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]core.ValidationError(nil), e.valErrors...)
}

// Fonts returns the font names discovered for the current glyphs URL.
func (e *Engine) Fonts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.fonts...)
}

// Icons returns the icon names discovered for the current sprite URL.
func (e *Engine) Icons() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.icons...)
}

// OnChange registers a subscriber notified (outside the lock) after every
// authoritative swap. Subscribers receive the new snapshot and must treat
// it as read-only.
func (e *Engine) OnChange(fn func(*core.Style)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = append(e.onChange, fn)
}

// Store exposes the configured persistence store (may be nil).
func (e *Engine) Store() core.StyleStore { return e.store }

func (e *Engine) subscribersLocked() []func(*core.Style) {
	subs := make([]func(*core.Style), len(e.onChange))
	copy(subs, e.onChange)
	return subs
}

func (e *Engine) notify(subs []func(*core.Style), s *core.Style) {
	for _, fn := range subs {
		fn(s)
	}
}

func (e *Engine) setGuard(dirty bool) {
	if e.unloadGuard != nil {
		e.unloadGuard(dirty)
	}
}

func (e *Engine) issueFetches(ctx context.Context, reqs []fetchReq) {
	if len(reqs) == 0 {
		return
	}
	// Commits never wait on metadata; detach from the caller's deadline.
	ctx = context.WithoutCancel(ctx)
	for _, q := range reqs {
		e.resolver.Fetch(ctx, q.kind, q.url, q.apply)
	}
}

// applyFonts merges a glyph catalog completion. Completions for a glyphs
// URL that is no longer current are discarded.
func (e *Engine) applyFonts(res metadata.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if res.Err != nil || e.current.Glyphs != res.URL {
		return
	}
	e.fonts = res.Names
}

// applyIcons merges a sprite catalog completion.
func (e *Engine) applyIcons(res metadata.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if res.Err != nil || e.current.Sprite != res.URL {
		return
	}
	e.icons = res.Names
}
