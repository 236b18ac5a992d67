package engine

import (
	"github.com/aretw0/atlas/pkg/metadata"
)

// Inventory returns the derived per-source metadata (type + discovered
// layer names). It is recomputed after every commit, so every source in the
// current document has an entry even before its layer list resolves.
func (e *Engine) Inventory() map[string]SourceInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]SourceInfo, len(e.inventory))
	for k, v := range e.inventory {
		out[k] = SourceInfo{Type: v.Type, Layers: append([]string(nil), v.Layers...)}
	}
	return out
}

// syncInventoryLocked diffs the side table against the current document's
// sources: entries for removed sources are dropped, unseen sources are
// added, and exactly one layer-list fetch is issued per new vector source.
// A key already present in the table is never re-fetched, even after a
// failed lookup ("fetch once, degrade forever").
//
// Returns the fetches to issue once the lock is released.
func (e *Engine) syncInventoryLocked() []fetchReq {
	s := e.current

	for key := range e.sourceLayers {
		if _, ok := s.Sources[key]; !ok {
			delete(e.sourceLayers, key)
		}
	}

	var reqs []fetchReq
	for key, src := range s.Sources {
		if _, ok := e.sourceLayers[key]; ok {
			continue
		}
		e.sourceLayers[key] = nil
		if src.Type == "vector" && src.URL != "" {
			key := key
			reqs = append(reqs, fetchReq{
				kind: metadata.KindTileJSON,
				url:  src.URL,
				apply: func(res metadata.Result) {
					e.applySourceLayers(key, res)
				},
			})
		}
	}

	e.rebuildInventoryLocked()
	return reqs
}

// applySourceLayers merges a TileJSON completion into the side table.
// Completions for a source that was removed in the meantime are discarded
// by the key-presence check. A failed lookup leaves the empty entry in
// place, so the UI can still render the source.
func (e *Engine) applySourceLayers(key string, res metadata.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.sourceLayers[key]; !ok {
		return // source removed while the fetch was in flight
	}
	if res.Err != nil {
		return
	}
	e.sourceLayers[key] = res.Names
	e.rebuildInventoryLocked()
}

func (e *Engine) rebuildInventoryLocked() {
	inv := make(map[string]SourceInfo, len(e.current.Sources))
	for key, src := range e.current.Sources {
		inv[key] = SourceInfo{
			Type:   src.Type,
			Layers: append([]string(nil), e.sourceLayers[key]...),
		}
	}
	e.inventory = inv
}
