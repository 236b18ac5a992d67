// Package diff summarizes the structural differences between two style
// snapshots as short human-readable messages, phrased for the undo or redo
// direction. It is a pure function of its inputs: no side effects, identical
// inputs give identical output.
package diff

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/aretw0/atlas/pkg/core"
)

// ForUndo describes the transition from the current snapshot back to an
// older one, phrased as reverting.
func ForUndo(before, after *core.Style) []string {
	return prefixed("undo", changes(before, after))
}

// ForRedo describes the transition from the current snapshot forward to a
// newer one, phrased as re-applying.
func ForRedo(before, after *core.Style) []string {
	return prefixed("redo", changes(before, after))
}

func prefixed(direction string, msgs []string) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, direction+": "+m)
	}
	return out
}

// changes lists what the new snapshot looks like relative to the old one.
// Order is deterministic: layers, then sources, then root fields.
func changes(old, new *core.Style) []string {
	if old == nil || new == nil || old.Equal(new) {
		return nil
	}

	var msgs []string
	msgs = append(msgs, layerChanges(old, new)...)
	msgs = append(msgs, sourceChanges(old, new)...)
	msgs = append(msgs, rootChanges(old, new)...)
	return msgs
}

func layerChanges(old, new *core.Style) []string {
	oldByID := layersByID(old)
	newByID := layersByID(new)

	added := map[string]bool{}
	removed := map[string]bool{}
	for _, l := range new.Layers {
		if _, ok := oldByID[l.ID]; !ok {
			added[l.ID] = true
		}
	}
	for _, l := range old.Layers {
		if _, ok := newByID[l.ID]; !ok {
			removed[l.ID] = true
		}
	}

	var msgs []string

	// Rename: same position, different id, identical body otherwise.
	renamedTo := map[string]string{} // old id -> new id
	for i := 0; i < len(old.Layers) && i < len(new.Layers); i++ {
		ol, nl := old.Layers[i], new.Layers[i]
		if ol.ID == nl.ID || !removed[ol.ID] || !added[nl.ID] {
			continue
		}
		if bodyEqual(ol, nl) {
			renamedTo[ol.ID] = nl.ID
			delete(removed, ol.ID)
			delete(added, nl.ID)
			msgs = append(msgs, fmt.Sprintf("renamed layer %q to %q", ol.ID, nl.ID))
		}
	}

	// Additions and removals, reported in document order.
	for _, l := range new.Layers {
		if added[l.ID] {
			msgs = append(msgs, fmt.Sprintf("added layer %q", l.ID))
		}
	}
	for _, l := range old.Layers {
		if removed[l.ID] {
			msgs = append(msgs, fmt.Sprintf("removed layer %q", l.ID))
		}
	}

	// Reorder: compare the relative order of the ids common to both sides.
	oldOrder := commonOrder(old.Layers, func(id string) bool { return !removed[id] })
	// Map renamed old ids forward so both sequences speak the new ids.
	for i, id := range oldOrder {
		if to, ok := renamedTo[id]; ok {
			oldOrder[i] = to
		}
	}
	newOrder := commonOrder(new.Layers, func(id string) bool { return !added[id] })
	for i := 0; i < len(oldOrder) && i < len(newOrder); i++ {
		if oldOrder[i] != newOrder[i] {
			msgs = append(msgs, fmt.Sprintf("moved layer %q", newOrder[i]))
			// Report the first displaced layer only, the rest follow from it.
			break
		}
	}

	// Property-level changes on layers present on both sides.
	for _, nl := range new.Layers {
		id := nl.ID
		oldID := id
		for from, to := range renamedTo {
			if to == id {
				oldID = from
			}
		}
		ol, ok := oldByID[oldID]
		if !ok || added[id] {
			continue
		}
		msgs = append(msgs, layerPropertyChanges(ol, nl)...)
	}

	return msgs
}

// bodyEqual compares two layers ignoring their IDs.
func bodyEqual(a, b core.Layer) bool {
	a.ID = ""
	b.ID = ""
	return a.Equal(b)
}

func layersByID(s *core.Style) map[string]core.Layer {
	m := make(map[string]core.Layer, len(s.Layers))
	for _, l := range s.Layers {
		m[l.ID] = l
	}
	return m
}

func commonOrder(layers []core.Layer, keep func(id string) bool) []string {
	var ids []string
	for _, l := range layers {
		if keep(l.ID) {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

func layerPropertyChanges(old, new core.Layer) []string {
	id := new.ID
	var msgs []string

	if old.Type != new.Type {
		msgs = append(msgs, fmt.Sprintf("changed type of layer %q", id))
	}
	if old.Source != new.Source || old.SourceLayer != new.SourceLayer {
		msgs = append(msgs, fmt.Sprintf("changed source of layer %q", id))
	}
	if !sliceEqual(old.Filter, new.Filter) {
		msgs = append(msgs, fmt.Sprintf("changed filter of layer %q", id))
	}
	if old.MinZoom != new.MinZoom || old.MaxZoom != new.MaxZoom {
		msgs = append(msgs, fmt.Sprintf("changed zoom range of layer %q", id))
	}
	msgs = append(msgs, propMapChanges("layout", id, old.Layout, new.Layout)...)
	msgs = append(msgs, propMapChanges("paint", id, old.Paint, new.Paint)...)
	msgs = append(msgs, propMapChanges("", id, old.Extra, new.Extra)...)
	return msgs
}

func propMapChanges(group, layerID string, old, new map[string]any) []string {
	var msgs []string
	for _, key := range sortedKeys(old, new) {
		name := key
		if group != "" {
			name = group + "." + key
		}
		ov, inOld := old[key]
		nv, inNew := new[key]
		switch {
		case inOld && !inNew:
			msgs = append(msgs, fmt.Sprintf("removed %s from layer %q", name, layerID))
		case !inOld && inNew:
			msgs = append(msgs, fmt.Sprintf("added %s to layer %q", name, layerID))
		case !valueEqual(ov, nv):
			msgs = append(msgs, fmt.Sprintf("changed %s of layer %q", name, layerID))
		}
	}
	return msgs
}

func sourceChanges(old, new *core.Style) []string {
	var msgs []string
	for _, key := range sortedSourceKeys(old.Sources, new.Sources) {
		os, inOld := old.Sources[key]
		ns, inNew := new.Sources[key]
		switch {
		case inOld && !inNew:
			msgs = append(msgs, fmt.Sprintf("removed source %q", key))
		case !inOld && inNew:
			msgs = append(msgs, fmt.Sprintf("added source %q", key))
		case !os.Equal(ns):
			msgs = append(msgs, fmt.Sprintf("changed source %q", key))
		}
	}
	return msgs
}

func rootChanges(old, new *core.Style) []string {
	var msgs []string
	if old.Name != new.Name {
		msgs = append(msgs, "changed style name")
	}
	if old.Glyphs != new.Glyphs {
		msgs = append(msgs, "changed glyphs url")
	}
	if old.Sprite != new.Sprite {
		msgs = append(msgs, "changed sprite url")
	}
	if !valueEqual(mapOrNil(old.Metadata), mapOrNil(new.Metadata)) {
		msgs = append(msgs, "changed style metadata")
	}
	for _, key := range sortedKeys(old.Extra, new.Extra) {
		ov, inOld := old.Extra[key]
		nv, inNew := new.Extra[key]
		switch {
		case inOld && !inNew:
			msgs = append(msgs, fmt.Sprintf("removed %s", key))
		case !inOld && inNew:
			msgs = append(msgs, fmt.Sprintf("added %s", key))
		case !valueEqual(ov, nv):
			msgs = append(msgs, fmt.Sprintf("changed %s", key))
		}
	}
	return msgs
}

// --- comparison helpers ---

func mapOrNil(m core.Metadata) any {
	if m == nil {
		return nil
	}
	return map[string]any(m)
}

func valueEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func sliceEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valueEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sortedKeys(maps ...map[string]any) []string {
	seen := map[string]bool{}
	var keys []string
	for _, m := range maps {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

func sortedSourceKeys(maps ...map[string]core.Source) []string {
	seen := map[string]bool{}
	var keys []string
	for _, m := range maps {
		for k := range m {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
