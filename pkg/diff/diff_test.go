package diff

import (
	"strings"
	"testing"

	"github.com/aretw0/atlas/pkg/core"
)

func base() *core.Style {
	s := core.NewStyle("Base")
	s.Sources["openmaptiles"] = core.Source{Type: "vector", URL: "https://example.com/tiles.json"}
	s.Layers = []core.Layer{
		{ID: "background", Type: "background", Paint: map[string]any{"background-color": "#eee"}},
		{ID: "water", Type: "fill", Source: "openmaptiles", SourceLayer: "water"},
	}
	return s
}

func TestIdenticalSnapshotsYieldNothing(t *testing.T) {
	a, b := base(), base()
	if msgs := ForUndo(a, b); len(msgs) != 0 {
		t.Errorf("ForUndo on identical snapshots = %v", msgs)
	}
	if msgs := ForRedo(a, b); len(msgs) != 0 {
		t.Errorf("ForRedo on identical snapshots = %v", msgs)
	}
}

func TestAddedLayer(t *testing.T) {
	old := base()
	new := base()
	new.Layers = append(new.Layers, core.Layer{
		ID: "parks", Type: "fill", Source: "openmaptiles", SourceLayer: "park",
	})

	msgs := ForRedo(old, new)
	if len(msgs) != 1 {
		t.Fatalf("msgs = %v, want exactly one", msgs)
	}
	if msgs[0] != `redo: added layer "parks"` {
		t.Errorf("msg = %q", msgs[0])
	}
}

func TestRemovedLayerUndoPhrasing(t *testing.T) {
	// Undoing an "add water" edit traverses from the snapshot with water
	// back to the one without it.
	with := base()
	without := base()
	without.Layers = without.Layers[:1]

	msgs := ForUndo(with, without)
	if len(msgs) != 1 || msgs[0] != `undo: removed layer "water"` {
		t.Errorf("msgs = %v", msgs)
	}
}

func TestRenamedLayer(t *testing.T) {
	old := base()
	new := base()
	new.Layers[1].ID = "ocean"

	msgs := ForRedo(old, new)
	if len(msgs) != 1 || msgs[0] != `redo: renamed layer "water" to "ocean"` {
		t.Errorf("msgs = %v", msgs)
	}
}

func TestMovedLayer(t *testing.T) {
	old := base()
	new := base()
	new.Layers[0], new.Layers[1] = new.Layers[1], new.Layers[0]

	msgs := ForRedo(old, new)
	if len(msgs) != 1 {
		t.Fatalf("msgs = %v, want exactly one", msgs)
	}
	if !strings.Contains(msgs[0], "moved layer") {
		t.Errorf("msg = %q", msgs[0])
	}
}

func TestLayerPropertyChanges(t *testing.T) {
	old := base()
	new := base()
	new.Layers[0].Paint = map[string]any{"background-color": "#000"}

	msgs := ForRedo(old, new)
	if len(msgs) != 1 || msgs[0] != `redo: changed paint.background-color of layer "background"` {
		t.Errorf("msgs = %v", msgs)
	}

	new2 := base()
	new2.Layers[1].Layout = map[string]any{"visibility": "none"}
	msgs = ForRedo(old, new2)
	if len(msgs) != 1 || msgs[0] != `redo: added layout.visibility to layer "water"` {
		t.Errorf("msgs = %v", msgs)
	}
}

func TestSourceChanges(t *testing.T) {
	old := base()

	added := base()
	added.Sources["dem"] = core.Source{Type: "raster-dem", URL: "https://example.com/dem.json"}
	msgs := ForRedo(old, added)
	if len(msgs) != 1 || msgs[0] != `redo: added source "dem"` {
		t.Errorf("msgs = %v", msgs)
	}

	removed := base()
	delete(removed.Sources, "openmaptiles")
	removed.Layers = removed.Layers[:1]
	msgs = ForRedo(old, removed)
	want := map[string]bool{
		`redo: removed layer "water"`:         true,
		`redo: removed source "openmaptiles"`: true,
	}
	if len(msgs) != 2 || !want[msgs[0]] || !want[msgs[1]] {
		t.Errorf("msgs = %v", msgs)
	}
}

func TestRootChanges(t *testing.T) {
	old := base()
	new := base()
	new.Name = "Renamed"
	new.Glyphs = "https://example.com/fonts/{fontstack}/{range}.pbf"

	msgs := ForRedo(old, new)
	want := map[string]bool{
		"redo: changed style name": true,
		"redo: changed glyphs url": true,
	}
	if len(msgs) != 2 || !want[msgs[0]] || !want[msgs[1]] {
		t.Errorf("msgs = %v", msgs)
	}
}

func TestDeterministicOutput(t *testing.T) {
	old := base()
	new := base()
	new.Layers[0].Paint = map[string]any{"background-color": "#000"}
	new.Name = "Renamed"

	first := ForUndo(old, new)
	for i := 0; i < 10; i++ {
		again := ForUndo(old, new)
		if len(again) != len(first) {
			t.Fatalf("run %d: length changed", i)
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("run %d: order changed: %v vs %v", i, first, again)
			}
		}
	}
}
