package atlas_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/atlas"
	"github.com/aretw0/atlas/pkg/core"
)

// Example_basic demonstrates how to open a store, commit an edit, and
// persist the working document.
func Example_basic() {
	// Create a temporary directory for the example
	tmpDir, err := os.MkdirTemp("", "atlas-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	// Initialize the engine on an empty store. A fresh store starts the
	// engine on an empty document.
	eng, err := atlas.New(tmpDir)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// 1. Commit an edit. Propose validates the candidate; on success it
	// becomes the working document.
	draft := core.NewStyle("Night Mode")
	draft.Layers = append(draft.Layers, core.Layer{
		ID:    "background",
		Type:  "background",
		Paint: map[string]any{"background-color": "#001122"},
	})
	if errs := eng.Propose(ctx, draft); len(errs) > 0 {
		log.Fatalf("rejected: %v", errs)
	}

	// 2. Persist it.
	if err := eng.Save(ctx); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Saved style: %s (dirty=%v)\n", eng.Current().Name, eng.Dirty())
	// Output:
	// Saved style: Night Mode (dirty=false)
}

// Example_undoRedo demonstrates stepping through the revision history.
func Example_undoRedo() {
	tmpDir, err := os.MkdirTemp("", "atlas-undo-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	eng, err := atlas.New(tmpDir)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	base := core.NewStyle("Base")
	if errs := eng.Propose(ctx, base); len(errs) > 0 {
		log.Fatalf("rejected: %v", errs)
	}

	edited := base.Clone()
	edited.Layers = append(edited.Layers, core.Layer{ID: "water", Type: "background"})
	if errs := eng.Propose(ctx, edited); len(errs) > 0 {
		log.Fatalf("rejected: %v", errs)
	}

	for _, msg := range eng.Undo() {
		fmt.Println(msg)
	}
	for _, msg := range eng.Redo() {
		fmt.Println(msg)
	}
	// Output:
	// undo: removed layer "water"
	// redo: added layer "water"
}
