// Package atlas is the composition root for the atlas library.
//
// It connects the document engine (Domain Layer) with the persistence
// adapters using the Hexagonal Architecture pattern.
//
// Philosophy:
//
// Atlas is a headless map-style editor core. It owns a style document (the
// JSON that tells a map renderer what to draw), funnels every edit through
// a single validated commit path, and keeps a linear undo/redo history with
// human-readable change summaries. Rendering, UI, and network surfaces stay
// outside; they talk to the engine through plain method calls and change
// subscriptions.
//
// Features:
//
//   - **Single commit path**: every candidate document is validated before
//     it replaces the authoritative one; invalid candidates change nothing.
//   - **Linear history**: immutable snapshots with a cursor; a new edit
//     after undo discards the redo branch.
//   - **Diff summaries**: each undo/redo surfaces messages like
//     "undo: removed layer 'water'".
//   - **Metadata resolution**: fonts, sprite icons, and vector source
//     layers are fetched in the background and never block editing.
//   - **Pluggable persistence**: filesystem adapter (atomic writes, watch,
//     reconcile) and SQLite adapter out of the box, others via
//     core.StyleStore.
//
// Usage:
//
//	// Initialize an engine with functional options
//	eng, err := atlas.New("./styles",
//		atlas.WithAdapter("fs"),
//		atlas.WithLogger(logger),
//	)
//
//	// Commit an edit
//	next := eng.Current().Clone()
//	next.Name = "Midnight"
//	if errs := eng.Propose(ctx, next); len(errs) > 0 {
//		// candidate rejected, eng.Current() unchanged
//	}
package atlas
