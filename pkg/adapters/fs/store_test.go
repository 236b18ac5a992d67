package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/atlas/pkg/core"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store := NewStore(Config{Path: dir})
	require.NoError(t, store.Initialize(context.Background()))
	return store, dir
}

func sampleStyle(name string) *core.Style {
	s := core.NewStyle(name)
	s.Layers = []core.Layer{{ID: "background", Type: "background"}}
	return s
}

func TestSaveAndGet(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	rec := core.StyleRecord{ID: "doc-1", Style: sampleStyle("First"), UpdatedAt: time.Now()}
	require.NoError(t, store.Save(ctx, rec))

	// One <id>.json file under the root.
	_, err := os.Stat(filepath.Join(dir, "doc-1.json"))
	require.NoError(t, err)

	got, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)
	assert.True(t, rec.Style.Equal(got.Style))
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestGetMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSaveRejectsBadIDs(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "a/b", `a\b`, "../escape"} {
		err := store.Save(ctx, core.StyleRecord{ID: id, Style: sampleStyle("x")})
		assert.Error(t, err, "id %q must be rejected", id)
	}
}

func TestExistsAndDelete(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, core.StyleRecord{ID: "doc-1", Style: sampleStyle("x")}))

	ok, err := store.Exists(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete(ctx, "doc-1"))
	ok, err = store.Exists(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting again is not an error.
	assert.NoError(t, store.Delete(ctx, "doc-1"))
}

func TestList(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, core.StyleRecord{ID: "a", Style: sampleStyle("Style A")}))
	require.NoError(t, store.Save(ctx, core.StyleRecord{ID: "b", Style: sampleStyle("Style B")}))

	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	names := map[string]string{}
	for _, info := range infos {
		names[info.ID] = info.Name
	}
	assert.Equal(t, "Style A", names["a"])
	assert.Equal(t, "Style B", names["b"])

	// A second List is served from the index; results are identical.
	again, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestLatest(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Latest(ctx)
	assert.ErrorIs(t, err, core.ErrEmptyStore)

	require.NoError(t, store.Save(ctx, core.StyleRecord{ID: "old", Style: sampleStyle("Old")}))
	require.NoError(t, store.Save(ctx, core.StyleRecord{ID: "new", Style: sampleStyle("New")}))

	rec, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new", rec.ID)
}

func TestLatestSurvivesRestart(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, core.StyleRecord{ID: "doc-1", Style: sampleStyle("Persisted")}))

	reopened := NewStore(Config{Path: dir})
	require.NoError(t, reopened.Initialize(ctx))
	rec, err := reopened.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", rec.ID)
}

func TestLatestFallsBackToNewestFile(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	// A style written behind the store's back: no index entry at all.
	data, err := sampleStyle("External").Encode()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "external.json"), data, 0644))

	rec, err := store.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "external", rec.ID)
}

func TestPurge(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, core.StyleRecord{ID: "a", Style: sampleStyle("A")}))
	require.NoError(t, store.Save(ctx, core.StyleRecord{ID: "b", Style: sampleStyle("B")}))
	require.NoError(t, store.Purge(ctx))

	infos, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, infos)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.True(t, e.IsDir(), "only the system dir may survive a purge, found %s", e.Name())
	}
}

func TestMustExist(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	store := NewStore(Config{Path: missing, MustExist: true})
	assert.Error(t, store.Initialize(context.Background()))
}

func TestReconcileDetectsExternalChanges(t *testing.T) {
	store, dir := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, core.StyleRecord{ID: "keep", Style: sampleStyle("Keep")}))
	require.NoError(t, store.Save(ctx, core.StyleRecord{ID: "gone", Style: sampleStyle("Gone")}))
	_, err := store.List(ctx) // warm the index
	require.NoError(t, err)

	// External create, modify, delete.
	data, err := sampleStyle("New").Encode()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "created.json"), data, 0644))

	modified, err := sampleStyle("Keep v2").Encode()
	require.NoError(t, err)
	future := time.Now().Add(2 * time.Second)
	keepPath := filepath.Join(dir, "keep.json")
	require.NoError(t, os.WriteFile(keepPath, modified, 0644))
	require.NoError(t, os.Chtimes(keepPath, future, future))

	require.NoError(t, os.Remove(filepath.Join(dir, "gone.json")))

	events, err := store.Reconcile(ctx)
	require.NoError(t, err)

	byID := map[string]core.EventType{}
	for _, e := range events {
		byID[e.ID] = e.Type
	}
	assert.Equal(t, core.EventCreate, byID["created"])
	assert.Equal(t, core.EventModify, byID["keep"])
	assert.Equal(t, core.EventDelete, byID["gone"])

	// A second reconcile reports nothing new.
	events, err = store.Reconcile(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestWatchSeesExternalWrite(t *testing.T) {
	store, dir := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := store.Watch(ctx, "*")
	require.NoError(t, err)

	// Give the watcher a moment to arm.
	require.Eventually(t, func() bool {
		return store.State().(StoreState).WatcherActive
	}, 2*time.Second, 10*time.Millisecond)

	data, err := sampleStyle("Watched").Encode()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "watched.json"), data, 0644))

	select {
	case ev := <-events:
		assert.Equal(t, "watched", ev.ID)
	case <-time.After(3 * time.Second):
		t.Fatal("no event received for external write")
	}
}
