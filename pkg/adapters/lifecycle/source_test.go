package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/atlas/pkg/core"
)

func TestSourceForwardsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event, 1)
	src := NewSource(in)
	require.NoError(t, src.Start(ctx))

	want := core.Event{Type: core.EventModify, ID: "doc-1", Timestamp: time.Now().Unix()}
	in <- want

	select {
	case got := <-src.Events():
		ev, ok := got.(core.Event)
		require.True(t, ok, "expected a core.Event, got %T", got)
		assert.Equal(t, want, ev)
		assert.Equal(t, "MODIFY doc-1", got.String())
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forwarded event")
	}
}

func TestSourceClosesWhenInputCloses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan core.Event)
	src := NewSource(in)
	require.NoError(t, src.Start(ctx))

	close(in)

	select {
	case _, ok := <-src.Events():
		assert.False(t, ok, "output channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for output to close")
	}
}
