package fs

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/atlas/pkg/core"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)
	var delivered atomic.Int32

	ev := core.Event{Type: core.EventModify, ID: "doc-1"}
	for i := 0; i < 5; i++ {
		d.add(ev, func(core.Event) { delivered.Add(1) })
	}

	assert.Eventually(t, func() bool {
		return delivered.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	d.stopAndWait(2 * time.Second)
	assert.Equal(t, int32(1), delivered.Load())
}

// Re-adding a key right as its timer expires races the fired callback
// against the replacement. The WaitGroup bookkeeping must stay balanced
// and the replacement timer must survive the stale callback's cleanup.
func TestDebouncerReplaceAtExpiryBoundary(t *testing.T) {
	d := newDebouncer(time.Millisecond)
	var delivered atomic.Int32

	ev := core.Event{Type: core.EventModify, ID: "doc-1"}
	deadline := time.Now().Add(250 * time.Millisecond)
	for time.Now().Before(deadline) {
		d.add(ev, func(core.Event) { delivered.Add(1) })
		time.Sleep(time.Millisecond)
	}

	d.stopAndWait(2 * time.Second)
	assert.Positive(t, delivered.Load())
}

func TestDebouncerDistinctKeysDeliverSeparately(t *testing.T) {
	d := newDebouncer(10 * time.Millisecond)
	var delivered atomic.Int32

	d.add(core.Event{Type: core.EventModify, ID: "a"}, func(core.Event) { delivered.Add(1) })
	d.add(core.Event{Type: core.EventModify, ID: "b"}, func(core.Event) { delivered.Add(1) })

	assert.Eventually(t, func() bool {
		return delivered.Load() == 2
	}, 2*time.Second, 5*time.Millisecond)

	d.stopAndWait(2 * time.Second)
}

func TestDebouncerRejectsAfterStop(t *testing.T) {
	d := newDebouncer(time.Millisecond)
	d.stopAndWait(time.Second)

	var delivered atomic.Int32
	d.add(core.Event{Type: core.EventModify, ID: "a"}, func(core.Event) { delivered.Add(1) })

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, delivered.Load())
}
