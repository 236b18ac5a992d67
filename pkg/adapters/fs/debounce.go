package fs

import (
	"sync"
	"time"

	"github.com/aretw0/atlas/pkg/core"
)

// debouncer coalesces rapid bursts of events for the same style ID. Editors
// often emit several writes per save; only the last one within the window
// is delivered.
type debouncer struct {
	delay   time.Duration
	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending sync.WaitGroup
	stopped bool
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

// add schedules deliver(event) after the debounce delay, replacing any
// pending delivery for the same ID.
func (d *debouncer) add(event core.Event, deliver func(core.Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	key := string(event.Type) + ":" + event.ID
	if t, ok := d.timers[key]; ok {
		// Stop reports false when the timer already fired; its callback
		// will balance the WaitGroup itself.
		if t.Stop() {
			d.pending.Done()
		}
	}

	d.pending.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		defer d.pending.Done()
		d.mu.Lock()
		// A fired-but-blocked callback must not unregister (or deliver
		// ahead of) a replacement timer scheduled for the same key in
		// the meantime.
		current := d.timers[key] == t
		if current {
			delete(d.timers, key)
		}
		stopped := d.stopped
		d.mu.Unlock()
		if stopped || !current {
			return
		}
		deliver(event)
	})
	d.timers[key] = t
}

// stopAndWait refuses new events, cancels pending timers, and waits for
// in-flight deliveries to finish (bounded by timeout).
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.timers {
		if t.Stop() {
			d.pending.Done()
		}
		delete(d.timers, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
