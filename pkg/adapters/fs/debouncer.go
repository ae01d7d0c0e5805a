package fs

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of filesystem events per key: a rename-into-place
// produces several raw events, but subscribers only need the settled state.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{
		delay:  delay,
		timers: make(map[string]*time.Timer),
	}
}

// add schedules fn(key) after the delay, resetting any pending timer for key.
func (d *debouncer) add(key string, fn func(string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addLocked(key, fn)
}

func (d *debouncer) addLocked(key string, fn func(string)) {
	if d.stopped {
		return
	}

	if t, ok := d.timers[key]; ok {
		if t.Stop() {
			// The pending callback will never run; release its slot.
			d.wg.Done()
		}
	}

	d.wg.Add(1)
	var self *time.Timer
	self = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()

		d.mu.Lock()
		current := d.timers[key] == self
		if current {
			delete(d.timers, key)
		}
		stopped := d.stopped
		d.mu.Unlock()

		// A superseded timer whose Stop lost the race stays silent.
		if current && !stopped {
			fn(key)
		}
	})
	d.timers[key] = self
}

// stopAndWait rejects new events, cancels pending timers and waits (bounded)
// for callbacks that already started.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
}
