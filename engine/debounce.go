package engine

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into a single firing. N triggers
// within the window produce exactly one callback carrying the most recent
// reason; the next trigger after the window opens a new cycle.
type Debouncer struct {
	window time.Duration
	fire   func(reason string)

	mu      sync.Mutex
	timer   *time.Timer
	reason  string
	stopped bool
}

// NewDebouncer creates a debouncer with the given coalescing window.
func NewDebouncer(window time.Duration, fire func(reason string)) *Debouncer {
	return &Debouncer{window: window, fire: fire}
}

// Trigger schedules a firing, extending the pending window if one is
// already open.
func (d *Debouncer) Trigger(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.reason = reason
	if d.timer != nil {
		d.timer.Reset(d.window)
		return
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		reason := d.reason
		d.timer = nil
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			d.fire(reason)
		}
	})
}

// Stop cancels any pending firing.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
