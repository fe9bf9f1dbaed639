// Package debounce provides a cancellable scheduled task with restart
// semantics: each Trigger cancels the pending run and schedules a new one.
package debounce

import (
	"context"
	"sync"
	"time"
)

// Debouncer runs fn once the quiet period has elapsed since the most recent
// Trigger. At most one run is ever pending.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(context.Context) error
	timer   *time.Timer
	gen     uint64 // bumped on every Trigger/Cancel; stale timers compare against it
	stopped bool
}

// New returns a Debouncer that calls fn after delay of inactivity. Errors
// from timer-driven runs are dropped; fn reports them itself.
func New(delay time.Duration, fn func(context.Context) error) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger (re)starts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush runs the pending task immediately on the calling goroutine and
// returns its error. ran reports whether anything was pending.
func (d *Debouncer) Flush(ctx context.Context) (ran bool, err error) {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return false, nil
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	d.mu.Unlock()

	return true, d.fn(ctx)
}

// Cancel drops the pending run, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Stop cancels any pending run and ignores further triggers.
func (d *Debouncer) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	_ = d.fn(context.Background())
}
