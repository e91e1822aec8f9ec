// Package debounce delays an action until its input stops changing for a
// fixed interval.
package debounce

import (
	"sync"
	"time"
)

// Debouncer calls fn with the most recent value once Trigger has not been
// called for delay.  Each Trigger cancels the pending timer.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	latest  T
	gen     uint64
}

// New returns a Debouncer.  fn runs on its own goroutine.
func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Delay returns the configured interval.
func (d *Debouncer[T]) Delay() time.Duration { return d.delay }

// Trigger records v and restarts the timer.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latest = v
	d.pending = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Flush runs a pending call now.  It reports whether one was pending.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	v := d.take()
	d.mu.Unlock()
	d.fn(v)
	return true
}

// Stop drops any pending call.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.take()
}

// Pending reports whether a call is waiting for the timer.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// a Trigger, Flush or Stop after this timer was armed supersedes it
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	v := d.take()
	d.mu.Unlock()
	d.fn(v)
}

// take must be called with mu held.
func (d *Debouncer[T]) take() T {
	var zero T
	v := d.latest
	d.latest = zero
	d.pending = false
	d.gen++
	d.timer = nil
	return v
}
