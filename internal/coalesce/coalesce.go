// Package coalesce provides rate-limiting helpers for chatty callers: a
// last-write-wins debouncer for settings writes and a gate that skips poll
// ticks while the previous request is still in flight.
package coalesce

import (
	"sync"
	"time"
)

// Debouncer delays delivery of values so rapid successive submissions
// collapse into one. Only the most recent value survives; intermediate
// values are dropped, never delivered.
type Debouncer[T any] struct {
	delay time.Duration
	emit  func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	armed   bool
}

// NewDebouncer delivers the latest submitted value to emit after delay of
// quiet. A delay of zero delivers synchronously.
func NewDebouncer[T any](delay time.Duration, emit func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, emit: emit}
}

// Submit replaces any pending value and restarts the quiet timer.
func (d *Debouncer[T]) Submit(value T) {
	if d.delay <= 0 {
		d.emit(value)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = value
	d.armed = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fire)
		return
	}
	d.timer.Reset(d.delay)
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return
	}
	value := d.pending
	d.armed = false
	d.mu.Unlock()

	d.emit(value)
}

// Flush delivers the pending value immediately, if any. Call on teardown
// so the final write is never lost to the quiet timer.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	value := d.pending
	d.armed = false
	d.mu.Unlock()

	d.emit(value)
}

// Gate skips work while a previous invocation is still running. Use it on
// a poll tick whose handler may outlast the poll interval: ticks that
// arrive mid-request are dropped instead of queueing.
type Gate struct {
	mu    sync.Mutex
	inUse bool
}

// TryAcquire reports whether the caller may proceed. A true return must be
// paired with Release.
func (g *Gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inUse {
		return false
	}
	g.inUse = true
	return true
}

// Release marks the gate free again.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inUse = false
}

// Do runs fn if the gate is free, reporting whether it ran.
func (g *Gate) Do(fn func()) bool {
	if !g.TryAcquire() {
		return false
	}
	defer g.Release()
	fn()
	return true
}
