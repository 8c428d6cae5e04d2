// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package debounce

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Debouncer delays calls to a function until no new call has been made for the configured
// interval. Only the arguments of the latest call are delivered.
type Debouncer[T any] struct {
	clock    clockwork.Clock
	interval time.Duration
	fn       func(T)

	mu    sync.Mutex
	gen   uint64
	timer clockwork.Timer
}

type options struct {
	clock clockwork.Clock
}

// Option configures a Debouncer.
type Option func(*options)

// WithClock sets the clock the debouncer schedules its timers on.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func New[T any](interval time.Duration, fn func(T), opts ...Option) *Debouncer[T] {
	o := &options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(o)
	}
	return &Debouncer[T]{
		clock:    o.clock,
		interval: interval,
		fn:       fn,
	}
}

// Wrap returns a function that debounces calls to fn by interval.
func Wrap[T any](fn func(T), interval time.Duration, opts ...Option) func(T) {
	return New(interval, fn, opts...).Call
}

// Call cancels the pending call, if any, and schedules fn with value.
func (d *Debouncer[T]) Call(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.interval, func() {
		d.fire(gen, value)
	})
}

// Stop cancels the pending call. The debouncer stays usable.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// A timer that already fired cannot be stopped, so the generation decides whether the
// call is still the latest one.
func (d *Debouncer[T]) fire(gen uint64, value T) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn(value)
}
