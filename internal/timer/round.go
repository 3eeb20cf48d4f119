// Package timer provides the countdown that bounds a quiz round.
package timer

import (
	"sync"
	"time"
)

// Ticker is the tick source a Round consumes. *time.Ticker satisfies it
// through NewTicker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type stdTicker struct{ t *time.Ticker }

func (s stdTicker) C() <-chan time.Time { return s.t.C }
func (s stdTicker) Stop()               { s.t.Stop() }

// NewTicker wraps time.NewTicker.
func NewTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

// Option configures a Round.
type Option func(*Round)

// WithInterval changes the step length. Defaults to one second.
func WithInterval(d time.Duration) Option {
	return func(r *Round) { r.interval = d }
}

// WithTickerFactory swaps the tick source, mainly for tests.
func WithTickerFactory(fn func(time.Duration) Ticker) Option {
	return func(r *Round) { r.newTicker = fn }
}

// Round counts down from a number of seconds to zero, one step per tick.
//
// onTick is invoked with the round's lock held, so no tick is delivered
// after Stop returns. Callbacks must not call back into the Round.
type Round struct {
	interval  time.Duration
	newTicker func(time.Duration) Ticker

	mu        sync.Mutex
	gen       uint64
	running   bool
	remaining int
	onTick    func(remaining int)
	done      chan struct{}
}

// New builds an idle Round.
func New(opts ...Option) *Round {
	r := &Round{
		interval:  time.Second,
		newTicker: NewTicker,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins a countdown of seconds steps. A running countdown is stopped
// first. Non-positive durations expire on the first tick.
func (r *Round) Start(seconds int, onTick func(remaining int), onExpire func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
	if seconds < 1 {
		seconds = 1
	}
	r.gen++
	r.running = true
	r.remaining = seconds
	r.onTick = onTick
	r.done = make(chan struct{})

	go r.run(r.gen, r.newTicker(r.interval), r.done, onExpire)
}

// Stop halts the countdown without calling onExpire. Safe to call repeatedly.
func (r *Round) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

// Remaining reports the seconds left; zero once expired.
func (r *Round) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Running reports whether a countdown is active.
func (r *Round) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Round) stopLocked() {
	if !r.running {
		return
	}
	r.running = false
	r.onTick = nil
	close(r.done)
}

func (r *Round) run(gen uint64, ticker Ticker, done <-chan struct{}, onExpire func()) {
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C():
			expired, alive := r.step(gen)
			if !alive {
				return
			}
			if expired {
				if onExpire != nil {
					onExpire()
				}
				return
			}
		}
	}
}

// step applies one tick. It reports alive=false when the countdown it
// belongs to has been stopped or replaced.
func (r *Round) step(gen uint64) (expired, alive bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.gen || !r.running {
		return false, false
	}
	r.remaining--
	if r.onTick != nil {
		r.onTick(r.remaining)
	}
	if r.remaining <= 0 {
		r.remaining = 0
		r.stopLocked()
		return true, true
	}
	return false, true
}
