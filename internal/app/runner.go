package app

import (
	"context"
	"errors"
	"sync"

	"quiz-round/internal/domain"
)

// ErrRunnerStopped is returned for calls made after Run has exited.
var ErrRunnerStopped = errors.New("session runner stopped")

// Runner owns a Session and applies every call and timer callback to it from
// a single goroutine, in arrival order.
type Runner struct {
	session *Session

	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewRunner builds the session it serializes. Options are passed through to
// NewSession; the dispatcher is always the runner's own queue.
func NewRunner(timer Timer, sink ResultSink, opts ...Option) *Runner {
	r := &Runner{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	opts = append(opts, WithDispatcher(r.enqueue))
	r.session = NewSession(timer, sink, opts...)
	return r
}

// Run processes queued work until ctx is done, then stops the timer.
func (r *Runner) Run(ctx context.Context) error {
	defer r.once.Do(func() { close(r.stopped) })
	defer r.session.close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.wake:
			for _, fn := range r.drain() {
				fn()
			}
		}
	}
}

// enqueue never blocks, so timer callbacks cannot stall against a caller
// that is waiting on the loop.
func (r *Runner) enqueue(fn func()) {
	r.mu.Lock()
	r.pending = append(r.pending, fn)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runner) drain() []func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch := r.pending
	r.pending = nil
	return batch
}

// do runs fn on the loop and waits for it.
func (r *Runner) do(ctx context.Context, fn func(s *Session)) error {
	done := make(chan struct{})
	r.enqueue(func() {
		defer close(done)
		fn(r.session)
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-r.stopped:
		return ErrRunnerStopped
	}
}

func (r *Runner) Load(ctx context.Context, questions []domain.Question) error {
	return r.do(ctx, func(s *Session) { s.Load(questions) })
}

func (r *Runner) Start(ctx context.Context, username string) error {
	var startErr error
	if err := r.do(ctx, func(s *Session) { startErr = s.Start(username) }); err != nil {
		return err
	}
	return startErr
}

// Submit returns accepted=false when the session was not waiting for an answer.
func (r *Runner) Submit(ctx context.Context, text string) (fb Feedback, accepted bool, err error) {
	err = r.do(ctx, func(s *Session) { fb, accepted = s.SubmitAnswer(text) })
	return fb, accepted, err
}

func (r *Runner) Advance(ctx context.Context) error {
	var advErr error
	if err := r.do(ctx, func(s *Session) { advErr = s.Advance(ctx) }); err != nil {
		return err
	}
	return advErr
}

func (r *Runner) Expire(ctx context.Context) error {
	var expErr error
	if err := r.do(ctx, func(s *Session) { expErr = s.Expire(ctx) }); err != nil {
		return err
	}
	return expErr
}

func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := r.do(ctx, func(s *Session) { snap = s.Snapshot() })
	return snap, err
}
