package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-round/internal/app"
	"quiz-round/internal/domain"
	"quiz-round/internal/timer"
)

func startRunner(t *testing.T, r *app.Runner) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestRunnerExpiresRoundWithRealTimer(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	finished := make(chan app.Event, 1)
	var mu sync.Mutex
	var ticks []int

	r := app.NewRunner(timer.New(timer.WithInterval(5*time.Millisecond)), sink,
		app.WithRoundSeconds(3),
		app.WithObserver(func(ev app.Event) {
			switch ev.Kind {
			case app.EventTick:
				mu.Lock()
				ticks = append(ticks, ev.Remaining)
				mu.Unlock()
			case app.EventFinished:
				finished <- ev
			}
		}),
	)
	startRunner(t, r)

	require.NoError(t, r.Load(ctx, threeQuestions()))
	require.NoError(t, r.Start(ctx, "alice"))
	fb, accepted, err := r.Submit(ctx, "B")
	require.NoError(t, err)
	require.True(t, accepted)
	require.True(t, fb.Correct)

	select {
	case ev := <-finished:
		assert.Equal(t, app.ReasonExpired, ev.Reason)
		assert.Equal(t, 1, ev.Result.Score)
	case <-time.After(2 * time.Second):
		t.Fatalf("round did not expire")
	}

	snap, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, app.StateFinished, snap.State)
	assert.Equal(t, 0, snap.Remaining)
	require.NotNil(t, snap.Result)
	assert.Len(t, sink.saved(), 1)

	mu.Lock()
	assert.Equal(t, []int{2, 1, 0}, ticks)
	mu.Unlock()
}

func TestRunnerSerializesConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	sink := &recordingSink{}
	r := app.NewRunner(&fakeTimer{}, sink)
	startRunner(t, r)

	require.NoError(t, r.Load(ctx, threeQuestions()))
	require.NoError(t, r.Start(ctx, "alice"))

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := r.Submit(ctx, "B")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	snap, err := r.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Score)
	assert.Equal(t, app.StateAnswered, snap.State)
}

func TestRunnerSurfacesRejections(t *testing.T) {
	ctx := context.Background()
	r := app.NewRunner(&fakeTimer{}, &recordingSink{})
	startRunner(t, r)

	assert.ErrorIs(t, r.Start(ctx, "alice"), domain.ErrNoQuestions)
	require.NoError(t, r.Load(ctx, threeQuestions()))
	assert.ErrorIs(t, r.Start(ctx, ""), domain.ErrUsernameRequired)
}

func TestRunnerStoppedRejectsCalls(t *testing.T) {
	r := app.NewRunner(&fakeTimer{}, &recordingSink{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.Run(ctx)
	}()
	cancel()
	<-done

	_, err := r.Snapshot(context.Background())
	assert.ErrorIs(t, err, app.ErrRunnerStopped)
}
