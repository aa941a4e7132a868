package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeClock advances instantly when slept on.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	return nil
}

func TestSchedulerRunsInSubmissionOrder(t *testing.T) {
	clock := newFakeClock()
	s := New(2, clock, zaptest.NewLogger(t))
	defer s.Close()

	var (
		mu      sync.Mutex
		order   []int
		starts  []time.Time
		running atomic.Int32
		maxSeen atomic.Int32
	)

	results := make([]<-chan error, 5)
	for i := range results {
		results[i] = s.Go(context.Background(), func(ctx context.Context) error {
			n := running.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			defer running.Add(-1)

			mu.Lock()
			order = append(order, i)
			starts = append(starts, clock.Now())
			mu.Unlock()
			return nil
		})
	}
	for _, done := range results {
		require.NoError(t, <-done)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, int32(1), maxSeen.Load())
	for i := 1; i < len(starts); i++ {
		assert.GreaterOrEqual(t, starts[i].Sub(starts[i-1]), 500*time.Millisecond)
	}
	assert.Len(t, clock.sleeps, 4, "the first job starts immediately")
}

func TestSchedulerPropagatesJobError(t *testing.T) {
	s := New(0, newFakeClock(), zaptest.NewLogger(t))
	defer s.Close()

	boom := errors.New("upstream down")
	err := s.Do(context.Background(), func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	require.NoError(t, s.Do(context.Background(), func(context.Context) error { return nil }))
}

func TestSchedulerSkipsCancelledJobs(t *testing.T) {
	s := New(1, newFakeClock(), zaptest.NewLogger(t))
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	err := <-s.Go(ctx, func(context.Context) error {
		ran.Store(true)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran.Load())
}

func TestSchedulerClose(t *testing.T) {
	s := New(1, newFakeClock(), zaptest.NewLogger(t))
	s.Close()
	s.Close()

	err := s.Do(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRealClockSleepHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RealClock{}.Sleep(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
