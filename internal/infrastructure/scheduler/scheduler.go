// Package scheduler serialises calls to a rate-limited upstream. Jobs run one
// at a time in submission order, and consecutive starts are spaced at least
// 1/requestsPerSecond apart.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrClosed is returned for jobs submitted after Close.
var ErrClosed = errors.New("scheduler closed")

const queueSize = 1024

// Clock abstracts time so tests can run without waiting.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock uses the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// Scheduler is a FIFO queue drained by a single worker.
type Scheduler struct {
	limiter *rate.Limiter
	clock   Clock
	logger  *zap.Logger

	queue     chan job
	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// New starts a scheduler allowing requestsPerSecond job starts per second.
// A non-positive rate disables spacing.
func New(requestsPerSecond float64, clock Clock, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}

	s := &Scheduler{
		limiter: rate.NewLimiter(limit, 1),
		clock:   clock,
		logger:  logger.Named("scheduler"),
		queue:   make(chan job, queueSize),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

// Go enqueues fn and returns a channel that receives its result.
func (s *Scheduler) Go(ctx context.Context, fn func(ctx context.Context) error) <-chan error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case <-s.stop:
		j.done <- ErrClosed
		return j.done
	default:
	}

	select {
	case s.queue <- j:
	case <-s.stop:
		j.done <- ErrClosed
	case <-ctx.Done():
		j.done <- ctx.Err()
	}
	return j.done
}

// Do enqueues fn and waits for it to run.
func (s *Scheduler) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	done := s.Go(ctx, fn)
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports how many jobs are waiting.
func (s *Scheduler) Pending() int {
	return len(s.queue)
}

// Close stops the worker. Queued jobs that have not started fail with ErrClosed.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		<-s.stopped
		for {
			select {
			case j := <-s.queue:
				j.done <- ErrClosed
			default:
				return
			}
		}
	})
}

func (s *Scheduler) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.stop:
			return
		case j := <-s.queue:
			j.done <- s.execute(j)
		}
	}
}

func (s *Scheduler) execute(j job) error {
	if err := j.ctx.Err(); err != nil {
		return err
	}

	now := s.clock.Now()
	r := s.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		s.logger.Debug("Waiting for rate limit", zap.Duration("delay", delay), zap.Int("pending", len(s.queue)))
		if err := s.clock.Sleep(j.ctx, delay); err != nil {
			r.CancelAt(s.clock.Now())
			return err
		}
	}
	return j.fn(j.ctx)
}
