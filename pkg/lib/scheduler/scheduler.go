// Package scheduler invokes an action at a fixed first time and every interval
// after that until disposed.
//
// The n-th tick is always scheduled at anchor + n×interval, never at
// "last completion + interval", so slow actions do not shift later ticks.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/metrics"
)

// Action is invoked once per tick. Its errors and panics are logged and
// swallowed. ctx is cancelled when the scheduler is disposed.
type Action func(ctx context.Context) error

// State is a consistent snapshot of a scheduler.
type State struct {
	Anchor   time.Time
	Interval time.Duration
	NextRun  time.Time
	// Runs counts completed ticks.
	Runs int64
	// Skipped counts slots passed over because the anchor was in the past or a tick overran.
	Skipped int64
	Stopped bool
}

type Scheduler struct {
	anchor   time.Time
	interval time.Duration
	action   Action
	now      func() time.Time
	logger   *zap.SugaredLogger
	metrics  *metrics.Collector

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// tickMu is held from the stopped check until the action returns.
	tickMu sync.Mutex

	mu      sync.Mutex
	slot    int64
	runs    int64
	skipped int64
	stopped bool
}

type Option func(*Scheduler)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(s *Scheduler) { s.metrics = c }
}

// WithClock replaces time.Now for slot arithmetic.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New arms a scheduler. If firstRun is not after now, the first tick is
// deferred to firstRun + k×interval for the smallest k that lands after now;
// the anchor stays firstRun.
func New(firstRun time.Time, interval time.Duration, action Action, opts ...Option) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.Newf("interval must be positive, got %s", interval)
	}
	if action == nil {
		return nil, errors.New("action is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		anchor:   firstRun,
		interval: interval,
		action:   action,
		now:      time.Now,
		logger:   logging.ComponentLogger("scheduler"),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	s.skipPastLocked(s.now())
	next := s.nextRunLocked()
	s.mu.Unlock()

	s.metrics.SetNextRun(next)
	s.logger.Infow("Schedule armed",
		logging.FieldNextRun, next,
		logging.FieldInterval, interval)

	s.wg.Add(1)
	go s.run()
	return s, nil
}

// NextRun returns the currently scheduled tick.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRunLocked()
}

// Runs returns the number of completed ticks.
func (s *Scheduler) Runs() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Anchor:   s.anchor,
		Interval: s.interval,
		NextRun:  s.nextRunLocked(),
		Runs:     s.runs,
		Skipped:  s.skipped,
		Stopped:  s.stopped,
	}
}

// Dispose stops the scheduler. It cancels the context of an in-flight action
// and waits for that action to return, so no action runs or starts once
// Dispose returns. Safe to call more than once, but not from the action itself.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	// wait out an action that passed the stopped check
	s.tickMu.Lock()
	s.tickMu.Unlock()

	s.metrics.SetNextRun(time.Time{})
	s.logger.Infow("Schedule disposed", logging.FieldRuns, s.Runs())
}

// Wait blocks until the loop goroutine, including an in-flight action, has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) nextRunLocked() time.Time {
	return s.anchor.Add(time.Duration(s.slot) * s.interval)
}

// skipPastLocked advances the slot until the next run lies after now.
func (s *Scheduler) skipPastLocked(now time.Time) {
	next := s.nextRunLocked()
	if next.After(now) {
		return
	}
	k := int64(now.Sub(next)/s.interval) + 1
	s.slot += k
	s.skipped += k
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	timer := time.NewTimer(s.untilNext())
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		}

		if !s.tick() {
			return
		}
		timer.Reset(s.untilNext())
	}
}

func (s *Scheduler) untilNext() time.Duration {
	return max(s.NextRun().Sub(s.now()), 0)
}

func (s *Scheduler) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// fire invokes the action unless the scheduler is stopped. Dispose waits for
// tickMu, so the check and the invocation cannot straddle a Dispose.
func (s *Scheduler) fire() (bool, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	if s.isStopped() {
		return false, nil
	}
	return true, s.invoke()
}

// tick runs one slot and reports whether the loop should go on.
func (s *Scheduler) tick() bool {
	started := s.now()
	fired, err := s.fire()
	if !fired {
		return false
	}
	failed := err != nil
	if failed {
		s.logger.Warnw("Scheduled action failed", logging.FieldError, err)
	}

	now := s.now()
	s.mu.Lock()
	s.runs++
	s.slot++
	skippedBefore := s.skipped
	s.skipPastLocked(now)
	overrun := s.skipped - skippedBefore
	runs := s.runs
	next := s.nextRunLocked()
	stopped := s.stopped
	s.mu.Unlock()

	s.metrics.Tick(failed)
	if stopped {
		return false
	}
	s.metrics.SetNextRun(next)
	if overrun > 0 {
		s.logger.Warnw("Action overran scheduled slots", "skipped", overrun)
	}
	s.logger.Infow("Tick finished",
		logging.FieldRuns, runs,
		logging.FieldNextRun, next,
		logging.FieldDurationMS, now.Sub(started).Milliseconds())
	return true
}

func (s *Scheduler) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("action panicked: %s", fmt.Sprint(r))
		}
	}()
	return s.action(s.ctx)
}
