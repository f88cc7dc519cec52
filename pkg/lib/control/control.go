// Package control is the caller side of the core: it runs requests through
// the runner, owns the single optional schedule and forwards continue signals.
package control

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/metrics"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/runner"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/scheduler"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/signal"
)

const (
	StatusIdle    = "idle"
	StatusRunning = "running"
)

// ErrRateLimited rejects continue requests sent faster than the configured rate.
var ErrRateLimited = errors.New("continue requests too frequent")

// Controller holds the process-wide state: one runner, at most one schedule.
type Controller struct {
	runner   *runner.Runner
	signaler *signal.Signaler
	limiter  *rate.Limiter
	sink     runner.Sink
	logger   *zap.SugaredLogger
	metrics  *metrics.Collector

	mu         sync.Mutex
	schedule   *scheduler.Scheduler
	scheduled  lib.RunRequest
	lastStatus string
	current    *runner.RunHandle
	finalized  chan struct{}
}

type Option func(*Controller)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Collector) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithSink receives the output of runs started without their own sink, scheduled runs included.
func WithSink(sink runner.Sink) Option {
	return func(c *Controller) { c.sink = sink }
}

// WithContinueRate limits how often continue signals may be sent.
func WithContinueRate(every time.Duration, burst int) Option {
	return func(c *Controller) {
		c.limiter = rate.NewLimiter(rate.Every(every), max(burst, 1))
	}
}

func New(r *runner.Runner, s *signal.Signaler, opts ...Option) *Controller {
	c := &Controller{
		runner:     r,
		signaler:   s,
		limiter:    rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
		logger:     logging.ComponentLogger("control"),
		lastStatus: StatusIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether a run is active. It flips back on every exit path.
func (c *Controller) Busy() bool {
	return c.runner.Busy()
}

// LastStatus is the final status string of the last run, or "running".
func (c *Controller) LastStatus() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastStatus
}

// RunNow starts request. A nil sink falls back to the controller's sink.
// The returned handle's outcome also becomes LastStatus.
func (c *Controller) RunNow(ctx context.Context, request lib.RunRequest, sink runner.Sink) (*runner.RunHandle, error) {
	if sink == nil {
		sink = c.sink
	}
	h, err := c.runner.Start(ctx, request, sink)
	if err != nil {
		if !errors.Is(err, lib.ErrAlreadyRunning) {
			// a rejected overlap must not overwrite the status of the run that is going on
			c.mu.Lock()
			c.lastStatus = lib.Failed(err).String()
			c.current = nil
			c.mu.Unlock()
		}
		return nil, err
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.lastStatus = StatusRunning
	c.current = h
	c.finalized = done
	c.mu.Unlock()
	go c.finalize(h, done)
	return h, nil
}

// finalize records the outcome of h however the run ends.
func (c *Controller) finalize(h *runner.RunHandle, done chan struct{}) {
	defer close(done)

	outcome, err := c.runner.WaitForExit(context.Background(), h)
	if err != nil {
		outcome = lib.Failed(err)
	}
	c.mu.Lock()
	if c.current == h {
		c.lastStatus = outcome.String()
	}
	c.mu.Unlock()
	c.logger.Infow("Run finalized",
		logging.FieldRunID, lib.ShortID(h.ID()),
		logging.FieldOutcome, outcome.String())
}

// WaitFinalized blocks until the status of the last started run is recorded or ctx is done.
func (c *Controller) WaitFinalized(ctx context.Context) error {
	c.mu.Lock()
	done := c.finalized
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel cancels the active run.
func (c *Controller) Cancel() error {
	return c.runner.CancelActive()
}

// Continue sends the continue signal to the active run.
func (c *Controller) Continue(ctx context.Context) error {
	if !c.limiter.Allow() {
		c.metrics.ContinueSignal("rate_limited")
		return ErrRateLimited
	}
	return c.signaler.Send(ctx)
}

// EnableSchedule starts running request at firstRun and every interval after.
func (c *Controller) EnableSchedule(firstRun time.Time, interval time.Duration, request lib.RunRequest) (scheduler.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.schedule != nil {
		return scheduler.State{}, lib.ErrScheduleActive
	}

	s, err := scheduler.New(firstRun, interval, c.scheduledRun(request),
		scheduler.WithLogger(c.logger.Named("schedule")),
		scheduler.WithMetrics(c.metrics))
	if err != nil {
		return scheduler.State{}, errors.Mark(err, lib.ErrInvalidRequest)
	}
	c.schedule = s
	c.scheduled = request
	return s.State(), nil
}

// scheduledRun starts a run per tick and does not wait for it. A tick that
// finds a run still active is rejected with lib.ErrAlreadyRunning. A disposed
// schedule starts nothing; a run it already started outlives the schedule.
func (c *Controller) scheduledRun(request lib.RunRequest) scheduler.Action {
	return func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "scheduled run")
		}
		h, err := c.RunNow(context.WithoutCancel(ctx), request, nil)
		if err != nil {
			return errors.Wrap(err, "scheduled run")
		}
		c.logger.Infow("Scheduled run started", logging.FieldRunID, lib.ShortID(h.ID()))
		return nil
	}
}

// DisableSchedule disposes the schedule. A run it started keeps going.
func (c *Controller) DisableSchedule() error {
	c.mu.Lock()
	s := c.schedule
	c.schedule = nil
	c.scheduled = lib.RunRequest{}
	c.mu.Unlock()

	if s == nil {
		return lib.ErrNoSchedule
	}
	s.Dispose()
	return nil
}

// ScheduleStatus returns the schedule state and the request it runs.
func (c *Controller) ScheduleStatus() (scheduler.State, lib.RunRequest, bool) {
	c.mu.Lock()
	s := c.schedule
	request := c.scheduled
	c.mu.Unlock()
	if s == nil {
		return scheduler.State{}, lib.RunRequest{}, false
	}
	return s.State(), request, true
}

// Close disposes the schedule, cancels the active run and waits for it until
// ctx is done, then removes any pending continue signal.
func (c *Controller) Close(ctx context.Context) error {
	_ = c.DisableSchedule()

	var errs error
	if h := c.runner.Active(); h != nil {
		c.runner.Cancel(h)
		if _, err := c.runner.WaitForExit(ctx, h); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrap(err, "wait for cancelled run"))
		}
	}
	if err := c.WaitFinalized(ctx); err != nil {
		errs = errors.CombineErrors(errs, err)
	}
	if err := c.signaler.Close(); err != nil {
		errs = errors.CombineErrors(errs, errors.Wrap(err, "close signaler"))
	}
	return errs
}
