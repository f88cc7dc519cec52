package runner

import (
	"os"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/metrics"
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultKillGrace    = 2 * time.Second
	DefaultWaitDelay    = 2 * time.Second
	DefaultHistory      = 16
)

// SysProcAttr carries platform process attributes. File, when set, must stay
// open until the child is spawned and is closed right after.
type SysProcAttr struct {
	File *os.File
	Raw  *syscall.SysProcAttr
}

// Runner supervises at most one child process at a time and keeps a bounded
// history of finished runs.
type Runner struct {
	mu       sync.Mutex
	active   *RunHandle
	starting bool
	history  map[string]*RunHandle
	order    []string

	maxHistory   int
	pollInterval time.Duration
	killGrace    time.Duration
	waitDelay    time.Duration

	logger  *zap.SugaredLogger
	metrics *metrics.Collector

	// beforeSpawn, when set, runs right before the child is started.
	beforeSpawn func()
}

type Option func(*Runner)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = c }
}

// WithPollInterval bounds how long WaitForExit may take to notice cancellation.
func WithPollInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithKillGrace sets how long WaitForExit waits for a killed tree before reporting Cancelled anyway.
func WithKillGrace(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.killGrace = d
		}
	}
}

// WithWaitDelay bounds how long output pipes are drained after the child exits,
// for grandchildren that keep the pipes open.
func WithWaitDelay(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.waitDelay = d
		}
	}
}

func WithHistory(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxHistory = n
		}
	}
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		history:      make(map[string]*RunHandle),
		maxHistory:   DefaultHistory,
		pollInterval: DefaultPollInterval,
		killGrace:    DefaultKillGrace,
		waitDelay:    DefaultWaitDelay,
		logger:       logging.ComponentLogger("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Busy reports whether a run is active or being started.
func (runner *Runner) Busy() bool {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	return runner.active != nil || runner.starting
}

// Active returns the handle of the active run, or nil.
func (runner *Runner) Active() *RunHandle {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	return runner.active
}

// remember moves a finished handle into the history. Caller holds runner.mu.
func (runner *Runner) remember(h *RunHandle) {
	if _, ok := runner.history[h.id]; ok {
		return
	}
	runner.history[h.id] = h
	runner.order = append(runner.order, h.id)
	for len(runner.order) > runner.maxHistory {
		delete(runner.history, runner.order[0])
		runner.order = runner.order[1:]
	}
}
