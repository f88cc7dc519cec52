package runner

import (
	"context"
	"os/exec"
	"sync"
	"time"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/output_storage"
)

// Sink receives every output line of a run. Calls come from one goroutine per run.
type Sink func(lib.OutputLine)

// RunHandle is one in-flight execution.
type RunHandle struct {
	id       string
	request  lib.RunRequest
	cmd      *exec.Cmd
	pid      int
	start    time.Time
	output   *output_storage.OutputStorage
	pipeline *pipeline
	done     chan struct{}

	// stopCtx detaches the handle from the context passed to Start.
	stopCtx func() bool

	mu          sync.RWMutex
	exited      bool
	cancelled   bool
	cancelledAt time.Time
	end         *time.Time
	exitCode    *int
	outcome     *lib.RunOutcome
}

func newRunHandle(id string, request lib.RunRequest) *RunHandle {
	return &RunHandle{
		id:      id,
		request: request,
		output:  output_storage.RunNewOutputStorage(),
		done:    make(chan struct{}),
		stopCtx: func() bool { return false },
	}
}

func (h *RunHandle) ID() string { return h.id }

func (h *RunHandle) PID() int { return h.pid }

func (h *RunHandle) Request() lib.RunRequest { return h.request }

// Done is closed once the outcome is published and the runner is free.
func (h *RunHandle) Done() <-chan struct{} { return h.done }

// Outcome returns the terminal outcome once available.
func (h *RunHandle) Outcome() (lib.RunOutcome, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.outcome == nil {
		return lib.RunOutcome{}, false
	}
	return *h.outcome, true
}

// Cancelled reports whether cancellation was requested.
func (h *RunHandle) Cancelled() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cancelled
}

// Output replays every line of the run and follows new ones until the run ends or ctx is done.
func (h *RunHandle) Output(ctx context.Context) <-chan lib.OutputLine {
	return h.output.Subscribe(ctx, 64)
}

func (h *RunHandle) cancelledFor(now time.Time) time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.cancelled {
		return 0
	}
	return now.Sub(h.cancelledAt)
}

func (h *RunHandle) markExited(exitCode *int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exited = true
	h.exitCode = exitCode
	now := time.Now()
	h.end = &now
}

func (h *RunHandle) finish(outcome lib.RunOutcome) {
	h.mu.Lock()
	h.outcome = &outcome
	h.mu.Unlock()
	h.stopCtx()
	close(h.done)
}

func (h *RunHandle) lockAndGetStatus() lib.ProcessStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	st := lib.ProcessStatus{ID: h.id, PID: h.pid, State: lib.ProcessStateRunning, StartTime: h.start}
	if h.outcome != nil {
		st.State = lib.ProcessStateStopped
		o := *h.outcome
		st.Outcome = &o
	}
	if h.exitCode != nil {
		st.ExitCode = new(int)
		*st.ExitCode = *h.exitCode
	}
	if h.end != nil {
		t := *h.end
		st.EndTime = &t
	}
	return st
}
