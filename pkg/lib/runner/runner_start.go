package runner

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
)

// Start validates request and spawns the child. Lines go to sink (may be nil) and
// to the run's replayable output. The run is cancelled when ctx is done.
//
// Validation and spawn errors are returned synchronously and nothing is left
// running; everything that happens after spawn surfaces as the run's outcome.
func (runner *Runner) Start(ctx context.Context, request lib.RunRequest, sink Sink) (*RunHandle, error) {
	if request.Executable == "" {
		runner.metrics.RunRejected("invalid_request")
		return nil, errors.Wrap(lib.ErrInvalidRequest, "executable is required")
	}
	if err := checkScript(request); err != nil {
		runner.metrics.RunRejected("invalid_script")
		return nil, err
	}

	// reserve the slot; the spawn itself happens outside the lock
	runner.mu.Lock()
	if runner.active != nil || runner.starting {
		runner.mu.Unlock()
		runner.metrics.RunRejected("already_running")
		return nil, errors.Wrap(lib.ErrAlreadyRunning, "another run holds the runner")
	}
	runner.starting = true
	runner.mu.Unlock()

	h, err := runner.spawn(request, sink)

	runner.mu.Lock()
	runner.starting = false
	if err == nil {
		runner.active = h
	}
	runner.mu.Unlock()
	if err != nil {
		runner.metrics.RunRejected("spawn_failure")
		return nil, err
	}
	runner.metrics.RunStarted()

	log := runner.logger.With(logging.FieldRunID, lib.ShortID(h.id))
	h.stopCtx = context.AfterFunc(ctx, func() {
		log.Infow("Context done, cancelling run")
		runner.Cancel(h)
	})

	h.pipeline.run()
	go runner.supervise(h, h.pipeline)

	return h, nil
}

// spawn starts the child for request. On error nothing is left running.
func (runner *Runner) spawn(request lib.RunRequest, sink Sink) (*RunHandle, error) {
	processId := lib.NewID()
	log := runner.logger.With(logging.FieldRunID, lib.ShortID(processId))

	// cmd.Stdin is left nil, so it will use /dev/null
	cmd := exec.Command(request.Executable, request.Argv()...)
	cmd.Dir = request.Dir
	cmd.Env = buildEnv(os.Environ(), request.Env)
	cmd.WaitDelay = runner.waitDelay

	sysProcAttr, err := GetSysProcAttr(processId)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "prepare process attributes"), lib.ErrSpawnFailure)
	}
	cmd.SysProcAttr = sysProcAttr.Raw

	h := newRunHandle(processId, request)
	h.cmd = cmd
	h.pipeline = runner.newPipeline(h, sink)
	cmd.Stdout = h.pipeline.stdout()
	cmd.Stderr = h.pipeline.stderr()

	if runner.beforeSpawn != nil {
		runner.beforeSpawn()
	}

	log.Infow("Starting process",
		logging.FieldExecutable, request.Executable,
		logging.FieldScript, request.Script)
	err = cmd.Start()
	if sysProcAttr.File != nil {
		_ = sysProcAttr.File.Close()
	}
	if err != nil {
		_ = CleanupCgroup(processId)
		log.Warnw("Failed to start process", logging.FieldError, err)
		return nil, errors.Mark(errors.Wrapf(err, "start %s", request.Executable), lib.ErrSpawnFailure)
	}

	h.pid = cmd.Process.Pid
	h.start = time.Now()
	log.Infow("Process started", logging.FieldPID, h.pid)
	return h, nil
}

// Run starts request and waits for its outcome. Validation and spawn errors
// are returned as Failed outcomes along with the error.
func (runner *Runner) Run(ctx context.Context, request lib.RunRequest, sink Sink) (lib.RunOutcome, error) {
	h, err := runner.Start(ctx, request, sink)
	if err != nil {
		return lib.Failed(err), err
	}
	return runner.WaitForExit(context.WithoutCancel(ctx), h)
}

func checkScript(request lib.RunRequest) error {
	if request.Script == "" {
		return nil
	}
	path := request.Script
	if !filepath.IsAbs(path) && request.Dir != "" {
		path = filepath.Join(request.Dir, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return errors.WithHint(
			errors.Mark(errors.Wrapf(err, "script %q", request.Script), lib.ErrInvalidScript),
			"check the script path in the run configuration")
	}
	if info.IsDir() {
		return errors.Wrapf(lib.ErrInvalidScript, "script %q is a directory", request.Script)
	}
	return nil
}

// supervise waits for the child, drains its output and publishes the outcome.
// It is the only place that releases the run's resources.
func (runner *Runner) supervise(h *RunHandle, p *pipeline) {
	log := runner.logger.With(logging.FieldRunID, lib.ShortID(h.id))
	log.Debugw("Waiting for process to finish", logging.FieldPID, h.pid)

	err := h.cmd.Wait()

	var exitCode *int
	if ps := h.cmd.ProcessState; ps != nil {
		code := ps.ExitCode()
		exitCode = &code
	}
	h.markExited(exitCode)

	p.close()
	h.output.Stop()

	outcome := runner.outcomeOf(h, err)

	if err := CleanupCgroup(h.id); err != nil {
		log.Debugw("Cgroup cleanup failed", logging.FieldError, err)
	}

	runner.mu.Lock()
	if runner.active == h {
		runner.active = nil
	}
	runner.remember(h)
	runner.mu.Unlock()

	duration := time.Since(h.start)
	runner.metrics.RunFinished(outcome.Kind.String(), duration)
	log.Infow("Process finished",
		logging.FieldOutcome, outcome.String(),
		logging.FieldDurationMS, duration.Milliseconds())

	h.finish(outcome)
}

// outcomeOf prefers the child's own exit over a later cancel: the child may exit
// while a grandchild still holds the pipes, and a cancel in that window only
// kills the leftovers.
func (runner *Runner) outcomeOf(h *RunHandle, waitErr error) lib.RunOutcome {
	ps := h.cmd.ProcessState
	if ps != nil && exitedOnItsOwn(ps) {
		// ErrWaitDelay only means a grandchild held the pipes open; the child itself exited.
		return lib.Completed(ps.ExitCode())
	}
	if h.Cancelled() {
		return lib.Cancelled()
	}
	if ps == nil {
		return lib.Failed(errors.Wrap(waitErr, "wait"))
	}
	if code := ps.ExitCode(); code >= 0 {
		return lib.Completed(code)
	}
	return lib.Failed(errors.Newf("terminated: %s", ps.String()))
}
