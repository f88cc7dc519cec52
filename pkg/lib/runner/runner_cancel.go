package runner

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
)

// Cancel kills the whole process tree of h. It returns immediately; the outcome
// becomes Cancelled once the supervisor reaps the child. Cancelling a finished
// run is a no-op.
func (runner *Runner) Cancel(h *RunHandle) {
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.exited {
		h.mu.Unlock()
		return
	}
	if !h.cancelled {
		h.cancelled = true
		h.cancelledAt = time.Now()
	}
	h.mu.Unlock()

	runner.logger.Infow("Cancelling run",
		logging.FieldRunID, lib.ShortID(h.id),
		logging.FieldPID, h.pid)
	runner.killTree(h)
}

// CancelActive cancels the active run, if any.
func (runner *Runner) CancelActive() error {
	h := runner.Active()
	if h == nil {
		return lib.ErrNotRunning
	}
	runner.Cancel(h)
	return nil
}

// CancelByID cancels the run with the given identifier and returns its status.
// The status is taken before the supervisor reaps the child, so it may still read running.
func (runner *Runner) CancelByID(id string) (*StatusResult, error) {
	h, err := runner.getProcess(id)
	if err != nil {
		return nil, err
	}
	runner.Cancel(h)
	return runner.Status(id)
}

// killTree kills the child's cgroup or process group, then every descendant
// found in the process table, so processes that left the group are not orphaned.
func (runner *Runner) killTree(h *RunHandle) {
	log := runner.logger.With(logging.FieldRunID, lib.ShortID(h.id))

	// Snapshot first: once the parent dies its children are reparented.
	descendants, err := descendantsOf(int32(h.pid))
	if err != nil {
		log.Debugw("Process table walk failed", logging.FieldError, err)
	}

	// Best-effort platform-specific kill: prefer cgroup kill on Linux, else kill process group
	succeeded, err := KillCgroup(h.id)
	if err != nil {
		log.Debugw("Cgroup kill failed", logging.FieldError, err)
	}
	if !succeeded {
		if err := killProcessGroup(h.pid); err != nil {
			log.Debugw("Process group kill failed", logging.FieldError, err)
		}
	}

	for _, p := range descendants {
		if err := p.Kill(); err != nil {
			log.Debugw("Descendant kill failed", logging.FieldPID, p.Pid, logging.FieldError, err)
		}
	}

	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		log.Warnw("Process kill failed", logging.FieldError, err)
	}
}

// descendantsOf returns every process below root, parents before children.
func descendantsOf(root int32) ([]*process.Process, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, errors.Wrap(err, "list processes")
	}

	children := make(map[int32][]*process.Process)
	for _, p := range procs {
		ppid, err := p.Ppid()
		if err != nil {
			continue
		}
		children[ppid] = append(children[ppid], p)
	}

	var out []*process.Process
	queue := []int32{root}
	seen := map[int32]bool{root: true}
	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		for _, c := range children[pid] {
			if seen[c.Pid] {
				continue
			}
			seen[c.Pid] = true
			out = append(out, c)
			queue = append(queue, c.Pid)
		}
	}
	return out, nil
}
