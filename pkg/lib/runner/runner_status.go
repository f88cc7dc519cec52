package runner

import (
	"github.com/cockroachdb/errors"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
)

type StatusResult struct {
	Command *lib.Command
	Status  *lib.ProcessStatus
}

// Status returns the command and current status of a run by identifier.
func (runner *Runner) Status(id string) (*StatusResult, error) {
	h, err := runner.getProcess(id)
	if err != nil {
		return nil, err
	}

	status := h.lockAndGetStatus()
	return &StatusResult{
		Command: &lib.Command{Command: h.request.Executable, Args: h.request.Argv()},
		Status:  &status,
	}, nil
}

// List returns the statuses of remembered runs, oldest first, then the active one.
func (runner *Runner) List() []lib.ProcessStatus {
	runner.mu.Lock()
	handles := make([]*RunHandle, 0, len(runner.order)+1)
	for _, id := range runner.order {
		handles = append(handles, runner.history[id])
	}
	if runner.active != nil {
		handles = append(handles, runner.active)
	}
	runner.mu.Unlock()

	out := make([]lib.ProcessStatus, 0, len(handles))
	for _, h := range handles {
		out = append(out, h.lockAndGetStatus())
	}
	return out
}

func (runner *Runner) getProcess(id string) (*RunHandle, error) {
	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.active != nil && runner.active.id == id {
		return runner.active, nil
	}
	if h, ok := runner.history[id]; ok {
		return h, nil
	}
	return nil, errors.Wrapf(lib.ErrNotFound, "run %s", id)
}
