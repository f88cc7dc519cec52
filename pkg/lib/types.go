package lib

import (
	"fmt"
	"time"
)

// ProcessState mirrors the high-level run states reported over the API.
type ProcessState int

const (
	ProcessStateUnspecified ProcessState = iota
	ProcessStateRunning
	ProcessStateStopped
)

func (s ProcessState) String() string {
	switch s {
	case ProcessStateRunning:
		return "running"
	case ProcessStateStopped:
		return "stopped"
	default:
		return "unspecified"
	}
}

// RunRequest describes one invocation of the external script.
// It is built fresh by the caller for every run and not modified afterwards.
type RunRequest struct {
	// Executable is the interpreter or program to launch (e.g. "python").
	Executable string
	// Script is passed as the first argument. When set it must exist on disk.
	Script string
	// Args follow the script, in order.
	Args []string
	// Dir is the working directory; empty inherits the runner's.
	Dir string
	// Env overrides are merged on top of the inherited environment.
	Env map[string]string
}

// Argv returns the full argument vector after the executable.
func (r RunRequest) Argv() []string {
	argv := make([]string, 0, len(r.Args)+1)
	if r.Script != "" {
		argv = append(argv, r.Script)
	}
	return append(argv, r.Args...)
}

// Command captures command metadata used to start a process.
type Command struct {
	Command string
	Args    []string
}

// Stream identifies which child pipe a line came from.
type Stream int

const (
	StreamStdout Stream = iota
	StreamStderr
)

func (s Stream) String() string {
	if s == StreamStderr {
		return "stderr"
	}
	return "stdout"
}

// OutputLine is a single decoded line of child output.
type OutputLine struct {
	Stream Stream
	Text   string
	Time   time.Time
}

// OutcomeKind enumerates terminal results of a run.
type OutcomeKind int

const (
	OutcomeUnknown OutcomeKind = iota
	OutcomeCompleted
	OutcomeCancelled
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunOutcome is the terminal result of a run. Exactly one is produced per run.
type RunOutcome struct {
	Kind     OutcomeKind
	ExitCode int
	Err      error
}

func Completed(exitCode int) RunOutcome {
	return RunOutcome{Kind: OutcomeCompleted, ExitCode: exitCode}
}

func Cancelled() RunOutcome {
	return RunOutcome{Kind: OutcomeCancelled, ExitCode: -1}
}

func Failed(err error) RunOutcome {
	return RunOutcome{Kind: OutcomeFailed, ExitCode: -1, Err: err}
}

// String renders the final status line shown to users.
func (o RunOutcome) String() string {
	switch o.Kind {
	case OutcomeCompleted:
		if o.ExitCode == 0 {
			return "completed"
		}
		return fmt.Sprintf("completed with exit code %d", o.ExitCode)
	case OutcomeCancelled:
		return "cancelled by user"
	case OutcomeFailed:
		if o.Err != nil {
			return fmt.Sprintf("failed: %v", o.Err)
		}
		return "failed"
	default:
		return "unknown"
	}
}

// ProcessStatus captures runtime state and timestamps.
type ProcessStatus struct {
	ID        string
	PID       int
	State     ProcessState
	ExitCode  *int
	StartTime time.Time
	EndTime   *time.Time
	Outcome   *RunOutcome
}
