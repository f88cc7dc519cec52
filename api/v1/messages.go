package apiv1

import (
	"time"
)

type ProcessState int32

const (
	ProcessState_PROCESS_STATE_UNSPECIFIED ProcessState = 0
	ProcessState_PROCESS_STATE_RUNNING     ProcessState = 1
	ProcessState_PROCESS_STATE_STOPPED     ProcessState = 2
)

type OutputType int32

const (
	GetOutputResponse_TYPE_UNSPECIFIED OutputType = 0
	GetOutputResponse_TYPE_STDOUT      OutputType = 1
	GetOutputResponse_TYPE_STDERR      OutputType = 2
)

type OutcomeKind int32

const (
	OutcomeKind_OUTCOME_UNSPECIFIED OutcomeKind = 0
	OutcomeKind_OUTCOME_COMPLETED   OutcomeKind = 1
	OutcomeKind_OUTCOME_CANCELLED   OutcomeKind = 2
	OutcomeKind_OUTCOME_FAILED      OutcomeKind = 3
)

type Process struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

func (x *Process) GetCommand() string {
	if x == nil {
		return ""
	}
	return x.Command
}

func (x *Process) GetArgs() []string {
	if x == nil {
		return nil
	}
	return x.Args
}

type Outcome struct {
	Kind     OutcomeKind `json:"kind"`
	ExitCode int32       `json:"exit_code"`
	// Message is the rendered final status, e.g. "cancelled by user".
	Message string `json:"message"`
}

type ProcessStatus struct {
	Pid       int32        `json:"pid"`
	State     ProcessState `json:"state"`
	ExitCode  *int32       `json:"exit_code,omitempty"`
	StartTime *time.Time   `json:"start_time,omitempty"`
	EndTime   *time.Time   `json:"end_time,omitempty"`
	Outcome   *Outcome     `json:"outcome,omitempty"`
}

func (x *ProcessStatus) GetState() ProcessState {
	if x == nil {
		return ProcessState_PROCESS_STATE_UNSPECIFIED
	}
	return x.State
}

func (x *ProcessStatus) GetOutcome() *Outcome {
	if x == nil {
		return nil
	}
	return x.Outcome
}

type RunRequest struct {
	Executable string            `json:"executable"`
	Script     string            `json:"script,omitempty"`
	Args       []string          `json:"args,omitempty"`
	Dir        string            `json:"dir,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
}

type RunResponse struct {
	ProcessIdentifier string         `json:"process_identifier"`
	Status            *ProcessStatus `json:"status"`
}

func (x *RunResponse) GetProcessIdentifier() string {
	if x == nil {
		return ""
	}
	return x.ProcessIdentifier
}

type CancelRequest struct {
	ProcessIdentifier string `json:"process_identifier"`
}

type CancelResponse struct {
	Process *Process       `json:"process"`
	Status  *ProcessStatus `json:"status"`
}

func (x *CancelResponse) GetProcess() *Process {
	if x == nil {
		return nil
	}
	return x.Process
}

func (x *CancelResponse) GetStatus() *ProcessStatus {
	if x == nil {
		return nil
	}
	return x.Status
}

type StatusRequest struct {
	ProcessIdentifier string `json:"process_identifier"`
}

type StatusResponse struct {
	ProcessIdentifier string         `json:"process_identifier"`
	Process           *Process       `json:"process"`
	Status            *ProcessStatus `json:"status"`
}

func (x *StatusResponse) GetProcess() *Process {
	if x == nil {
		return nil
	}
	return x.Process
}

func (x *StatusResponse) GetStatus() *ProcessStatus {
	if x == nil {
		return nil
	}
	return x.Status
}

type ListRequest struct{}

type ListResponse struct {
	Processes []*StatusResponse `json:"processes"`
	// LastStatus is the final status string of the most recent run.
	LastStatus string `json:"last_status"`
}

type GetOutputRequest struct {
	ProcessIdentifier string `json:"process_identifier"`
}

type GetOutputResponse struct {
	Type OutputType `json:"type"`
	Line string     `json:"line"`
	Time time.Time  `json:"time"`
}

func (x *GetOutputResponse) GetType() OutputType {
	if x == nil {
		return GetOutputResponse_TYPE_UNSPECIFIED
	}
	return x.Type
}

func (x *GetOutputResponse) GetLine() string {
	if x == nil {
		return ""
	}
	return x.Line
}

type ContinueRequest struct{}

type ContinueResponse struct {
	Path string `json:"path"`
}

type EnableScheduleRequest struct {
	// FirstRun wins over TimeOfDay when set.
	FirstRun *time.Time `json:"first_run,omitempty"`
	// TimeOfDay is "HH:MM" in the daemon's local time.
	TimeOfDay       string      `json:"time_of_day,omitempty"`
	IntervalSeconds int64       `json:"interval_seconds"`
	Request         *RunRequest `json:"request"`
}

type Schedule struct {
	Anchor          time.Time   `json:"anchor"`
	NextRun         time.Time   `json:"next_run"`
	IntervalSeconds int64       `json:"interval_seconds"`
	Runs            int64       `json:"runs"`
	Skipped         int64       `json:"skipped"`
	Request         *RunRequest `json:"request"`
}

type ScheduleResponse struct {
	Schedule *Schedule `json:"schedule,omitempty"`
}

func (x *ScheduleResponse) GetSchedule() *Schedule {
	if x == nil {
		return nil
	}
	return x.Schedule
}

type DisableScheduleRequest struct{}

type DisableScheduleResponse struct{}

type GetScheduleRequest struct{}
