package main

import (
	"maps"
	"time"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/scheduler"
)

func toProtoProcess(p *lib.Command) *apiv1.Process {
	if p == nil {
		return nil
	}
	return &apiv1.Process{Command: p.Command, Args: p.Args}
}

func toProtoProcessStatus(st *lib.ProcessStatus) *apiv1.ProcessStatus {
	if st == nil {
		return nil
	}
	start := st.StartTime
	ps := &apiv1.ProcessStatus{
		Pid:       int32(st.PID),
		State:     toProtoProcessState(st.State),
		StartTime: &start,
		EndTime:   st.EndTime,
	}
	if st.ExitCode != nil {
		v := int32(*st.ExitCode)
		ps.ExitCode = &v
	}
	if st.Outcome != nil {
		ps.Outcome = toProtoOutcome(*st.Outcome)
	}
	return ps
}

func toProtoProcessState(s lib.ProcessState) apiv1.ProcessState {
	switch s {
	case lib.ProcessStateRunning:
		return apiv1.ProcessState_PROCESS_STATE_RUNNING
	case lib.ProcessStateStopped:
		return apiv1.ProcessState_PROCESS_STATE_STOPPED
	default:
		return apiv1.ProcessState_PROCESS_STATE_UNSPECIFIED
	}
}

func toProtoOutcome(o lib.RunOutcome) *apiv1.Outcome {
	kind := apiv1.OutcomeKind_OUTCOME_UNSPECIFIED
	switch o.Kind {
	case lib.OutcomeCompleted:
		kind = apiv1.OutcomeKind_OUTCOME_COMPLETED
	case lib.OutcomeCancelled:
		kind = apiv1.OutcomeKind_OUTCOME_CANCELLED
	case lib.OutcomeFailed:
		kind = apiv1.OutcomeKind_OUTCOME_FAILED
	}
	return &apiv1.Outcome{Kind: kind, ExitCode: int32(o.ExitCode), Message: o.String()}
}

func toProtoOutput(line lib.OutputLine) *apiv1.GetOutputResponse {
	t := apiv1.GetOutputResponse_TYPE_STDOUT
	if line.Stream == lib.StreamStderr {
		t = apiv1.GetOutputResponse_TYPE_STDERR
	}
	return &apiv1.GetOutputResponse{Type: t, Line: line.Text, Time: line.Time}
}

func fromProtoRunRequest(r *apiv1.RunRequest) lib.RunRequest {
	if r == nil {
		return lib.RunRequest{}
	}
	return lib.RunRequest{
		Executable: r.Executable,
		Script:     r.Script,
		Args:       append([]string(nil), r.Args...),
		Dir:        r.Dir,
		Env:        maps.Clone(r.Env),
	}
}

func toProtoRunRequest(r lib.RunRequest) *apiv1.RunRequest {
	return &apiv1.RunRequest{
		Executable: r.Executable,
		Script:     r.Script,
		Args:       r.Args,
		Dir:        r.Dir,
		Env:        r.Env,
	}
}

func toProtoSchedule(st scheduler.State, request lib.RunRequest) *apiv1.Schedule {
	return &apiv1.Schedule{
		Anchor:          st.Anchor,
		NextRun:         st.NextRun,
		IntervalSeconds: int64(st.Interval / time.Second),
		Runs:            st.Runs,
		Skipped:         st.Skipped,
		Request:         toProtoRunRequest(request),
	}
}
