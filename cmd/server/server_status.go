package main

import (
	"context"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
)

func (s *ScriptRunnerServiceServer) Status(ctx context.Context, request *apiv1.StatusRequest) (*apiv1.StatusResponse, error) {
	processIdentifier := request.ProcessIdentifier

	if err := s.checkOwnership(ctx, processIdentifier); err != nil {
		return nil, err
	}

	statusResult, err := s.runner.Status(processIdentifier)
	if err != nil {
		return nil, toStatusError(err)
	}
	return &apiv1.StatusResponse{
		ProcessIdentifier: processIdentifier,
		Process:           toProtoProcess(statusResult.Command),
		Status:            toProtoProcessStatus(statusResult.Status),
	}, nil
}

// List returns the runs the caller may see, oldest first.
func (s *ScriptRunnerServiceServer) List(ctx context.Context, _ *apiv1.ListRequest) (*apiv1.ListResponse, error) {
	resp := &apiv1.ListResponse{LastStatus: s.controller.LastStatus()}
	for _, st := range s.runner.List() {
		if s.checkOwnership(ctx, st.ID) != nil {
			continue
		}
		// the run may have been evicted from history since List
		statusResult, err := s.runner.Status(st.ID)
		if err != nil {
			continue
		}
		resp.Processes = append(resp.Processes, &apiv1.StatusResponse{
			ProcessIdentifier: st.ID,
			Process:           toProtoProcess(statusResult.Command),
			Status:            toProtoProcessStatus(statusResult.Status),
		})
	}
	return resp, nil
}
