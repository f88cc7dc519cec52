package main

import (
	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"google.golang.org/grpc"
)

// GetOutput replays the run's output from the first line and follows it until the run ends.
func (s *ScriptRunnerServiceServer) GetOutput(request *apiv1.GetOutputRequest, streaming grpc.ServerStreamingServer[apiv1.GetOutputResponse]) error {
	ctx := streaming.Context()
	if err := s.checkOwnership(ctx, request.ProcessIdentifier); err != nil {
		return err
	}

	lines, err := s.runner.Output(ctx, request.ProcessIdentifier)
	if err != nil {
		return toStatusError(err)
	}

	for line := range lines {
		if err := streaming.Send(toProtoOutput(line)); err != nil {
			return err
		}
	}
	return nil
}
