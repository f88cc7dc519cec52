package main

import (
	"context"

	"github.com/cockroachdb/errors"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"github.com/SanjoDeundiak/script-runner/pkg/lib"
)

var errNoActiveRun = errors.Wrap(lib.ErrNotRunning, "nothing to act on")

func (s *ScriptRunnerServiceServer) Cancel(ctx context.Context, request *apiv1.CancelRequest) (*apiv1.CancelResponse, error) {
	processIdentifier := request.ProcessIdentifier
	if processIdentifier == "" {
		h := s.runner.Active()
		if h == nil {
			return nil, toStatusError(errNoActiveRun)
		}
		processIdentifier = h.ID()
	}

	if err := s.checkOwnership(ctx, processIdentifier); err != nil {
		return nil, err
	}

	res, err := s.runner.CancelByID(processIdentifier)
	if err != nil {
		return nil, toStatusError(err)
	}
	return &apiv1.CancelResponse{Process: toProtoProcess(res.Command), Status: toProtoProcessStatus(res.Status)}, nil
}
