package main

import (
	"context"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
)

// Continue asks the active run to proceed past its current pause.
func (s *ScriptRunnerServiceServer) Continue(ctx context.Context, _ *apiv1.ContinueRequest) (*apiv1.ContinueResponse, error) {
	if h := s.runner.Active(); h != nil {
		if err := s.checkOwnership(ctx, h.ID()); err != nil {
			return nil, err
		}
	}

	if err := s.controller.Continue(ctx); err != nil {
		s.logger.Infow("Continue rejected", logging.FieldError, err)
		return nil, toStatusError(err)
	}
	s.logger.Infow("Continue signal sent", logging.FieldPath, s.signalPath)
	return &apiv1.ContinueResponse{Path: s.signalPath}, nil
}
