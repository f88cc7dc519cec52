package main

import (
	"context"

	"github.com/cockroachdb/errors"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
)

func (s *ScriptRunnerServiceServer) Run(ctx context.Context, request *apiv1.RunRequest) (*apiv1.RunResponse, error) {
	req := fromProtoRunRequest(request)
	log := s.logger.With(logging.FieldExecutable, req.Executable, logging.FieldScript, req.Script)
	log.Infow("Starting run", "args", req.Args)

	// the run outlives the RPC
	h, err := s.controller.RunNow(context.WithoutCancel(ctx), req, nil)
	if err != nil {
		log.Warnw("Run rejected", logging.FieldError, err)
		return nil, toStatusError(err)
	}

	if owner := extractSpiffeIdFromContext(ctx); owner != nil {
		s.setOwner(h.ID(), *owner)
		log = log.With(logging.FieldOwner, *owner)
	}

	st, err := s.runner.Status(h.ID())
	if err != nil {
		return nil, toStatusError(errors.Wrap(err, "status of new run"))
	}
	log.Infow("Started run", logging.FieldRunID, lib.ShortID(h.ID()), logging.FieldPID, h.PID())

	return &apiv1.RunResponse{
		ProcessIdentifier: h.ID(),
		Status:            toProtoProcessStatus(st.Status),
	}, nil
}
