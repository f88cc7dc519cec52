package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/control"
)

func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, lib.ErrAlreadyRunning), errors.Is(err, lib.ErrScheduleActive):
		return codes.AlreadyExists
	case errors.Is(err, lib.ErrInvalidRequest), errors.Is(err, lib.ErrInvalidScript):
		return codes.InvalidArgument
	case errors.Is(err, lib.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, lib.ErrNotRunning), errors.Is(err, lib.ErrNoSchedule), errors.Is(err, lib.ErrSpawnFailure):
		return codes.FailedPrecondition
	case errors.Is(err, control.ErrRateLimited), errors.Is(err, lib.ErrSignalWrite):
		return codes.Unavailable
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	default:
		return codes.Internal
	}
}

// toStatusError maps core errors onto gRPC status codes; hints go into the message.
func toStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	msg := err.Error()
	if hint := errors.FlattenHints(err); hint != "" {
		msg += " (" + hint + ")"
	}
	return status.Error(codeOf(err), msg)
}
