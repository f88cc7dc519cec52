package main

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/control"
)

func TestToStatusError(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{errors.Wrap(lib.ErrAlreadyRunning, "start"), codes.AlreadyExists},
		{lib.ErrScheduleActive, codes.AlreadyExists},
		{errors.Wrap(lib.ErrInvalidRequest, "empty executable"), codes.InvalidArgument},
		{errors.Mark(errors.New("stat job.py: no such file"), lib.ErrInvalidScript), codes.InvalidArgument},
		{errors.Wrapf(lib.ErrNotFound, "run %s", "x"), codes.NotFound},
		{lib.ErrNotRunning, codes.FailedPrecondition},
		{lib.ErrNoSchedule, codes.FailedPrecondition},
		{errors.Mark(errors.New("exec: not found"), lib.ErrSpawnFailure), codes.FailedPrecondition},
		{control.ErrRateLimited, codes.Unavailable},
		{errors.Mark(errors.New("read-only file system"), lib.ErrSignalWrite), codes.Unavailable},
		{context.Canceled, codes.Canceled},
		{errors.New("boom"), codes.Internal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, status.Code(toStatusError(tc.err)), tc.err.Error())
	}

	assert.NoError(t, toStatusError(nil))

	existing := status.Error(codes.PermissionDenied, "no")
	assert.Equal(t, existing, toStatusError(existing))
}

func TestToStatusErrorKeepsHint(t *testing.T) {
	err := errors.WithHint(errors.Wrap(lib.ErrInvalidRequest, "bad time"), "use HH:MM")
	st, ok := status.FromError(toStatusError(err))
	assert.True(t, ok)
	assert.Contains(t, st.Message(), "use HH:MM")
}
