package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"github.com/SanjoDeundiak/script-runner/pkg/lib"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/scheduler"
)

// scheduleAnchor picks the first run: an explicit instant, else today's time of day.
func scheduleAnchor(request *apiv1.EnableScheduleRequest, now time.Time) (time.Time, time.Duration, error) {
	if request.IntervalSeconds < 0 {
		return time.Time{}, 0, errors.Wrapf(lib.ErrInvalidRequest, "negative interval %ds", request.IntervalSeconds)
	}
	interval := scheduler.EveryHours(0)
	if request.IntervalSeconds > 0 {
		interval = time.Duration(request.IntervalSeconds) * time.Second
	}

	switch {
	case request.FirstRun != nil:
		return *request.FirstRun, interval, nil
	case request.TimeOfDay != "":
		anchor, err := scheduler.DailyAnchor(now, request.TimeOfDay)
		if err != nil {
			return time.Time{}, 0, errors.Mark(err, lib.ErrInvalidRequest)
		}
		return anchor, interval, nil
	default:
		return time.Time{}, 0, errors.Wrap(lib.ErrInvalidRequest, "first_run or time_of_day is required")
	}
}

func (s *ScriptRunnerServiceServer) EnableSchedule(ctx context.Context, request *apiv1.EnableScheduleRequest) (*apiv1.ScheduleResponse, error) {
	req := fromProtoRunRequest(request.Request)
	if req.Executable == "" {
		return nil, toStatusError(errors.Wrap(lib.ErrInvalidRequest, "scheduled request needs an executable"))
	}

	anchor, interval, err := scheduleAnchor(request, time.Now())
	if err != nil {
		return nil, toStatusError(err)
	}

	st, err := s.controller.EnableSchedule(anchor, interval, req)
	if err != nil {
		return nil, toStatusError(err)
	}
	s.logger.Infow("Schedule enabled",
		logging.FieldNextRun, st.NextRun,
		logging.FieldInterval, st.Interval,
		logging.FieldExecutable, req.Executable)
	return &apiv1.ScheduleResponse{Schedule: toProtoSchedule(st, req)}, nil
}

func (s *ScriptRunnerServiceServer) DisableSchedule(ctx context.Context, _ *apiv1.DisableScheduleRequest) (*apiv1.DisableScheduleResponse, error) {
	if err := s.controller.DisableSchedule(); err != nil {
		return nil, toStatusError(err)
	}
	s.logger.Infow("Schedule disabled")
	return &apiv1.DisableScheduleResponse{}, nil
}

// GetSchedule returns an empty response when no schedule is enabled.
func (s *ScriptRunnerServiceServer) GetSchedule(ctx context.Context, _ *apiv1.GetScheduleRequest) (*apiv1.ScheduleResponse, error) {
	st, req, ok := s.controller.ScheduleStatus()
	if !ok {
		return &apiv1.ScheduleResponse{}, nil
	}
	return &apiv1.ScheduleResponse{Schedule: toProtoSchedule(st, req)}, nil
}
