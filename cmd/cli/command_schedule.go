package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/profile"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/scheduler"
)

func newScheduleCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage the daily schedule",
	}
	cmd.AddCommand(newScheduleEnableCmd(g))
	cmd.AddCommand(newScheduleDisableCmd(g))
	cmd.AddCommand(newScheduleStatusCmd(g))
	return cmd
}

type scheduleFlags struct {
	at         string
	everyHours int
}

// buildScheduleRequest validates --at locally so typos fail before dialing.
func (f *scheduleFlags) buildScheduleRequest(request *apiv1.RunRequest) (*apiv1.EnableScheduleRequest, error) {
	if f.at == "" {
		return nil, errors.New("--at HH:MM is required")
	}
	if _, err := scheduler.DailyAnchor(time.Now(), f.at); err != nil {
		return nil, err
	}
	return &apiv1.EnableScheduleRequest{
		TimeOfDay:       f.at,
		IntervalSeconds: int64(scheduler.EveryHours(f.everyHours) / time.Second),
		Request:         request,
	}, nil
}

func newScheduleEnableCmd(g *globalFlags) *cobra.Command {
	rf := &requestFlags{}
	sf := &scheduleFlags{}

	cmd := &cobra.Command{
		Use:   "enable --at HH:MM [flags] -- <executable> [args...]",
		Short: "Run the script every day (or every N hours) starting at a time of day",
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := rf.buildRequest(args)
			if err != nil {
				return err
			}
			enable, err := sf.buildScheduleRequest(toAPIRequest(request))
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			conn, client, err := dial(g)
			if err != nil {
				return err
			}
			defer conn.Close()

			resp, err := client.EnableSchedule(ctx, enable)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Scheduled:", profile.Display(request))
			printSchedule(cmd.OutOrStdout(), resp.GetSchedule())
			return nil
		},
	}
	addRequestFlags(cmd, rf)
	cmd.Flags().StringVar(&sf.at, "at", "", "time of day of the first run, HH:MM (24h, daemon local time)")
	cmd.Flags().IntVar(&sf.everyHours, "every-hours", scheduler.DefaultDailyHours, "hours between runs")
	return cmd
}

func newScheduleDisableCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Disable the schedule; a run it started keeps going",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			conn, client, err := dial(g)
			if err != nil {
				return err
			}
			defer conn.Close()

			if _, err := client.DisableSchedule(ctx, &apiv1.DisableScheduleRequest{}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schedule disabled")
			return nil
		},
	}
}

func newScheduleStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			conn, client, err := dial(g)
			if err != nil {
				return err
			}
			defer conn.Close()

			resp, err := client.GetSchedule(ctx, &apiv1.GetScheduleRequest{})
			if err != nil {
				return err
			}
			printSchedule(cmd.OutOrStdout(), resp.GetSchedule())
			return nil
		},
	}
}
