package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/profile"
)

// waitStopped polls until the run has an outcome; output ends slightly before it.
func waitStopped(ctx context.Context, client apiv1.ScriptRunnerServiceClient, id string) (*apiv1.ProcessStatus, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		resp, err := client.Status(ctx, &apiv1.StatusRequest{ProcessIdentifier: id})
		if err != nil {
			return nil, err
		}
		if resp.GetStatus().GetState() == apiv1.ProcessState_PROCESS_STATE_STOPPED {
			return resp.GetStatus(), nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func addRequestFlags(cmd *cobra.Command, f *requestFlags) {
	cmd.Flags().StringVar(&f.script, "script", "", "script passed as the first argument; must exist")
	cmd.Flags().StringVar(&f.profile, "profile", "", "JSON profile whose entries become --name value flags")
	cmd.Flags().StringVar(&f.dir, "dir", "", "working directory")
	cmd.Flags().StringArrayVar(&f.env, "env", nil, "environment override KEY=VALUE (repeatable)")
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &requestFlags{}
	var follow bool

	cmd := &cobra.Command{
		Use:   "run [flags] -- <executable> [args...]",
		Short: "Start the script now",
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := f.buildRequest(args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Running:", profile.Display(request))

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			conn, client, err := dial(g)
			if err != nil {
				return err
			}
			defer conn.Close()

			resp, err := client.Run(ctx, toAPIRequest(request))
			if err != nil {
				return err
			}
			// Print only process ID as per design
			fmt.Fprintln(cmd.OutOrStdout(), resp.GetProcessIdentifier())

			if !follow {
				return nil
			}
			if err := streamOutput(cmd.Context(), client, resp.GetProcessIdentifier(), cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
				return err
			}
			st, err := waitStopped(cmd.Context(), client, resp.GetProcessIdentifier())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), outcomeText(st))
			return nil
		},
	}
	addRequestFlags(cmd, f)
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream output until the run ends")
	return cmd
}
