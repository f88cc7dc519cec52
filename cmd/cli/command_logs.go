package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
)

// streamOutput copies a run's output lines to stdout and stderr until the run ends.
func streamOutput(ctx context.Context, client apiv1.ScriptRunnerServiceClient, id string, stdout, stderr io.Writer) error {
	stream, err := client.GetOutput(ctx, &apiv1.GetOutputRequest{ProcessIdentifier: id})
	if err != nil {
		return err
	}
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var w io.Writer
		switch msg.GetType() {
		case apiv1.GetOutputResponse_TYPE_STDOUT:
			w = stdout
		case apiv1.GetOutputResponse_TYPE_STDERR:
			w = stderr
		}
		if w == nil {
			continue
		}
		if _, err := fmt.Fprintln(w, msg.GetLine()); err != nil {
			return err
		}
	}
}

func newLogsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs <process_id>",
		Short: "Stream logs (stdout/stderr) from the beginning",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			conn, client, err := dial(g)
			if err != nil {
				return err
			}
			defer conn.Close()

			return streamOutput(ctx, client, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	return cmd
}
