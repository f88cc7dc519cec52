package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
)

func newContinueCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "continue",
		Short: "Tell the running script to proceed past its pause",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			conn, client, err := dial(g)
			if err != nil {
				return err
			}
			defer conn.Close()

			resp, err := client.Continue(ctx, &apiv1.ContinueRequest{})
			switch grpcCode(err) {
			case codes.OK:
				fmt.Fprintln(cmd.OutOrStdout(), "Continue signal written to", resp.Path)
				return nil
			case codes.FailedPrecondition:
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Script not running.")
				return nil
			default:
				return err
			}
		},
	}
	return cmd
}
