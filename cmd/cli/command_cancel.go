package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
)

func newCancelCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel [process_id]",
		Short: "Cancel a run and its whole process tree; without an id, the active run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			processID := ""
			if len(args) == 1 {
				processID = args[0]
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			conn, client, err := dial(g)
			if err != nil {
				return err
			}
			defer conn.Close()

			resp, err := client.Cancel(ctx, &apiv1.CancelRequest{ProcessIdentifier: processID})
			if err != nil {
				if grpcCode(err) == codes.PermissionDenied {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Forbidden. Only the creator of the run can cancel it.")
					return nil
				}
				return err
			}
			if processID == "" {
				processID = "(active)"
			}
			printStatusTable(cmd.OutOrStdout(), []*apiv1.StatusResponse{{
				ProcessIdentifier: processID,
				Process:           resp.GetProcess(),
				Status:            resp.GetStatus(),
			}})
			return nil
		},
	}
	return cmd
}
