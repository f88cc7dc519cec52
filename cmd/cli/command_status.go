package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"

	apiv1 "github.com/SanjoDeundiak/script-runner/api/v1"
)

func newStatusCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <process_id>",
		Short: "Get status of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			processID := args[0]
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			conn, client, err := dial(g)
			if err != nil {
				return err
			}
			defer conn.Close()

			resp, err := client.Status(ctx, &apiv1.StatusRequest{ProcessIdentifier: processID})
			if err != nil {
				if grpcCode(err) == codes.PermissionDenied {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Forbidden. Only the creator of the run can get its status.")
					return nil
				}
				return err
			}
			printStatusTable(cmd.OutOrStdout(), []*apiv1.StatusResponse{resp})
			return nil
		},
	}
	return cmd
}

func newListCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			conn, client, err := dial(g)
			if err != nil {
				return err
			}
			defer conn.Close()

			resp, err := client.List(ctx, &apiv1.ListRequest{})
			if err != nil {
				return err
			}
			printStatusTable(cmd.OutOrStdout(), resp.Processes)
			fmt.Fprintln(cmd.OutOrStdout(), "Last status:", resp.LastStatus)
			return nil
		},
	}
	return cmd
}
