package main

import "github.com/spf13/cobra"

type globalFlags struct {
	configFile string
	address    string
}

func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "prn",
		Short:         "Script runner CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configFile, "config", "", "config file (default: prn.toml in ., $HOME/.prn or /etc/prn)")
	root.PersistentFlags().StringVar(&g.address, "address", "", "daemon address (overrides config and PRN_ADDRESS)")

	root.AddCommand(newRunCmd(g))
	root.AddCommand(newStatusCmd(g))
	root.AddCommand(newListCmd(g))
	root.AddCommand(newCancelCmd(g))
	root.AddCommand(newLogsCmd(g))
	root.AddCommand(newContinueCmd(g))
	root.AddCommand(newScheduleCmd(g))

	return root
}
