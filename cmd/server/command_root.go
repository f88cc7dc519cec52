package main

import (
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SanjoDeundiak/script-runner/pkg/lib/config"
	"github.com/SanjoDeundiak/script-runner/pkg/lib/logging"
)

func NewRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "prnd",
		Short:         "Script runner daemon",
		Long:          "Runs one script at a time, on demand or on a daily schedule, and serves the script-runner gRPC API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.New(configFile)
			if err != nil {
				return err
			}
			if err := bindFlags(v, cmd); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			if err := logging.Initialize(logging.Options{JSON: cfg.Log.JSON, Level: cfg.Log.Level}); err != nil {
				return err
			}
			defer logging.Sync()

			ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			d, err := newDaemon(cfg)
			if err != nil {
				return err
			}
			return d.run(ctx)
		},
	}

	flags := root.Flags()
	flags.StringVar(&configFile, "config", "", "config file (default: prn.toml in ., $HOME/.prn or /etc/prn)")
	flags.String("address", config.DefaultAddress, "gRPC listen address")
	flags.String("metrics-address", config.DefaultMetrics, "metrics listen address; empty disables metrics")
	flags.String("signal-path", "", "continue-signal file path")
	flags.Bool("log-json", false, "log as JSON")
	flags.String("log-level", "info", "log level: debug, info, warn, error")

	return root
}

var flagKeys = map[string]string{
	"address":         "address",
	"metrics-address": "metrics.address",
	"signal-path":     "signal.path",
	"log-json":        "log.json",
	"log-level":       "log.level",
}

// bindFlags lets explicitly set flags win over files and environment.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return errors.Wrapf(err, "bind flag --%s", name)
		}
	}
	return nil
}
