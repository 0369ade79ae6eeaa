package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cindral/core/internal/config"
	"github.com/cindral/core/internal/logging"
)

var version = "0.1.0"

type rootOptions struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "cindral-api",
		Short:        "Cindral system map service",
		Long:         "Serves the compliance system map: regulations, articles and the systems they impact.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
			slog.SetDefault(opts.logger)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("CINDRAL_CONFIG"), "path to a YAML or TOML config file")

	cmd.AddCommand(
		serveCmd(opts),
		snapshotCmd(opts),
		inspectCmd(opts),
		importCmd(opts),
	)
	return cmd
}
