// Package cli implements the courier command.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"courierplan/internal/config"
	"courierplan/internal/logging"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is filled by the root PersistentPreRunE before any subcommand runs.
type app struct {
	cfg config.Config
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath   string
		logLevel  string
		logFormat string
	)
	a := &app{}

	cmd := &cobra.Command{
		Use:          "courier",
		Short:        "Split delivery stops between couriers and order each route",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}
			if _, err := logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()}); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "YAML config file (optional)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error (overrides config)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "json|text (overrides config)")

	cmd.AddCommand(
		planCmd(a),
		sequenceCmd(a),
		geocodeCmd(a),
		serveCmd(a),
		versionCmd(),
	)
	return cmd
}
