package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/formqc/pkg/logger"
)

var log *slog.Logger

func newRootCmd() *cobra.Command {
	var verbose bool
	var jsonLogs bool

	cmd := &cobra.Command{
		Use:           "formqc",
		Short:         "Quality checks for longitudinal clinical form records",
		Long:          "formqc validates form records against declarative quality rules:\nper-field constraints, cross-field conditionals, temporal rules over\nprior visits, and computed-score checks.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts := []logger.Option{}
			if verbose {
				opts = append(opts, logger.WithLevel(slog.LevelDebug))
			}
			if jsonLogs {
				opts = append(opts, logger.WithFormat(logger.FormatJSON))
			}
			log = logger.New(opts...)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newLintCmd())
	return cmd
}
