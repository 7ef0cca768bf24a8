// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	pslog "github.com/promptshift/promptshift/internal/log"
	"github.com/promptshift/promptshift/internal/telemetry"
)

// Global flag values.
var (
	verbose   bool
	quiet     bool
	noColor   bool
	logFormat string
	traceOut  bool
)

// tel is set when --trace installs exporters for the current command.
var tel *telemetry.Telemetry

// rootCmd is the base command for promptshift.
var rootCmd = &cobra.Command{
	Use:   "promptshift",
	Short: "Migrate prompt constructors between models and providers",
	Long: `Promptshift rewrites prompt constructor code so it targets a different
model or provider, or applies free-form instructions to it. Each rewrite is
produced by a text-generation backend and checked by running the generated
code in a sandbox before it is accepted.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if noColor {
			color.NoColor = true
		}
		if err := pslog.SetupFormat(verbose, quiet, logFormat); err != nil {
			return exitError(ExitInvalidArgs, "promptshift: %v", err)
		}
		if traceOut {
			t, err := telemetry.Setup(os.Stderr, Version)
			if err != nil {
				return fmt.Errorf("telemetry: %w", err)
			}
			tel = t
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		shutdownTelemetry(cmd.Context())
	},
}

func shutdownTelemetry(ctx context.Context) {
	if tel == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := tel.Shutdown(ctx); err != nil {
		slog.Warn("telemetry shutdown failed", "err", err)
	}
	tel = nil
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", pslog.FormatText, "log format: text, json")
	rootCmd.PersistentFlags().BoolVar(&traceOut, "trace", false, "export traces and metrics to stderr")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(constructCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
