// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/promptshift/promptshift/internal/migrate"
	"github.com/promptshift/promptshift/internal/output"
	"github.com/promptshift/promptshift/internal/providers"
)

// stdinSource names standard input as a migration source.
const stdinSource = "-"

// Migrate command flags.
var (
	migrateFrom         string
	migrateTo           string
	migrateInstructions string
	migrateFormat       string
	migrateOutput       string
	migrateWrite        bool
	migrateConcurrency  int
	migrateEngine       engineFlags
)

// migrateCmd rewrites one or more prompt constructors.
var migrateCmd = &cobra.Command{
	Use:   "migrate [file...]",
	Short: "Rewrite prompt constructors for a new model or provider",
	Long: `Rewrite prompt constructor files for a different model or provider, or
apply free-form instructions to them.

Models are given as provider:model or a bare model ID when it is unique.
With no files, or with "-", the constructor is read from stdin.

Each file gets up to retry.max_attempts generation attempts. When every
attempt fails the result is empty and the exit code is 2, unless --strict
is set, in which case the run fails with exit code 3.

Examples:
  promptshift migrate --from gpt-4-0613 --to claude-2.0 prompt.ts
  promptshift migrate --from gpt-4-0613 -i "add a system message" prompt.ts
  promptshift migrate --from gpt-4-0613 --to claude-2.0 -w prompts/*.ts
  cat prompt.ts | promptshift migrate --from gpt-4-0613 --to llama2:70b-chat`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "model the constructors target now")
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "model to migrate to")
	migrateCmd.Flags().StringVarP(&migrateInstructions, "instructions", "i", "", "free-form instructions for the rewrite")
	migrateCmd.Flags().StringVarP(&migrateFormat, "format", "f", "code", "output format: code, json, markdown, sarif")
	migrateCmd.Flags().StringVarP(&migrateOutput, "output", "o", "", "write output to file instead of stdout")
	migrateCmd.Flags().BoolVarP(&migrateWrite, "write", "w", false, "rewrite migrated files in place")
	migrateCmd.Flags().IntVar(&migrateConcurrency, "concurrency", 4, "migrations to run in parallel")
	migrateEngine.register(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	formatter, err := output.GetFormatter(migrateFormat)
	if err != nil {
		return exitError(ExitInvalidArgs, "promptshift: %v", err)
	}
	if _, ok := formatter.(*output.SARIFFormatter); ok {
		formatter = &output.SARIFFormatter{Version: Version}
	}
	if len(args) == 0 {
		args = []string{stdinSource}
	}
	if migrateWrite {
		if migrateOutput != "" {
			return exitError(ExitInvalidArgs, "promptshift: --write and --output are mutually exclusive")
		}
		for _, a := range args {
			if a == stdinSource {
				return exitError(ExitInvalidArgs, "promptshift: --write needs file arguments")
			}
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	migrateEngine.apply(cmd, cfg)

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	from, err := resolveModelFlag(rt.registry, "--from", migrateFrom)
	if err != nil {
		return err
	}
	to, err := resolveModelFlag(rt.registry, "--to", migrateTo)
	if err != nil {
		return err
	}

	reqs := make([]migrate.Request, len(args))
	for i, src := range args {
		code, err := readSource(cmd.InOrStdin(), src)
		if err != nil {
			return exitError(ExitInvalidArgs, "promptshift: %v", err)
		}
		reqs[i] = migrate.Request{
			OriginalCode:  code,
			OriginalModel: from,
			NewModel:      to,
			Instructions:  migrateInstructions,
		}
	}

	slog.Info("migrating", "inputs", len(reqs), "from", migrateFrom, "to", migrateTo)
	results := rt.engine.MigrateAll(cmd.Context(), reqs, migrateConcurrency)

	reports := make([]output.Report, len(results))
	for i, r := range results {
		reports[i] = output.Report{Source: args[i], From: migrateFrom, To: migrateTo, Outcome: r.Outcome, Err: r.Err}
	}

	if migrateWrite {
		if err := writeInPlace(cmd.ErrOrStderr(), reports); err != nil {
			return err
		}
	} else if err := writeReports(cmd.OutOrStdout(), formatter, reports); err != nil {
		return err
	}

	return exitFor(reports)
}

// resolveModelFlag resolves an optional model flag against the registry.
func resolveModelFlag(reg *providers.Registry, flag, ref string) (*providers.ModelDescriptor, error) {
	if ref == "" {
		return nil, nil
	}
	m, err := reg.Resolve(ref)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "promptshift: %s: %v", flag, err)
	}
	return m, nil
}

// readSource reads a constructor from a file or, for "-", from stdin.
func readSource(stdin io.Reader, src string) (string, error) {
	if src == stdinSource {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	info, err := cmdFS.Stat(src)
	if err != nil {
		return "", fmt.Errorf("cannot read %q: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%q is not a regular file", src)
	}
	data, err := cmdFS.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", src, err)
	}
	return string(data), nil
}

// writeReports renders reports to stdout or to --output.
func writeReports(stdout io.Writer, formatter output.Formatter, reports []output.Report) error {
	if migrateOutput == "" {
		return formatter.Format(reports, stdout)
	}
	f, err := cmdFS.Create(migrateOutput)
	if err != nil {
		return exitError(ExitInvalidArgs, "promptshift: cannot create output file: %v", err)
	}
	if err := formatter.Format(reports, f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	return f.Close()
}

// writeInPlace replaces each generated file's contents and reports per-file
// status on w.
func writeInPlace(w io.Writer, reports []output.Report) error {
	ok := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)
	bad := color.New(color.FgRed)

	for _, r := range reports {
		switch {
		case r.Err != nil:
			_, _ = fmt.Fprintf(w, "%s %s: %v\n", bad.Sprint("error"), r.Source, r.Err)
		case r.Outcome == nil, r.Outcome.Exhausted():
			_, _ = fmt.Fprintf(w, "%s %s: no migration after %d attempts\n", warn.Sprint("skip"), r.Source, attempts(r))
		case r.Outcome.Path != migrate.PathGenerated:
			_, _ = fmt.Fprintf(w, "%s %s: %s\n", warn.Sprint("skip"), r.Source, r.Outcome.Path)
		default:
			mode := fs.FileMode(0o644)
			if info, err := cmdFS.Stat(r.Source); err == nil {
				mode = info.Mode().Perm()
			}
			if err := cmdFS.WriteFile(r.Source, []byte(r.Outcome.Code), mode); err != nil {
				return exitError(ExitFailure, "promptshift: writing %s: %v", r.Source, err)
			}
			_, _ = fmt.Fprintf(w, "%s %s (%d attempts)\n", ok.Sprint("wrote"), r.Source, r.Outcome.Attempts)
		}
	}
	return nil
}

func attempts(r output.Report) int {
	if r.Outcome == nil {
		return 0
	}
	return r.Outcome.Attempts
}

// exitFor maps the worst report to an exit code.
func exitFor(reports []output.Report) error {
	var failed, exhausted int
	for _, r := range reports {
		switch {
		case r.Err != nil:
			failed++
		case r.Outcome != nil && r.Outcome.Exhausted():
			exhausted++
		}
	}
	switch {
	case failed > 0:
		return exitError(ExitFailure, "promptshift: %d of %d migrations failed", failed, len(reports))
	case exhausted > 0:
		return exitError(ExitNoMigration, "promptshift: %d of %d migrations produced no code", exhausted, len(reports))
	default:
		return nil
	}
}

// resetMigrateFlags resets migrate command flags for testing.
func resetMigrateFlags() {
	migrateCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
}
