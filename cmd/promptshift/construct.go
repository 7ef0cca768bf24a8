// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/promptshift/promptshift/internal/constructor"
)

// Construct command flags.
var (
	constructScenario string
	constructCheck    bool
)

// constructCmd evaluates a prompt constructor and prints its payload.
var constructCmd = &cobra.Command{
	Use:   "construct [file]",
	Short: "Evaluate a prompt constructor in the sandbox",
	Long: `Evaluate a prompt constructor in the sandbox and print the request
payload its last definePrompt call declared, as JSON.

With no file, or with "-", the constructor is read from stdin.
Scenario variables are bound as a frozen global named scenario.

Examples:
  promptshift construct prompt.ts
  promptshift construct --scenario '{"name":"Ada"}' prompt.ts
  promptshift construct --check prompt.ts`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConstruct,
}

func init() {
	constructCmd.Flags().StringVar(&constructScenario, "scenario", "", "scenario variables as a JSON object")
	constructCmd.Flags().BoolVar(&constructCheck, "check", false, "only check that the constructor evaluates and its provider is registered")
}

func runConstruct(cmd *cobra.Command, args []string) error {
	src := stdinSource
	if len(args) == 1 {
		src = args[0]
	}

	var scenario map[string]any
	if constructScenario != "" {
		if err := json.Unmarshal([]byte(constructScenario), &scenario); err != nil {
			return exitError(ExitInvalidArgs, "promptshift: --scenario: %v", err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	code, err := readSource(cmd.InOrStdin(), src)
	if err != nil {
		return exitError(ExitInvalidArgs, "promptshift: %v", err)
	}

	iso, err := newIsolate(cfg)
	if err != nil {
		return exitError(ExitInvalidArgs, "promptshift: %v", err)
	}
	defer iso.Close()

	prompt, err := constructor.Evaluate(cmd.Context(), iso, code, scenario)
	if err != nil {
		var syntaxErr *constructor.SyntaxError
		if errors.As(err, &syntaxErr) {
			return exitError(ExitInvalidArgs, "promptshift: %s: %v", src, err)
		}
		return exitError(ExitFailure, "promptshift: %s: %v", src, err)
	}

	if constructCheck {
		reg, err := loadRegistry(cfg)
		if err != nil {
			return exitError(ExitInvalidArgs, "promptshift: %v", err)
		}
		if _, err := reg.Provider(prompt.ProviderID); err != nil {
			return exitError(ExitFailure, "promptshift: %s: %v", src, err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok %s (%s)\n", src, prompt.ProviderID)
		return nil
	}
	return printJSON(cmd, prompt)
}

// resetConstructFlags resets construct command flags for testing.
func resetConstructFlags() {
	constructScenario = ""
	constructCheck = false
}
