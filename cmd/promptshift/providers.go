// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/promptshift/promptshift/internal/providers"
)

// Providers command flags.
var (
	providersRegistry string
	describeSchema    bool
)

// providersCmd is the parent command for registry lookups.
var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Inspect the provider registry",
	Long: `Inspect the provider registry: which providers and models can be
migrated between, and the request schema each provider accepts.

The built-in registry can be overlaid with a YAML or TOML document via
registry.path in the config or the --registry flag.`,
}

var providersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List providers and their models",
	Args:  cobra.NoArgs,
	RunE:  runProvidersList,
}

var providersDescribeCmd = &cobra.Command{
	Use:   "describe <model>",
	Short: "Describe one model",
	Long: `Describe one model as JSON. The model is given as provider:model or a
bare model ID when it is unique.`,
	Args: cobra.ExactArgs(1),
	RunE: runProvidersDescribe,
}

var providersSchemaCmd = &cobra.Command{
	Use:   "schema <provider>",
	Short: "Print a provider's request schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvidersSchema,
}

func init() {
	providersCmd.PersistentFlags().StringVar(&providersRegistry, "registry", "", "provider registry document to overlay on the built-in one")
	providersDescribeCmd.Flags().BoolVar(&describeSchema, "schema", false, "include the provider's request schema")

	providersCmd.AddCommand(providersListCmd)
	providersCmd.AddCommand(providersDescribeCmd)
	providersCmd.AddCommand(providersSchemaCmd)
}

// commandRegistry loads the registry named by --registry or the config.
func commandRegistry() (*providers.Registry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if providersRegistry != "" {
		cfg.Registry.Path = providersRegistry
	}
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "promptshift: %v", err)
	}
	return reg, nil
}

func runProvidersList(cmd *cobra.Command, _ []string) error {
	reg, err := commandRegistry()
	if err != nil {
		return err
	}

	idColor := color.New(color.FgCyan, color.Bold)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, p := range reg.Catalog() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", idColor.Sprint(p.ID), p.Name)
		for _, m := range p.Models {
			window := "-"
			if m.ContextWindow > 0 {
				window = fmt.Sprintf("%d", m.ContextWindow)
			}
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", m.ID, m.Name, window)
		}
	}
	return tw.Flush()
}

func runProvidersDescribe(cmd *cobra.Command, args []string) error {
	reg, err := commandRegistry()
	if err != nil {
		return err
	}
	m, err := reg.Resolve(args[0])
	if err != nil {
		return exitError(ExitInvalidArgs, "promptshift: %v", err)
	}
	return printJSON(cmd, m.Summary(describeSchema))
}

func runProvidersSchema(cmd *cobra.Command, args []string) error {
	reg, err := commandRegistry()
	if err != nil {
		return err
	}
	schema, err := reg.SchemaFor(args[0])
	if err != nil {
		return exitError(ExitInvalidArgs, "promptshift: %v", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, schema.Raw(), "", "  "); err != nil {
		return fmt.Errorf("formatting schema: %w", err)
	}
	buf.WriteByte('\n')
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// resetProvidersFlags resets providers command flags for testing.
func resetProvidersFlags() {
	providersRegistry = ""
	describeSchema = false
}
