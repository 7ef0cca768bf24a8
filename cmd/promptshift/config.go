// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/promptshift/promptshift/internal/config"
)

// Config command flags.
var (
	configGlobal  bool
	configListAll bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and modify promptshift configuration",
	Long: `View and modify promptshift configuration.

Settings live in sections (generation, retry, sandbox, registry, format)
plus the top-level verify_constructor switch. They are read from
.promptshift.yaml in the working directory, layered over the global
file at ~/.config/promptshift/config.yaml. Command-line flags win over
both.

set and unset rewrite the file and drop comments.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key|section>",
	Short: "Print a setting or a whole section",
	Long: `Print the effective value of a setting, or a whole section as YAML.

Examples:
  promptshift config get generation.backend
  promptshift config get retry
  promptshift config get --global retry.max_attempts`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <section.field> <value>",
	Short: "Set a configuration value",
	Long: `Set a value in the directory config, or the global one with --global.

Values are read as bool, int, float, or string. The file is only
written if the result passes validation.

Examples:
  promptshift config set generation.backend openai
  promptshift config set retry.attempt_timeout 45s
  promptshift config set --global sandbox.memory_limit_mb 256`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <section.field>",
	Short: "Remove a configuration value",
	Long: `Remove a value from the directory config, or the global one with
--global. A section left empty is removed too.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigUnset,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configuration by section",
	Long: `List effective settings grouped by section, each tagged with the
layer it comes from (repo or global). --all includes unset keys.`,
	Args: cobra.NoArgs,
	RunE: runConfigList,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable configuration keys",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, k := range config.ValidKeys() {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), k)
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{configGetCmd, configSetCmd, configUnsetCmd} {
		c.Flags().BoolVar(&configGlobal, "global", false, "use the global config (~/.config/promptshift/config.yaml)")
	}
	configListCmd.Flags().BoolVar(&configListAll, "all", false, "include keys that are not set")

	configCmd.AddCommand(configGetCmd, configSetCmd, configUnsetCmd, configListCmd, configKeysCmd)
}

// resetConfigFlags resets config command flags for testing.
func resetConfigFlags() {
	configGlobal = false
	configListAll = false
	for _, c := range []*cobra.Command{configGetCmd, configSetCmd, configUnsetCmd} {
		if f := c.Flags().Lookup("global"); f != nil {
			_ = f.Value.Set("false")
		}
	}
	if f := configListCmd.Flags().Lookup("all"); f != nil {
		_ = f.Value.Set("false")
	}
}

// configTarget is the file set and unset write to.
func configTarget() string {
	if configGlobal {
		return config.GlobalConfigPath()
	}
	return filepath.Join(".", config.FileName)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	load := func() (*config.Config, error) { return config.LoadLayered(".") }
	if configGlobal {
		load = config.LoadGlobal
	}
	cfg, err := load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	val, err := config.GetValue(cfg, args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if section, ok := val.(map[string]any); ok {
		data, err := yaml.Marshal(section)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprint(w, string(data))
		return nil
	}
	_, _ = fmt.Fprintln(w, val)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]
	if err := config.ValidateKeyPath(key); err != nil {
		return err
	}
	err := config.EditFile(configTarget(), func(data map[string]any) error {
		return config.SetValue(data, key, value)
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := args[0]
	var removed bool
	err := config.EditFile(configTarget(), func(data map[string]any) error {
		var err error
		removed, err = config.UnsetValue(data, key)
		return err
	})
	if err != nil {
		return err
	}
	if !removed {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s was not set\n", key)
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", key)
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	globalCfg, err := config.LoadGlobal()
	if err != nil {
		return fmt.Errorf("loading global config: %w", err)
	}
	repoCfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("loading directory config: %w", err)
	}
	settings, err := config.Settings(globalCfg, repoCfg)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if !configListAll && !anySet(settings) {
		_, _ = fmt.Fprintln(w, "No configuration set.")
		_, _ = fmt.Fprintln(w, "Run 'promptshift config set <key> <value>', or 'promptshift config list --all' to see every key.")
		return nil
	}
	writeSettings(w, settings, configListAll)
	return nil
}

func anySet(settings []config.Setting) bool {
	for _, s := range settings {
		if s.Source != config.SourceUnset {
			return true
		}
	}
	return false
}

// writeSettings prints settings under a [section] header per section.
// Entries keep their full key so lines can be grepped.
func writeSettings(w io.Writer, settings []config.Setting, all bool) {
	section := "\x00"
	for _, s := range settings {
		if s.Source == config.SourceUnset && !all {
			continue
		}
		if s.Section != section {
			if s.Section != "" {
				_, _ = fmt.Fprintf(w, "[%s]\n", s.Section)
			}
			section = s.Section
		}
		indent := ""
		if s.Section != "" {
			indent = "  "
		}
		if s.Source == config.SourceUnset {
			_, _ = fmt.Fprintf(w, "%s%s %s\n", indent, s.Key(), sourceTag(s.Source))
			continue
		}
		_, _ = fmt.Fprintf(w, "%s%s = %v %s\n", indent, s.Key(), s.Value, sourceTag(s.Source))
	}
}

var sourceColors = map[config.Source]*color.Color{
	config.SourceGlobal: color.New(color.FgCyan),
	config.SourceRepo:   color.New(color.FgGreen),
	config.SourceUnset:  color.New(color.Faint),
}

func sourceTag(src config.Source) string {
	if c, ok := sourceColors[src]; ok {
		return c.Sprintf("(%s)", src)
	}
	return fmt.Sprintf("(%s)", src)
}
