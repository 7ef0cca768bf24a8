// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/promptshift/promptshift/internal/config"
	"github.com/promptshift/promptshift/internal/llm"
	"github.com/promptshift/promptshift/internal/migrate"
)

const openAIConstructor = `definePrompt("openai/ChatCompletion", {
  model: "gpt-4-0613",
  messages: [{ role: "user", content: "hi" }],
});
`

const anthropicConstructor = `definePrompt("anthropic/completion", {
  model: "claude-2.0",
  prompt: "\n\nHuman: hi\n\nAssistant:",
  max_tokens_to_sample: 256,
});
`

// chdirTemp moves the test into a fresh directory with an isolated global
// config and returns the directory.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".xdg"))
	origDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(origDir) })
	return dir
}

// writeTestFile writes content to dir/name, creating parent directories.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// writeConfig writes a .promptshift.yaml into dir.
func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	writeTestFile(t, dir, config.FileName, content)
}

// useMockGenerator swaps the generation backend for a mock for the test.
func useMockGenerator(t *testing.T, responses ...llm.MockResponse) *llm.MockProvider {
	t.Helper()
	mock := llm.NewMockProvider(responses...)
	orig := newGenerator
	newGenerator = func(*config.Config) (llm.Provider, error) { return mock, nil }
	t.Cleanup(func() { newGenerator = orig })
	return mock
}

func toolArgs(t *testing.T, code string) string {
	t.Helper()
	b, err := json.Marshal(map[string]string{migrate.ArgumentField: code})
	require.NoError(t, err)
	return string(b)
}

// resetFlags restores every command's flags to their defaults.
func resetFlags() {
	verbose, quiet, noColor, traceOut = false, false, false, false
	logFormat = "text"
	resetMigrateFlags()
	resetProvidersFlags()
	resetConstructFlags()
	resetConfigFlags()
}

// runCLI executes the root command with args and returns its output.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// exitCode extracts the CLI exit code from a command error.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ece *exitCodeError
	if errors.As(err, &ece) {
		return ece.code
	}
	return ExitInvalidArgs
}
