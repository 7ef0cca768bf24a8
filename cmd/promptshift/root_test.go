// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootHelp(t *testing.T) {
	stdout, _, err := runCLI(t, "", "--help")
	require.NoError(t, err)

	assert.Contains(t, stdout, "prompt constructor")
	for _, sub := range []string{"migrate", "providers", "construct", "config", "mcp", "serve", "version"} {
		assert.Contains(t, stdout, sub, "root help should list %s", sub)
	}
}

func TestGlobalFlags(t *testing.T) {
	for _, name := range []string{"verbose", "quiet", "no-color", "log-format", "trace"} {
		t.Run(name, func(t *testing.T) {
			assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "global flag --%s not registered", name)
		})
	}

	v := rootCmd.PersistentFlags().ShorthandLookup("v")
	require.NotNil(t, v)
	assert.Equal(t, "verbose", v.Name)
	q := rootCmd.PersistentFlags().ShorthandLookup("q")
	require.NotNil(t, q)
	assert.Equal(t, "quiet", q.Name)
}

func TestLogFormat_Invalid(t *testing.T) {
	chdirTemp(t)
	_, _, err := runCLI(t, "", "--log-format", "xml", "version")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArgs, exitCode(err))
	assert.Contains(t, err.Error(), "unknown log format")
}

func TestVersionDefault(t *testing.T) {
	assert.Equal(t, "dev", Version)
}

func TestVersionSubcommand(t *testing.T) {
	orig := Version
	Version = "v0.1.0-test"
	t.Cleanup(func() { Version = orig })

	stdout, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "promptshift v0.1.0-test", strings.TrimSpace(stdout))
}

func TestVersion_RejectsArgs(t *testing.T) {
	err := versionCmd.Args(versionCmd, []string{"extra"})
	assert.Error(t, err)
}

func TestExitError_DefaultMessages(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{ExitNoMigration, "no migration produced"},
		{ExitFailure, "migration failed"},
		{ExitInvalidArgs, "promptshift: error"},
	}
	for _, tt := range tests {
		err := exitError(tt.code, "")
		assert.Equal(t, tt.code, err.ExitCode())
		assert.Contains(t, err.Error(), tt.want)
	}

	err := exitError(ExitFailure, "promptshift: %d failed", 2)
	assert.Equal(t, "promptshift: 2 failed", err.Error())
}
