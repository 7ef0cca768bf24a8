// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptshift/promptshift/internal/httpapi"
)

func TestServeCmd_Flags(t *testing.T) {
	f := serveCmd.Flags().Lookup("addr")
	require.NotNil(t, f)
	assert.Equal(t, httpapi.DefaultAddr, f.DefValue)
	assert.Error(t, serveCmd.Args(serveCmd, []string{"extra"}))
}

func TestServe_InvalidConfig(t *testing.T) {
	dir := chdirTemp(t)
	writeConfig(t, dir, "sandbox:\n  memory_limit_mb: -1\n")
	useMockGenerator(t)

	_, _, err := runCLI(t, "", "serve", "--addr", "127.0.0.1:0")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArgs, exitCode(err))
}

func TestServe_BadAddress(t *testing.T) {
	chdirTemp(t)
	useMockGenerator(t)

	_, _, err := runCLI(t, "", "serve", "--addr", "not-an-address")
	assert.Error(t, err)
}
