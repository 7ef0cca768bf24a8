// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMCPServeCmd_IsRegistered(t *testing.T) {
	found := false
	for _, cmd := range mcpCmd.Commands() {
		if cmd.Use == "serve" {
			found = true
			break
		}
	}
	assert.True(t, found, "serve command should be registered on mcpCmd")
}

func TestMCPServeCmd_RejectsArgs(t *testing.T) {
	err := mcpServeCmd.Args(mcpServeCmd, []string{"extra"})
	assert.Error(t, err)
}

func TestMCPServeCmd_EngineFlags(t *testing.T) {
	for _, name := range []string{"backend", "model", "max-attempts", "strict", "registry"} {
		assert.NotNil(t, mcpServeCmd.Flags().Lookup(name), "mcp serve should accept --%s", name)
	}
}
