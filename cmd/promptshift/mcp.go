// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/promptshift/promptshift/internal/mcpserver"
)

var mcpEngine engineFlags

// mcpCmd is the parent command for MCP-related subcommands.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server commands",
	Long:  "Commands for running promptshift as an MCP server, exposing migrate, list_providers, and describe_model tools to AI agents.",
}

// mcpServeCmd runs the MCP server over stdio.
var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Start an MCP server on stdin/stdout, exposing promptshift's tools:
  - migrate:         Rewrite a prompt constructor for a new model or provider
  - list_providers:  List registered providers and their models
  - describe_model:  Describe one model and its provider's request schema

Logs go to stderr so they never interleave with the protocol stream.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mcpEngine.apply(cmd, cfg)

		rt, err := newRuntime(cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		deps := mcpserver.Deps{Registry: rt.registry, Engine: rt.engine}
		return mcpserver.Run(cmd.Context(), Version, deps, &mcp.StdioTransport{})
	},
}

func init() {
	mcpEngine.register(mcpServeCmd)
	mcpCmd.AddCommand(mcpServeCmd)
}
