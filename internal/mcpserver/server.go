// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

// Package mcpserver implements an MCP (Model Context Protocol) server
// that exposes migration and registry lookups as tools over stdio transport.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/promptshift/promptshift/internal/migrate"
	"github.com/promptshift/promptshift/internal/providers"
)

// Deps are the components the tools call into.
type Deps struct {
	Registry *providers.Registry
	Engine   *migrate.Engine
}

// New creates a new MCP server with promptshift's tools registered.
func New(version string, deps Deps) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "promptshift",
		Title:   "Promptshift prompt constructor migration",
		Version: version,
	}, nil)

	registerTools(server, &tools{registry: deps.Registry, engine: deps.Engine, version: version})
	return server
}

// Run creates an MCP server and runs it on the given transport.
// It blocks until the client disconnects or the context is cancelled.
func Run(ctx context.Context, version string, deps Deps, transport mcp.Transport) error {
	server := New(version, deps)
	return server.Run(ctx, transport)
}
