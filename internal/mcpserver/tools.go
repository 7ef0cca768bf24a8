// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/promptshift/promptshift/internal/migrate"
	"github.com/promptshift/promptshift/internal/output"
	"github.com/promptshift/promptshift/internal/providers"
)

// MigrateInput is the input schema for the migrate MCP tool.
type MigrateInput struct {
	OriginalCode  string `json:"original_code,omitempty" jsonschema:"Prompt constructor source to migrate"`
	Path          string `json:"path,omitempty" jsonschema:"File holding the prompt constructor, read when original_code is empty"`
	OriginalModel string `json:"original_model,omitempty" jsonschema:"Model the constructor targets now, as provider:model or a bare model ID"`
	NewModel      string `json:"new_model,omitempty" jsonschema:"Model to migrate to, as provider:model or a bare model ID"`
	Instructions  string `json:"instructions,omitempty" jsonschema:"Free-form instructions for the rewrite"`
	Format        string `json:"format,omitempty" jsonschema:"Output format: json, markdown, code, sarif (default: json)"`
}

// ListProvidersInput is the input schema for the list_providers MCP tool.
type ListProvidersInput struct {
	Provider string `json:"provider,omitempty" jsonschema:"Only list this provider ID"`
}

// DescribeModelInput is the input schema for the describe_model MCP tool.
type DescribeModelInput struct {
	Model         string `json:"model" jsonschema:"Model as provider:model or a bare model ID"`
	IncludeSchema bool   `json:"include_schema,omitempty" jsonschema:"Include the provider input schema"`
}

type tools struct {
	registry *providers.Registry
	engine   *migrate.Engine
	version  string
}

// boolPtr returns a pointer to a bool.
func boolPtr(b bool) *bool { return &b }

// registerTools adds all promptshift tools to the MCP server.
func registerTools(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "migrate",
		Description: "Rewrite a prompt constructor for a different model or provider, or apply free-form instructions to it. Returns the new constructor code.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    true,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, t.handleMigrate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_providers",
		Description: "List the registered model providers and the models each one serves.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    true,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(false),
		},
	}, t.handleListProviders)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "describe_model",
		Description: "Describe one model: display name, provider, context window and optionally the request schema its provider accepts.",
		Annotations: &mcp.ToolAnnotations{
			ReadOnlyHint:    true,
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(false),
		},
	}, t.handleDescribeModel)
}

func (t *tools) handleMigrate(ctx context.Context, _ *mcp.CallToolRequest, input MigrateInput) (*mcp.CallToolResult, any, error) {
	format := "json"
	if input.Format != "" {
		format = input.Format
	}
	formatter, err := output.GetFormatter(format)
	if err != nil {
		return nil, nil, fmt.Errorf("unsupported format %q", format)
	}
	if _, ok := formatter.(*output.SARIFFormatter); ok {
		formatter = &output.SARIFFormatter{Version: t.version}
	}

	code := input.OriginalCode
	source := "original_code"
	if code == "" && input.Path != "" {
		if code, err = ReadSource(input.Path); err != nil {
			return nil, nil, err
		}
		source = input.Path
	}

	req := migrate.Request{OriginalCode: code, Instructions: input.Instructions}
	if req.OriginalModel, err = t.resolveModel(input.OriginalModel); err != nil {
		return nil, nil, fmt.Errorf("original_model: %w", err)
	}
	if req.NewModel, err = t.resolveModel(input.NewModel); err != nil {
		return nil, nil, fmt.Errorf("new_model: %w", err)
	}

	slog.Debug("mcp migrate", "source", source, "from", input.OriginalModel, "to", input.NewModel)
	out, err := t.engine.MigrateDetailed(ctx, req)
	if err != nil && out == nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	report := output.Report{Source: source, From: input.OriginalModel, To: input.NewModel, Outcome: out, Err: err}
	if err := formatter.Format([]output.Report{report}, &buf); err != nil {
		return nil, nil, fmt.Errorf("formatting output: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: buf.String()},
		},
		IsError: err != nil,
	}, nil, nil
}

func (t *tools) handleListProviders(_ context.Context, _ *mcp.CallToolRequest, input ListProvidersInput) (*mcp.CallToolResult, any, error) {
	catalog := t.registry.Catalog()
	if input.Provider != "" {
		if _, err := t.registry.Provider(input.Provider); err != nil {
			return nil, nil, err
		}
		for _, p := range catalog {
			if p.ID == input.Provider {
				catalog = []providers.ProviderSummary{p}
				break
			}
		}
	}
	return jsonResult(map[string]any{"providers": catalog})
}

func (t *tools) handleDescribeModel(_ context.Context, _ *mcp.CallToolRequest, input DescribeModelInput) (*mcp.CallToolResult, any, error) {
	if input.Model == "" {
		return nil, nil, fmt.Errorf("model is required")
	}
	m, err := t.registry.Resolve(input.Model)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(m.Summary(input.IncludeSchema))
}

// resolveModel maps an optional model reference to its descriptor.
func (t *tools) resolveModel(ref string) (*providers.ModelDescriptor, error) {
	if ref == "" {
		return nil, nil
	}
	return t.registry.Resolve(ref)
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal json: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}
