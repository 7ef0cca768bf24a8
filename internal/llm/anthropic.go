// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// defaultAnthropicModel is the model used when no override is provided.
const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

// AnthropicProvider implements Provider using the official Anthropic SDK.
type AnthropicProvider struct {
	client     anthropic.Client
	model      string
	maxRetries int
}

// Compile-time check that AnthropicProvider satisfies the Provider interface.
var _ Provider = (*AnthropicProvider)(nil)

// NewAnthropicProvider creates a new Anthropic provider.
// It returns an error if no API key is available (neither via option nor env).
func NewAnthropicProvider(opts ...Option) (*AnthropicProvider, error) {
	cfg := defaultOptions(defaultAnthropicModel)
	for _, o := range opts {
		o(&cfg)
	}

	apiKey, err := resolveKey(cfg.apiKey, "ANTHROPIC_API_KEY")
	if err != nil {
		return nil, err
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(cfg.maxRetries),
	}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(cfg.httpClient))
	}

	return &AnthropicProvider{
		client:     anthropic.NewClient(clientOpts...),
		model:      cfg.model,
		maxRetries: cfg.maxRetries,
	}, nil
}

// Complete sends a completion request to the Anthropic Messages API.
// Tags are not forwarded; the Messages API has no free-form metadata.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	maxTokens := int64(defaultMaxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
	}

	for _, m := range req.conversation() {
		switch m.Role {
		case RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case RoleAssistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	for _, text := range req.systemText() {
		params.System = append(params.System, anthropic.TextBlockParam{Text: text})
	}

	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	if req.Tool != nil {
		params.Tools = []anthropic.ToolUnionParam{{
			OfTool: &anthropic.ToolParam{
				Name:        req.Tool.Name,
				Description: anthropic.String(req.Tool.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: req.Tool.Properties,
					Required:   req.Tool.Required,
				},
			},
		}}
		params.ToolChoice = anthropic.ToolChoiceParamOfTool(req.Tool.Name)
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: completion failed: %w", err)
	}

	resp := &Response{
		Model: string(msg.Model),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}

	var content strings.Builder
	var called bool
	for _, block := range msg.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			content.WriteString(variant.Text)
		case anthropic.ToolUseBlock:
			if req.Tool != nil && variant.Name == req.Tool.Name && !called {
				resp.ToolArguments = string(variant.Input)
				called = true
			}
		}
	}
	resp.Content = content.String()

	if req.Tool != nil && !called {
		return resp, fmt.Errorf("anthropic: %w %q", ErrNoToolCall, req.Tool.Name)
	}
	return resp, nil
}

// Model returns the default model configured for this provider.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// MaxRetries returns the configured max retry count.
func (p *AnthropicProvider) MaxRetries() int {
	return p.maxRetries
}
