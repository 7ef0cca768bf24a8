// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// defaultOpenAIModel is the model used when no override is provided.
const defaultOpenAIModel = openai.GPT4

// OpenAIProvider implements Provider using the Chat Completions API.
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	maxRetries int
}

// Compile-time check that OpenAIProvider satisfies the Provider interface.
var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI provider. It reads OPENAI_API_KEY
// when no key is passed.
func NewOpenAIProvider(opts ...Option) (*OpenAIProvider, error) {
	cfg := defaultOptions(defaultOpenAIModel)
	for _, o := range opts {
		o(&cfg)
	}

	apiKey, err := resolveKey(cfg.apiKey, "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.baseURL != "" {
		clientCfg.BaseURL = cfg.baseURL
	}
	if cfg.httpClient != nil {
		clientCfg.HTTPClient = cfg.httpClient
	}

	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.model,
		maxRetries: cfg.maxRetries,
	}, nil
}

// Complete sends a chat completion request. Tags travel as request metadata,
// which the API only accepts on stored completions.
func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	maxTokens := defaultMaxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	params := openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: maxTokens,
	}

	if req.SystemPrompt != "" {
		params.Messages = append(params.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.conversation() {
		params.Messages = append(params.Messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	if req.Temperature != nil {
		params.Temperature = float32(*req.Temperature)
	}

	if len(req.Tags) > 0 {
		params.Store = true
		params.Metadata = req.Tags
	}

	if req.Tool != nil {
		params.Tools = []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        req.Tool.Name,
				Description: req.Tool.Description,
				Parameters:  req.Tool.Schema(),
			},
		}}
		params.ToolChoice = openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: req.Tool.Name},
		}
	}

	completion, err := p.create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: completion failed: %w", err)
	}

	resp := &Response{
		Model: completion.Model,
		Usage: Usage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
		},
	}
	if len(completion.Choices) == 0 {
		if req.Tool != nil {
			return resp, fmt.Errorf("openai: %w %q", ErrNoToolCall, req.Tool.Name)
		}
		return resp, nil
	}

	msg := completion.Choices[0].Message
	resp.Content = msg.Content
	if req.Tool == nil {
		return resp, nil
	}
	for _, call := range msg.ToolCalls {
		if call.Function.Name == req.Tool.Name {
			resp.ToolArguments = call.Function.Arguments
			return resp, nil
		}
	}
	return resp, fmt.Errorf("openai: %w %q", ErrNoToolCall, req.Tool.Name)
}

func (p *OpenAIProvider) create(ctx context.Context, params openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return withRetries(ctx, p.maxRetries, openAIRetryable, func() (openai.ChatCompletionResponse, error) {
		return p.client.CreateChatCompletion(ctx, params)
	})
}

func openAIRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return transientStatus(reqErr.HTTPStatusCode)
	}
	return false
}

// Model returns the default model configured for this provider.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// MaxRetries returns the configured max retry count.
func (p *OpenAIProvider) MaxRetries() int {
	return p.maxRetries
}
