// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

// Package llm provides a provider-agnostic client interface for the external
// text-generation service, with backends for Anthropic, OpenAI, and Gemini.
package llm

import (
	"context"
	"errors"
)

// ErrNoToolCall is returned when a request forced a tool call but the
// service answered without one.
var ErrNoToolCall = errors.New("llm: response contains no call to the forced tool")

// Provider abstracts an LLM API behind a single synchronous completion method.
type Provider interface {
	// Complete sends a request to the LLM and returns the response.
	// Implementations must respect context cancellation and deadlines.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Role tags a message fragment.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged text block in a conversation.
type Message struct {
	Role    Role
	Content string
}

// Tool declares a single function the model is forced to call. Its
// arguments are returned verbatim in Response.ToolArguments.
type Tool struct {
	Name        string
	Description string

	// Properties is the JSON Schema "properties" object of the arguments.
	Properties map[string]any

	// Required lists mandatory argument names.
	Required []string
}

// Schema returns the tool's argument schema as a JSON Schema object.
func (t *Tool) Schema() map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": t.Properties,
	}
	if len(t.Required) > 0 {
		s["required"] = t.Required
	}
	return s
}

// Request describes a single completion request.
type Request struct {
	// Messages is the ordered conversation. System messages are hoisted
	// into the provider's system slot in order.
	Messages []Message

	// Prompt is a shorthand for a single user message. It is appended after
	// Messages when set.
	Prompt string

	// SystemPrompt sets the system instruction for the completion. It is
	// placed before any system messages.
	SystemPrompt string

	// Model overrides the provider's default model. If empty, the provider
	// uses its configured default.
	Model string

	// MaxTokens limits the response length. If zero, the provider uses its
	// own default.
	MaxTokens int

	// Temperature controls randomness. If nil, the provider uses its default.
	Temperature *float64

	// Tool, when set, forces the model to answer with a call to it.
	Tool *Tool

	// Tags are opaque observability labels forwarded where the API allows.
	Tags map[string]string
}

// conversation returns Messages with Prompt appended.
func (r Request) conversation() []Message {
	msgs := r.Messages
	if r.Prompt != "" {
		msgs = append(append([]Message(nil), msgs...), Message{Role: RoleUser, Content: r.Prompt})
	}
	return msgs
}

// systemText joins SystemPrompt and all system messages.
func (r Request) systemText() []string {
	var out []string
	if r.SystemPrompt != "" {
		out = append(out, r.SystemPrompt)
	}
	for _, m := range r.Messages {
		if m.Role == RoleSystem {
			out = append(out, m.Content)
		}
	}
	return out
}

// Response holds the result of a completion call.
type Response struct {
	// Content is the text returned by the model.
	Content string

	// ToolArguments is the raw JSON argument payload of the forced tool call.
	ToolArguments string

	// Model is the model that actually served the request (may differ from
	// the requested model if the provider remapped it).
	Model string

	// Usage reports token consumption.
	Usage Usage
}

// Usage tracks input and output token counts for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}
