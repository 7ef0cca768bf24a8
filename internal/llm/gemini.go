// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// defaultGeminiModel is the model used when no override is provided.
const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements Provider using the Google Gen AI SDK.
type GeminiProvider struct {
	client     *genai.Client
	model      string
	maxRetries int
	labels     bool
}

// Compile-time check that GeminiProvider satisfies the Provider interface.
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider. It reads GEMINI_API_KEY,
// then GOOGLE_API_KEY, when no key is passed.
func NewGeminiProvider(opts ...Option) (*GeminiProvider, error) {
	cfg := defaultOptions(defaultGeminiModel)
	for _, o := range opts {
		o(&cfg)
	}

	apiKey := cfg.apiKey
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	apiKey, err := resolveKey(apiKey, "GEMINI_API_KEY")
	if err != nil {
		return nil, err
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		HTTPClient: cfg.httpClient,
	}
	if cfg.baseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.baseURL
	}

	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &GeminiProvider{
		client:     client,
		model:      cfg.model,
		maxRetries: cfg.maxRetries,
		labels:     client.ClientConfig().Backend == genai.BackendVertexAI,
	}, nil
}

// Complete sends a GenerateContent request. Tags become request labels on
// Vertex AI only; the Gemini API rejects labels.
func (p *GeminiProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	maxTokens := int32(defaultMaxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int32(req.MaxTokens)
	}

	config := &genai.GenerateContentConfig{MaxOutputTokens: maxTokens}

	if system := req.systemText(); len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	var contents []*genai.Content
	for _, m := range req.conversation() {
		switch m.Role {
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		}
	}

	if req.Temperature != nil {
		t := float32(*req.Temperature)
		config.Temperature = &t
	}

	if p.labels && len(req.Tags) > 0 {
		config.Labels = labelsFromTags(req.Tags)
	}

	if req.Tool != nil {
		config.Tools = []*genai.Tool{{
			FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:                 req.Tool.Name,
				Description:          req.Tool.Description,
				ParametersJsonSchema: req.Tool.Schema(),
			}},
		}}
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode:                 genai.FunctionCallingConfigModeAny,
				AllowedFunctionNames: []string{req.Tool.Name},
			},
		}
	}

	result, err := withRetries(ctx, p.maxRetries, geminiRetryable, func() (*genai.GenerateContentResponse, error) {
		return p.client.Models.GenerateContent(ctx, model, contents, config)
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: completion failed: %w", err)
	}

	resp := &Response{Model: model, Content: result.Text()}
	if result.ModelVersion != "" {
		resp.Model = result.ModelVersion
	}
	if u := result.UsageMetadata; u != nil {
		resp.Usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
		}
	}

	if req.Tool == nil {
		return resp, nil
	}
	for _, call := range result.FunctionCalls() {
		if call.Name != req.Tool.Name {
			continue
		}
		args := call.Args
		if args == nil {
			args = map[string]any{}
		}
		raw, err := json.Marshal(args)
		if err != nil {
			return resp, fmt.Errorf("gemini: encoding tool arguments: %w", err)
		}
		resp.ToolArguments = string(raw)
		return resp, nil
	}
	return resp, fmt.Errorf("gemini: %w %q", ErrNoToolCall, req.Tool.Name)
}

func geminiRetryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return transientStatus(apiErr.Code)
	}
	return false
}

// labelsFromTags rewrites tags into the lowercase label alphabet. Keys must
// start with a letter; tags whose keys cannot are dropped.
func labelsFromTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		key := strings.TrimLeft(labelText(k), "_-0123456789")
		if key == "" {
			continue
		}
		out[key] = labelText(v)
	}
	return out
}

func labelText(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, s)
}

// Model returns the default model configured for this provider.
func (p *GeminiProvider) Model() string {
	return p.model
}

// MaxRetries returns the configured max retry count.
func (p *GeminiProvider) MaxRetries() int {
	return p.maxRetries
}
