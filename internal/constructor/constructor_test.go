// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package constructor_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/promptshift/promptshift/internal/constructor"
	"github.com/promptshift/promptshift/internal/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIsolate(t *testing.T) *sandbox.Isolate {
	t.Helper()
	iso, err := sandbox.NewIsolate(sandbox.Options{})
	require.NoError(t, err)
	t.Cleanup(iso.Close)
	return iso
}

func TestEvaluate_Default(t *testing.T) {
	iso := newIsolate(t)

	p, err := constructor.Evaluate(context.Background(), iso, constructor.Default, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai/ChatCompletion", p.ProviderID)
	assert.Equal(t, "gpt-3.5-turbo-0613", p.Input["model"])
	assert.Equal(t, 1, p.Calls)

	msgs := p.Input["messages"].([]any)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "system", msg["role"])
	assert.Equal(t, "Hello, world!", msg["content"])
	assert.Zero(t, iso.Stats().LiveContexts)
}

func TestEvaluate_TypeScript(t *testing.T) {
	iso := newIsolate(t)

	code := `
const prompt: string = "\n\nHuman: hi\n\nAssistant:";
interface Unused { a: number }
definePrompt("anthropic/completion", {
  model: "claude-2.0",
  prompt,
  max_tokens_to_sample: 256 as number,
});`
	p, err := constructor.Evaluate(context.Background(), iso, code, nil)
	require.NoError(t, err)
	assert.Equal(t, "anthropic/completion", p.ProviderID)
	assert.Equal(t, "\n\nHuman: hi\n\nAssistant:", p.Input["prompt"])
	assert.Equal(t, float64(256), p.Input["max_tokens_to_sample"])
}

func TestEvaluate_Scenario(t *testing.T) {
	iso := newIsolate(t)

	code := `definePrompt("openai/ChatCompletion", {
  model: "gpt-4-0613",
  messages: [{ role: "user", content: ` + "`Summarize: ${scenario.text}`" + ` }],
});`
	p, err := constructor.Evaluate(context.Background(), iso, code, map[string]any{"text": "the news"})
	require.NoError(t, err)
	msg := p.Input["messages"].([]any)[0].(map[string]any)
	assert.Equal(t, "Summarize: the news", msg["content"])
}

func TestEvaluate_LastCallWins(t *testing.T) {
	iso := newIsolate(t)

	code := `definePrompt("openai/ChatCompletion", { model: "a" });
definePrompt("openai/ChatCompletion", { model: "b" });`
	p, err := constructor.Evaluate(context.Background(), iso, code, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", p.Input["model"])
	assert.Equal(t, 2, p.Calls)
}

func TestEvaluate_Errors(t *testing.T) {
	iso := newIsolate(t)

	tests := []struct {
		name string
		code string
		want error
	}{
		{"no call", `const x = 1;`, constructor.ErrNoPrompt},
		{"mixed providers", `definePrompt("a", {}); definePrompt("b", {});`, constructor.ErrMixedProviders},
		{"input not object", `definePrompt("a", "text");`, constructor.ErrInvalidPrompt},
		{"empty provider", `definePrompt("", {});`, constructor.ErrInvalidPrompt},
		{"call log replaced", `definePrompt("a", {}); __definePromptCalls = 5;`, constructor.ErrInvalidPrompt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := constructor.Evaluate(context.Background(), iso, tt.code, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEvaluate_SyntaxError(t *testing.T) {
	iso := newIsolate(t)

	_, err := constructor.Evaluate(context.Background(), iso, `definePrompt("a", {`, nil)
	var syn *constructor.SyntaxError
	require.True(t, errors.As(err, &syn), "got %v", err)
	assert.NotEmpty(t, syn.Messages)
}

func TestEvaluate_NoAmbientAccess(t *testing.T) {
	iso := newIsolate(t)

	_, err := constructor.Evaluate(context.Background(), iso, `definePrompt("a", { env: process.env });`, nil)
	var ee *sandbox.ExecutionError
	require.True(t, errors.As(err, &ee), "got %v", err)
	assert.Equal(t, sandbox.StageRun, ee.Stage)
}

func TestFormat_Canonical(t *testing.T) {
	out, err := constructor.Format(`definePrompt('openai/ChatCompletion', {model: 'gpt-4-0613',
    messages: []})`)
	require.NoError(t, err)
	assert.Contains(t, out, `definePrompt("openai/ChatCompletion", {`)
	assert.Contains(t, out, "\n  model: \"gpt-4-0613\"")
	assert.NotContains(t, out, "'")
	assert.True(t, strings.HasSuffix(out, ");\n"))
}

func TestFormat_Idempotent(t *testing.T) {
	once, err := constructor.Format(constructor.Default)
	require.NoError(t, err)
	twice, err := constructor.Format(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestFormat_RefusesLossyInput(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"type annotation", `const m: string = "x"; definePrompt("a", { model: m });`},
		{"as cast", `definePrompt("a", { model: scenario.name as string });`},
		{"line comment", "// greet the user\ndefinePrompt(\"a\", { model: \"m\" });"},
		{"block comment", `definePrompt("a", { /* pinned */ model: "m" });`},
		{"trailing comment", "definePrompt(\"a\", {}); // done"},
		{"comment and types", "// Ask the model for a greeting\nconst greeting: string = scenario.name as string;\ndefinePrompt(\"a\", { prompt: greeting });"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := constructor.Format(tt.code)
			require.Error(t, err)
			assert.ErrorIs(t, err, constructor.ErrLossyFormat)
			assert.Empty(t, out)
		})
	}
}

func TestFormat_CommentMarkersInLiterals(t *testing.T) {
	code := "definePrompt('a', {url: 'http://example.com//x', re: /a\\/\\/b/, note: `/* kept */`, ratio: 4 / 2 / 1})"
	out, err := constructor.Format(code)
	require.NoError(t, err)
	assert.Contains(t, out, `"http://example.com//x"`)
	assert.Contains(t, out, "`/* kept */`")
}

func TestFormat_SyntaxError(t *testing.T) {
	_, err := constructor.Format(`definePrompt("a", {`)
	var syn *constructor.SyntaxError
	require.True(t, errors.As(err, &syn))
}

func TestTranspile_StripsTypes(t *testing.T) {
	js, err := constructor.Transpile(`const n: number = 1; definePrompt("a", { n });`)
	require.NoError(t, err)
	assert.NotContains(t, js, "number")
}
