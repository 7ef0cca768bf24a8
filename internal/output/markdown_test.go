// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptshift/promptshift/internal/migrate"
)

func TestMarkdownFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter().Format(sampleReports(), &buf))
	out := buf.String()

	assert.Contains(t, out, "# Prompt Constructor Migration")
	assert.Contains(t, out, "| prompts/greet.ts | openai/ChatCompletion:gpt-4-0613 | anthropic/completion:claude-2.0 | generated | 2 |")
	assert.Contains(t, out, "| prompts/empty.ts | openai/ChatCompletion:gpt-4-0613 | - | exhausted | 5 |")
	assert.Contains(t, out, "| prompts/bad.ts | - | mystery/x:y | error | 0 |")
	assert.Contains(t, out, "```ts\ndefinePrompt(\"anthropic/completion\", {});\n```")
	assert.Contains(t, out, "1. `generation`: generation failed: rate limited")
	assert.Contains(t, out, "No migration produced.")
	assert.Contains(t, out, "**Error:** unknown provider \"mystery/x\"")
}

func TestMarkdownFormatter_Warning(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter().Format([]Report{{
		Source: "a|b.ts",
		Outcome: &migrate.Outcome{
			Path:    migrate.PathGenerated,
			Code:    "x",
			Warning: &migrate.FormattingWarning{Err: assert.AnError},
		},
	}}, &buf))

	assert.Contains(t, buf.String(), `| a\|b.ts |`)
	assert.Contains(t, buf.String(), "> Warning: formatting skipped:")
}

func TestMarkdownFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewMarkdownFormatter().Format(nil, &buf))
	assert.Empty(t, buf.String())
}
