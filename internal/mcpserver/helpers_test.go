// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package mcpserver

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/promptshift/promptshift/internal/llm"
	"github.com/promptshift/promptshift/internal/migrate"
	"github.com/promptshift/promptshift/internal/providers"
	"github.com/promptshift/promptshift/internal/sandbox"
)

const openAIConstructor = `definePrompt("openai/ChatCompletion", {
  model: "gpt-4-0613",
  messages: [{ role: "user", content: "hi" }],
});`

const anthropicConstructor = `definePrompt("anthropic/completion", {
  model: "claude-2.0",
  prompt: "\n\nHuman: hi\n\nAssistant:",
  max_tokens_to_sample: 256,
});`

// newTestTools builds a tools value backed by the builtin registry and a
// mock generator.
func newTestTools(t testing.TB, responses ...llm.MockResponse) (*tools, *llm.MockProvider) {
	t.Helper()
	reg, err := providers.Builtin()
	require.NoError(t, err)
	iso, err := sandbox.NewIsolate(sandbox.Options{})
	require.NoError(t, err)
	t.Cleanup(iso.Close)

	mock := llm.NewMockProvider(responses...)
	engine := migrate.New(reg, mock, iso,
		migrate.WithFormatter(migrate.NopFormatter{}),
		migrate.WithBackoff(0, 0),
		migrate.WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))),
	)
	return &tools{registry: reg, engine: engine}, mock
}

func toolArgs(t *testing.T, code string) string {
	t.Helper()
	b, err := json.Marshal(map[string]string{migrate.ArgumentField: code})
	require.NoError(t, err)
	return string(b)
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be text")
	return text.Text
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
