// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package providers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)

	cat := r.Catalog()
	require.Len(t, cat, 3)
	assert.Equal(t, "anthropic/completion", cat[0].ID)
	assert.Equal(t, "Anthropic Completion", cat[0].Name)

	openai := cat[1]
	require.NotEmpty(t, openai.Models)
	assert.Equal(t, ModelSummary{ID: "gpt-4-0613", Name: "GPT-4", ProviderID: "openai/ChatCompletion", ContextWindow: 8192}, openai.Models[0])
	for _, m := range openai.Models {
		assert.Nil(t, m.Schema)
	}
}

func TestModelSummary_WithSchema(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)
	m, err := r.DescribeModel("replicate/llama2", "70b-chat")
	require.NoError(t, err)

	s := m.Summary(true)
	require.NotEmpty(t, s.Schema)
	assert.JSONEq(t, m.Schema.String(), string(s.Schema))

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"provider_id":"replicate/llama2"`)
	assert.Contains(t, string(data), `"schema":{`)
}
