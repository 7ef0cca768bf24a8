// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelsFromTags(t *testing.T) {
	got := labelsFromTags(map[string]string{
		"prompt_id":         "migrate_prompt_constructor",
		"model_translation": "openai/ChatCompletion:gpt-4 -> anthropic/completion:claude-2.0",
		"$sdk":              "go",
		"$sdk.version":      "1.2.0",
		"123":               "dropped",
	})
	assert.Equal(t, map[string]string{
		"prompt_id":         "migrate_prompt_constructor",
		"model_translation": "openai_chatcompletion_gpt-4_-__anthropic_completion_claude-2_0",
		"sdk":               "go",
		"sdk_version":       "1_2_0",
	}, got)
}

func TestRequestConversation(t *testing.T) {
	req := Request{
		Messages:     []Message{{Role: RoleSystem, Content: "s"}, {Role: RoleUser, Content: "u"}},
		Prompt:       "p",
		SystemPrompt: "top",
	}
	assert.Equal(t, []Message{
		{Role: RoleSystem, Content: "s"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleUser, Content: "p"},
	}, req.conversation())
	assert.Len(t, req.Messages, 2)
	assert.Equal(t, []string{"top", "s"}, req.systemText())
}
