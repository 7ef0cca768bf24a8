// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package migrate_test

import (
	"strings"
	"testing"

	"github.com/promptshift/promptshift/internal/llm"
	"github.com/promptshift/promptshift/internal/migrate"
	"github.com/promptshift/promptshift/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schemas(t *testing.T, reg *providers.Registry, orig, target string) (providers.Schema, providers.Schema) {
	t.Helper()
	current, err := reg.SchemaFor(orig)
	require.NoError(t, err)
	next, err := reg.SchemaFor(target)
	require.NoError(t, err)
	return current, next
}

func TestBuildInstructions_SameProvider(t *testing.T) {
	f := newFixture(t)
	req := migrate.Request{
		OriginalCode:  originalCode,
		OriginalModel: f.model(t, "openai/ChatCompletion", "gpt-4-0613"),
		NewModel:      f.model(t, "openai/ChatCompletion", "gpt-3.5-turbo-0613"),
	}
	current, _ := schemas(t, f.reg, "openai/ChatCompletion", "openai/ChatCompletion")

	set := migrate.BuildInstructions(req, current, providers.Schema{})

	assert.Equal(t, []migrate.FragmentKind{
		migrate.FragmentCurrentSchema,
		migrate.FragmentOriginalCode,
		migrate.FragmentTargetModel,
		migrate.FragmentProviderUnchanged,
	}, set.Kinds())
	assert.False(t, set.Has(migrate.FragmentProviderSwitch))
	assert.Equal(t, "The provider is the same as the old provider: openai/ChatCompletion", set[3].Content)
	assert.Equal(t, "Return the prompt constructor function for GPT-3.5 Turbo given the existing prompt constructor function for GPT-4", set[2].Content)

	for _, frag := range set[1:] {
		assert.NotContains(t, frag.Content, current.String(), "schema must only appear as system context")
	}
}

func TestBuildInstructions_ProviderSwitch(t *testing.T) {
	f := newFixture(t)
	req := migrate.Request{
		OriginalCode:  originalCode,
		OriginalModel: f.model(t, "openai/ChatCompletion", "gpt-4-0613"),
		NewModel:      f.model(t, "anthropic/completion", "claude-2.0"),
	}
	current, target := schemas(t, f.reg, "openai/ChatCompletion", "anthropic/completion")

	set := migrate.BuildInstructions(req, current, target)

	assert.Equal(t, []migrate.FragmentKind{
		migrate.FragmentCurrentSchema,
		migrate.FragmentOriginalCode,
		migrate.FragmentTargetModel,
		migrate.FragmentProviderSwitch,
	}, set.Kinds())
	assert.False(t, set.Has(migrate.FragmentProviderUnchanged))
	assert.Less(t, set.Index(migrate.FragmentOriginalCode), set.Index(migrate.FragmentTargetModel))
	assert.Less(t, set.Index(migrate.FragmentTargetModel), set.Index(migrate.FragmentProviderSwitch))

	sw := set[set.Index(migrate.FragmentProviderSwitch)]
	assert.Equal(t, llm.RoleUser, sw.Role)
	assert.True(t, strings.HasPrefix(sw.Content,
		`As seen in the first argument to definePrompt, the old provider endpoint was "openai/ChatCompletion". The new provider endpoint is "anthropic/completion". Here is the schema for the new model:`+"\n---\n"))
	assert.True(t, strings.HasSuffix(sw.Content, target.String()))
}

func TestBuildInstructions_SchemaAndCodeFragments(t *testing.T) {
	f := newFixture(t)
	req := migrate.Request{
		OriginalCode:  originalCode,
		OriginalModel: f.model(t, "openai/ChatCompletion", "gpt-4-0613"),
		Instructions:  "Add a system message.",
	}
	current, _ := schemas(t, f.reg, "openai/ChatCompletion", "openai/ChatCompletion")

	set := migrate.BuildInstructions(req, current, providers.Schema{})
	require.Len(t, set, 3)

	assert.Equal(t, llm.RoleSystem, set[0].Role)
	assert.Equal(t, "Your job is to update prompt constructor functions. Here is the api shape for the current model:\n---\n"+current.String(), set[0].Content)
	assert.Equal(t, "This is the current prompt constructor function:\n---\n"+originalCode, set[1].Content)
	assert.Equal(t, migrate.Fragment{Kind: migrate.FragmentInstructions, Role: llm.RoleUser, Content: "Add a system message."}, set[2])
	assert.False(t, set.Has(migrate.FragmentTargetModel))
}

func TestBuildInstructions_InstructionsAreLast(t *testing.T) {
	f := newFixture(t)
	req := migrate.Request{
		OriginalCode:  originalCode,
		OriginalModel: f.model(t, "openai/ChatCompletion", "gpt-4-0613"),
		NewModel:      f.model(t, "replicate/llama2", "70b-chat"),
		Instructions:  "Actually, target claude instead.",
	}
	current, target := schemas(t, f.reg, "openai/ChatCompletion", "replicate/llama2")

	set := migrate.BuildInstructions(req, current, target)
	assert.Equal(t, migrate.FragmentInstructions, set[len(set)-1].Kind)
	assert.Len(t, set, 5)
}

func TestInstructionSet_Messages(t *testing.T) {
	set := migrate.InstructionSet{
		{Kind: migrate.FragmentCurrentSchema, Role: llm.RoleSystem, Content: "a"},
		{Kind: migrate.FragmentOriginalCode, Role: llm.RoleUser, Content: "b"},
	}
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleSystem, Content: "a"},
		{Role: llm.RoleUser, Content: "b"},
	}, set.Messages())
	assert.Equal(t, -1, set.Index(migrate.FragmentInstructions))
}

func TestFragmentKind_String(t *testing.T) {
	assert.Equal(t, "provider_switch", migrate.FragmentProviderSwitch.String())
	assert.Equal(t, "fragment(99)", migrate.FragmentKind(99).String())
}
