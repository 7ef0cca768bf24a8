// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package migrate

import (
	"fmt"

	"github.com/promptshift/promptshift/internal/llm"
	"github.com/promptshift/promptshift/internal/providers"
)

// FragmentKind identifies the purpose of an instruction fragment.
type FragmentKind int

const (
	// FragmentCurrentSchema carries the original provider's input schema.
	FragmentCurrentSchema FragmentKind = iota
	// FragmentOriginalCode carries the constructor being migrated.
	FragmentOriginalCode
	// FragmentTargetModel names the model to migrate to.
	FragmentTargetModel
	// FragmentProviderSwitch names old and new providers and carries the
	// new provider's schema.
	FragmentProviderSwitch
	// FragmentProviderUnchanged confirms the provider stays the same.
	FragmentProviderUnchanged
	// FragmentInstructions carries caller-supplied instructions.
	FragmentInstructions
)

var fragmentNames = map[FragmentKind]string{
	FragmentCurrentSchema:     "current_schema",
	FragmentOriginalCode:      "original_code",
	FragmentTargetModel:       "target_model",
	FragmentProviderSwitch:    "provider_switch",
	FragmentProviderUnchanged: "provider_unchanged",
	FragmentInstructions:      "instructions",
}

func (k FragmentKind) String() string {
	if name, ok := fragmentNames[k]; ok {
		return name
	}
	return fmt.Sprintf("fragment(%d)", int(k))
}

// Fragment is one role-tagged block of the instruction sequence.
type Fragment struct {
	Kind    FragmentKind
	Role    llm.Role
	Content string
}

// InstructionSet is the ordered fragment sequence sent to the generation
// service. Later fragments are the more authoritative instructions.
type InstructionSet []Fragment

// Messages converts the set into completion messages, preserving order.
func (s InstructionSet) Messages() []llm.Message {
	msgs := make([]llm.Message, len(s))
	for i, f := range s {
		msgs[i] = llm.Message{Role: f.Role, Content: f.Content}
	}
	return msgs
}

// Index returns the position of the first fragment of kind k, or -1.
func (s InstructionSet) Index(k FragmentKind) int {
	for i, f := range s {
		if f.Kind == k {
			return i
		}
	}
	return -1
}

// Has reports whether the set contains a fragment of kind k.
func (s InstructionSet) Has(k FragmentKind) bool {
	return s.Index(k) >= 0
}

// Kinds lists fragment kinds in order.
func (s InstructionSet) Kinds() []FragmentKind {
	kinds := make([]FragmentKind, len(s))
	for i, f := range s {
		kinds[i] = f.Kind
	}
	return kinds
}

// BuildInstructions composes the instruction sequence for req. current is the
// original provider's schema; target is the new provider's schema and is
// only used when the provider changes. req.OriginalModel must be set.
func BuildInstructions(req Request, current, target providers.Schema) InstructionSet {
	orig := req.OriginalModel
	set := InstructionSet{
		{
			Kind:    FragmentCurrentSchema,
			Role:    llm.RoleSystem,
			Content: "Your job is to update prompt constructor functions. Here is the api shape for the current model:\n---\n" + current.String(),
		},
		{
			Kind:    FragmentOriginalCode,
			Role:    llm.RoleUser,
			Content: "This is the current prompt constructor function:\n---\n" + req.OriginalCode,
		},
	}

	if next := req.NewModel; next != nil {
		set = append(set, Fragment{
			Kind:    FragmentTargetModel,
			Role:    llm.RoleUser,
			Content: fmt.Sprintf("Return the prompt constructor function for %s given the existing prompt constructor function for %s", next.Name, orig.Name),
		})
		if next.ProviderID != orig.ProviderID {
			set = append(set, Fragment{
				Kind: FragmentProviderSwitch,
				Role: llm.RoleUser,
				Content: fmt.Sprintf("As seen in the first argument to definePrompt, the old provider endpoint was %q. The new provider endpoint is %q. Here is the schema for the new model:\n---\n%s",
					orig.ProviderID, next.ProviderID, target.String()),
			})
		} else {
			set = append(set, Fragment{
				Kind:    FragmentProviderUnchanged,
				Role:    llm.RoleUser,
				Content: "The provider is the same as the old provider: " + orig.ProviderID,
			})
		}
	}

	if req.Instructions != "" {
		set = append(set, Fragment{
			Kind:    FragmentInstructions,
			Role:    llm.RoleUser,
			Content: req.Instructions,
		})
	}
	return set
}
