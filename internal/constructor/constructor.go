// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

// Package constructor evaluates prompt constructor code. A constructor is a
// short TypeScript or JavaScript program that calls
// definePrompt(providerID, input) to declare the request payload it sends to
// a model provider.
package constructor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/promptshift/promptshift/internal/sandbox"
)

// Default is the constructor returned when there is no existing code to
// migrate. It targets the baseline chat model.
const Default = `definePrompt("openai/ChatCompletion", {
  model: "gpt-3.5-turbo-0613",
  messages: [
    {
      role: "system",
      content: ` + "`Hello, world!`" + `,
    },
  ],
});`

var (
	// ErrNoPrompt means the constructor never called definePrompt.
	ErrNoPrompt = errors.New("constructor did not call definePrompt")

	// ErrMixedProviders means definePrompt was called for more than one
	// provider.
	ErrMixedProviders = errors.New("constructor called definePrompt for more than one provider")

	// ErrInvalidPrompt means a definePrompt call had malformed arguments.
	ErrInvalidPrompt = errors.New("invalid definePrompt arguments")
)

// callsSlot collects definePrompt arguments inside the sandbox.
const callsSlot = "__definePromptCalls"

// shim is prepended to every constructor. It is plain script, so nothing
// from the host becomes reachable.
const shim = `var ` + callsSlot + ` = [];
function definePrompt(provider, input) {
  ` + callsSlot + `.push({ provider: provider, input: input });
}
`

// Prompt is the request payload a constructor declared.
type Prompt struct {
	ProviderID string         `json:"provider"`
	Input      map[string]any `json:"input"`

	// Calls is how many times definePrompt ran; the last call wins.
	Calls int `json:"calls"`
}

// Evaluate runs constructor code in a fresh sandbox context and returns the
// payload of its last definePrompt call. Scenario variables, when given, are
// bound as a frozen global named scenario.
func Evaluate(ctx context.Context, iso *sandbox.Isolate, code string, scenario map[string]any) (*Prompt, error) {
	js, err := Transpile(code)
	if err != nil {
		return nil, err
	}

	prefix := shim
	if scenario != nil {
		vars, err := json.Marshal(scenario)
		if err != nil {
			return nil, fmt.Errorf("encoding scenario: %w", err)
		}
		prefix += "var scenario = Object.freeze(" + string(vars) + ");\n"
	}

	sc, err := iso.NewContext(len(prefix) + len(js))
	if err != nil {
		return nil, err
	}
	defer sc.Release()

	if err := sc.Run(ctx, prefix); err != nil {
		return nil, err
	}
	if err := sc.Run(ctx, js); err != nil {
		return nil, err
	}
	v, err := sc.Copy(ctx, callsSlot)
	if err != nil {
		return nil, err
	}
	return promptFromCalls(v)
}

func promptFromCalls(v any) (*Prompt, error) {
	calls, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: call log was replaced", ErrInvalidPrompt)
	}
	if len(calls) == 0 {
		return nil, ErrNoPrompt
	}

	var p Prompt
	for i, c := range calls {
		call, ok := c.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: call %d", ErrInvalidPrompt, i+1)
		}
		provider, ok := call["provider"].(string)
		if !ok || provider == "" {
			return nil, fmt.Errorf("%w: call %d: provider must be a non-empty string", ErrInvalidPrompt, i+1)
		}
		input, ok := call["input"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: call %d: input must be an object", ErrInvalidPrompt, i+1)
		}
		if p.ProviderID != "" && p.ProviderID != provider {
			return nil, fmt.Errorf("%w: %q and %q", ErrMixedProviders, p.ProviderID, provider)
		}
		p.ProviderID = provider
		p.Input = input
	}
	p.Calls = len(calls)
	return &p, nil
}
