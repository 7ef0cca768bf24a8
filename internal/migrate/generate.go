// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package migrate

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/promptshift/promptshift/internal/llm"
	"github.com/promptshift/promptshift/internal/sandbox"
)

const (
	// ToolName is the function the generation service is forced to call.
	ToolName = "update_prompt_constructor_function"

	// ArgumentField is the single string field the forced call must carry.
	ArgumentField = "new_prompt_function"

	// PromptID tags every generation request.
	PromptID = "migrate_prompt_constructor"

	// argsSlot is the sandbox global the argument payload is assigned to.
	argsSlot = "constructPromptFunctionArgs"
)

// UpdateTool returns the forced-output declaration sent with every request.
func UpdateTool() *llm.Tool {
	return &llm.Tool{
		Name:        ToolName,
		Description: "Return the updated prompt constructor function.",
		Properties: map[string]any{
			ArgumentField: map[string]any{
				"type":        "string",
				"description": "The new prompt function, runnable in typescript",
			},
		},
		Required: []string{ArgumentField},
	}
}

// Tags returns the observability labels for a generation request.
func Tags(translation bool, version string) map[string]string {
	if version == "" {
		version = "dev"
	}
	return map[string]string{
		"prompt_id":         PromptID,
		"model_translation": strconv.FormatBool(translation),
		"$sdk":              "go",
		"$sdk.version":      version,
	}
}

// generate submits set and returns the raw argument payload of the forced
// call. A response with no payload yields "{}", which later fails validation.
func (e *Engine) generate(ctx context.Context, set InstructionSet, translation bool) (string, error) {
	resp, err := e.generator.Complete(ctx, llm.Request{
		Model:       e.model,
		Messages:    set.Messages(),
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
		Tool:        UpdateTool(),
		Tags:        Tags(translation, e.version),
	})
	if err != nil && !errors.Is(err, llm.ErrNoToolCall) {
		return "", &GenerationError{Err: err}
	}
	if resp == nil || strings.TrimSpace(resp.ToolArguments) == "" {
		return "{}", nil
	}
	return resp.ToolArguments, nil
}

// extract runs the argument payload in a fresh sandbox context and returns
// the validated new_prompt_function string.
func (e *Engine) extract(ctx context.Context, args string) (string, error) {
	v, err := e.isolate.Eval(ctx, "globalThis."+argsSlot+" = "+args+";", argsSlot)
	if err != nil {
		var ee *sandbox.ExecutionError
		if errors.As(err, &ee) && errors.Is(err, sandbox.ErrUndefinedSlot) {
			return "", &ValidationError{Reason: "payload produced no value", Err: err}
		}
		return "", err
	}
	return validateArgs(v)
}

func validateArgs(v any) (string, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", &ValidationError{Reason: "payload is not an object"}
	}
	raw, ok := obj[ArgumentField]
	if !ok {
		return "", &ValidationError{Reason: "payload has no " + ArgumentField + " field"}
	}
	code, ok := raw.(string)
	if !ok {
		return "", &ValidationError{Reason: ArgumentField + " is not a string"}
	}
	if strings.TrimSpace(code) == "" {
		return "", &ValidationError{Reason: ArgumentField + " is empty"}
	}
	return code, nil
}
