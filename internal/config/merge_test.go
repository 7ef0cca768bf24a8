// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestMerge_EmptyOverrideKeepsBase(t *testing.T) {
	base := &Config{
		Generation: GenerationConfig{Backend: "anthropic", MaxTokens: 100, Temperature: ptr(0.5)},
		Retry:      RetryConfig{MaxAttempts: 3, Strict: ptr(true)},
		Sandbox:    SandboxConfig{MemoryLimitMB: 32, Timeout: "5s"},
	}

	merged := Merge(base, &Config{})
	assert.Equal(t, base, merged)
	assert.NotSame(t, base, merged)
}

func TestMerge_OverrideWins(t *testing.T) {
	base := &Config{
		Generation:        GenerationConfig{Backend: "anthropic", Model: "a", MaxRetries: ptr(3)},
		Retry:             RetryConfig{AttemptTimeout: "10s", BackoffInitial: "1s", BackoffMax: "4s"},
		Registry:          RegistryConfig{Path: "base.yaml"},
		Format:            FormatConfig{Enabled: ptr(true)},
		VerifyConstructor: ptr(true),
	}
	override := &Config{
		Generation:        GenerationConfig{Model: "b", BaseURL: "http://localhost", MaxRetries: ptr(0)},
		Retry:             RetryConfig{BackoffMax: "8s", Strict: ptr(false)},
		Sandbox:           SandboxConfig{Timeout: "1s"},
		Registry:          RegistryConfig{Path: "repo.yaml"},
		Format:            FormatConfig{Enabled: ptr(false)},
		VerifyConstructor: ptr(false),
	}

	merged := Merge(base, override)
	assert.Equal(t, "anthropic", merged.Generation.Backend)
	assert.Equal(t, "b", merged.Generation.Model)
	assert.Equal(t, "http://localhost", merged.Generation.BaseURL)
	assert.Equal(t, 0, *merged.Generation.MaxRetries, "explicit zero retries overrides")
	assert.Equal(t, "10s", merged.Retry.AttemptTimeout)
	assert.Equal(t, "1s", merged.Retry.BackoffInitial)
	assert.Equal(t, "8s", merged.Retry.BackoffMax)
	assert.False(t, merged.StrictExhaustion())
	assert.Equal(t, "1s", merged.Sandbox.Timeout)
	assert.Equal(t, "repo.yaml", merged.Registry.Path)
	assert.False(t, merged.FormatEnabled())
	assert.False(t, merged.ConstructorCheck())
}

func TestMerge_DoesNotModifyInputs(t *testing.T) {
	base := &Config{Generation: GenerationConfig{Backend: "anthropic"}}
	override := &Config{Generation: GenerationConfig{Backend: "openai"}}

	_ = Merge(base, override)
	assert.Equal(t, "anthropic", base.Generation.Backend)
	assert.Equal(t, "openai", override.Generation.Backend)
}
