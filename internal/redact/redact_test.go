// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package redact

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString_RedactsKnownEnvVars(t *testing.T) {
	const secret = "sk-TESTSECRETVALUE1234567890" //nolint:gosec // fake test credential
	t.Setenv("OPENAI_API_KEY", secret)
	resetCache()

	input := "error: POST https://api.openai.com failed with key sk-TESTSECRETVALUE1234567890"
	got := String(input)

	assert.Equal(t, "error: POST https://api.openai.com failed with key [REDACTED]", got)
}

func TestString_NoSecretSetIsNoop(t *testing.T) {
	for _, v := range sensitiveEnvVars {
		t.Setenv(v, "")
		os.Unsetenv(v) //nolint:errcheck // restored by t.Setenv
	}
	resetCache()

	input := "some normal error message"
	assert.Equal(t, input, String(input))
}

func TestString_ShortValuesIgnored(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "abc")
	resetCache()

	input := "abc is in the string abc"
	assert.Equal(t, input, String(input))
}

func TestString_MultipleSecrets(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-token-aaaa")
	t.Setenv("GOOGLE_API_KEY", "test-token-bbbb")
	resetCache()

	got := String("tokens: test-token-aaaa and test-token-bbbb")
	assert.Equal(t, "tokens: [REDACTED] and [REDACTED]", got)
}

func TestRegister(t *testing.T) {
	resetCache()
	t.Cleanup(resetCache)

	Register("flag-key-123456")
	Register("xy")

	assert.Equal(t, "using [REDACTED] for xy", String("using flag-key-123456 for xy"))
}

func TestError(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-errorsecret")
	resetCache()

	err := fmt.Errorf("openai: completion failed: %w", errors.New("bad key sk-errorsecret"))
	assert.Equal(t, "openai: completion failed: bad key [REDACTED]", Error(err))
	assert.Equal(t, "", Error(nil))
}
