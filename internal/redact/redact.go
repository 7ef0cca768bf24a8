// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

// Package redact provides utilities to strip sensitive values from strings
// before they appear in output, logs, or error messages.
package redact

import (
	"os"
	"strings"
	"sync"
)

// sensitiveEnvVars lists environment variable names whose values must never
// appear in output. Add new entries here as backends gain credentials.
var sensitiveEnvVars = []string{
	"ANTHROPIC_API_KEY",
	"OPENAI_API_KEY",
	"GEMINI_API_KEY",
	"GOOGLE_API_KEY",
	"PROMPTSHIFT_API_KEY",
}

// minSecretLen avoids false-positive redaction of short values.
const minSecretLen = 4

var (
	mu            sync.Mutex
	cachedSecrets []string
	extraSecrets  []string
	cacheOnce     sync.Once
)

func loadSecrets() {
	for _, envVar := range sensitiveEnvVars {
		val := os.Getenv(envVar)
		if len(val) >= minSecretLen {
			cachedSecrets = append(cachedSecrets, val)
		}
	}
}

// resetCache resets the cached secrets. Used by tests that change env vars
// between calls.
func resetCache() {
	mu.Lock()
	defer mu.Unlock()
	cachedSecrets = nil
	extraSecrets = nil
	cacheOnce = sync.Once{}
}

// ResetForTest resets the cached secrets so tests in other packages can
// verify redaction behavior after setting env vars with t.Setenv.
func ResetForTest() { resetCache() }

// Register adds a secret that did not come from the environment, such as an
// API key passed on the command line.
func Register(secret string) {
	if len(secret) < minSecretLen {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	extraSecrets = append(extraSecrets, secret)
}

// String replaces any occurrence of a known sensitive value with
// "[REDACTED]". Returns the original string if no secrets are found.
// Environment values are cached on first call.
func String(s string) string {
	mu.Lock()
	defer mu.Unlock()
	cacheOnce.Do(loadSecrets)
	for _, secret := range cachedSecrets {
		s = strings.ReplaceAll(s, secret, "[REDACTED]")
	}
	for _, secret := range extraSecrets {
		s = strings.ReplaceAll(s, secret, "[REDACTED]")
	}
	return s
}

// Error returns err's message with secrets removed, or "" for nil.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
