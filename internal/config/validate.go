// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/promptshift/promptshift/internal/llm"
)

// maxMemoryLimitMB caps sandbox.memory_limit_mb.
const maxMemoryLimitMB = 4096

// Validate checks all fields in the config and returns all errors at once.
func Validate(cfg *Config) error {
	var errs []string

	g := cfg.Generation
	if g.Backend != "" && !slices.Contains(llm.Backends(), g.Backend) {
		errs = append(errs, fmt.Sprintf("generation.backend: unknown backend %q (must be one of %s)",
			g.Backend, strings.Join(llm.Backends(), ", ")))
	}
	if g.MaxTokens < 0 {
		errs = append(errs, fmt.Sprintf("generation.max_tokens: must be non-negative, got %d", g.MaxTokens))
	}
	if g.Temperature != nil && (*g.Temperature < 0 || *g.Temperature > 2) {
		errs = append(errs, fmt.Sprintf("generation.temperature: must be between 0.0 and 2.0, got %g", *g.Temperature))
	}
	if g.MaxRetries != nil && *g.MaxRetries < 0 {
		errs = append(errs, fmt.Sprintf("generation.max_retries: must be non-negative, got %d", *g.MaxRetries))
	}

	r := cfg.Retry
	if r.MaxAttempts < 0 {
		errs = append(errs, fmt.Sprintf("retry.max_attempts: must be non-negative, got %d", r.MaxAttempts))
	}
	errs = appendDurationErr(errs, "retry.attempt_timeout", r.AttemptTimeout)
	errs = appendDurationErr(errs, "retry.backoff_initial", r.BackoffInitial)
	errs = appendDurationErr(errs, "retry.backoff_max", r.BackoffMax)

	if m := cfg.Sandbox.MemoryLimitMB; m != 0 && (m < 1 || m > maxMemoryLimitMB) {
		errs = append(errs, fmt.Sprintf("sandbox.memory_limit_mb: must be between 1 and %d, got %d", maxMemoryLimitMB, m))
	}
	errs = appendDurationErr(errs, "sandbox.timeout", cfg.Sandbox.Timeout)

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func appendDurationErr(errs []string, key, value string) []string {
	if value == "" {
		return errs
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return append(errs, fmt.Sprintf("%s: invalid duration %q", key, value))
	}
	if d < 0 {
		return append(errs, fmt.Sprintf("%s: must be non-negative, got %s", key, value))
	}
	return errs
}
