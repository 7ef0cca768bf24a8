// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package config

// Merge combines a base config with an override. Set fields in override win;
// zero-value fields fall through to base. Neither argument is modified.
func Merge(base, override *Config) *Config {
	merged := *base

	g, og := &merged.Generation, override.Generation
	if og.Backend != "" {
		g.Backend = og.Backend
	}
	if og.Model != "" {
		g.Model = og.Model
	}
	if og.BaseURL != "" {
		g.BaseURL = og.BaseURL
	}
	if og.MaxTokens != 0 {
		g.MaxTokens = og.MaxTokens
	}
	if og.Temperature != nil {
		g.Temperature = og.Temperature
	}
	if og.MaxRetries != nil {
		g.MaxRetries = og.MaxRetries
	}

	r, or := &merged.Retry, override.Retry
	if or.MaxAttempts != 0 {
		r.MaxAttempts = or.MaxAttempts
	}
	if or.AttemptTimeout != "" {
		r.AttemptTimeout = or.AttemptTimeout
	}
	if or.BackoffInitial != "" {
		r.BackoffInitial = or.BackoffInitial
	}
	if or.BackoffMax != "" {
		r.BackoffMax = or.BackoffMax
	}
	if or.Strict != nil {
		r.Strict = or.Strict
	}

	if override.Sandbox.MemoryLimitMB != 0 {
		merged.Sandbox.MemoryLimitMB = override.Sandbox.MemoryLimitMB
	}
	if override.Sandbox.Timeout != "" {
		merged.Sandbox.Timeout = override.Sandbox.Timeout
	}
	if override.Registry.Path != "" {
		merged.Registry.Path = override.Registry.Path
	}
	if override.Format.Enabled != nil {
		merged.Format.Enabled = override.Format.Enabled
	}
	if override.VerifyConstructor != nil {
		merged.VerifyConstructor = override.VerifyConstructor
	}

	return &merged
}
