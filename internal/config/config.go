// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

// Package config handles .promptshift.yaml configuration files.
package config

import "time"

// Config represents the contents of a .promptshift.yaml file.
type Config struct {
	Generation        GenerationConfig `yaml:"generation,omitempty"`
	Retry             RetryConfig      `yaml:"retry,omitempty"`
	Sandbox           SandboxConfig    `yaml:"sandbox,omitempty"`
	Registry          RegistryConfig   `yaml:"registry,omitempty"`
	Format            FormatConfig     `yaml:"format,omitempty"`
	VerifyConstructor *bool            `yaml:"verify_constructor,omitempty"`
}

// GenerationConfig selects and tunes the completion backend.
type GenerationConfig struct {
	Backend     string   `yaml:"backend,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	BaseURL     string   `yaml:"base_url,omitempty"`
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`

	// MaxRetries is the backend's transport retry count for transient
	// errors, separate from migration attempts.
	MaxRetries *int `yaml:"max_retries,omitempty"`
}

// RetryConfig tunes the migration attempt loop. Durations use
// time.ParseDuration syntax.
type RetryConfig struct {
	MaxAttempts    int    `yaml:"max_attempts,omitempty"`
	AttemptTimeout string `yaml:"attempt_timeout,omitempty"`
	BackoffInitial string `yaml:"backoff_initial,omitempty"`
	BackoffMax     string `yaml:"backoff_max,omitempty"`
	Strict         *bool  `yaml:"strict,omitempty"`
}

// SandboxConfig tunes the script isolate.
type SandboxConfig struct {
	MemoryLimitMB int    `yaml:"memory_limit_mb,omitempty"`
	Timeout       string `yaml:"timeout,omitempty"`
}

// RegistryConfig points at an override registry document.
type RegistryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// FormatConfig controls output formatting.
type FormatConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"`
}

// FileName is the expected config file name in the working directory.
const FileName = ".promptshift.yaml"

// AttemptTimeout returns retry.attempt_timeout, or zero when unset or invalid.
func (c *Config) AttemptTimeout() time.Duration { return duration(c.Retry.AttemptTimeout) }

// BackoffInitial returns retry.backoff_initial.
func (c *Config) BackoffInitial() time.Duration { return duration(c.Retry.BackoffInitial) }

// BackoffMax returns retry.backoff_max.
func (c *Config) BackoffMax() time.Duration { return duration(c.Retry.BackoffMax) }

// SandboxTimeout returns sandbox.timeout.
func (c *Config) SandboxTimeout() time.Duration { return duration(c.Sandbox.Timeout) }

// FormatEnabled reports whether output formatting is on. It defaults to true.
func (c *Config) FormatEnabled() bool {
	return c.Format.Enabled == nil || *c.Format.Enabled
}

// StrictExhaustion reports retry.strict.
func (c *Config) StrictExhaustion() bool {
	return c.Retry.Strict != nil && *c.Retry.Strict
}

// ConstructorCheck reports verify_constructor.
func (c *Config) ConstructorCheck() bool {
	return c.VerifyConstructor != nil && *c.VerifyConstructor
}

func duration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
