// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/promptshift/promptshift/internal/config"
	"github.com/promptshift/promptshift/internal/llm"
	"github.com/promptshift/promptshift/internal/migrate"
	"github.com/promptshift/promptshift/internal/providers"
	"github.com/promptshift/promptshift/internal/sandbox"
)

// engineFlags are the flags shared by every command that runs migrations.
// Zero values leave the config file's setting in place.
type engineFlags struct {
	backend     string
	model       string
	maxAttempts int
	strict      bool
	registry    string
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.backend, "backend", "", "generation backend: anthropic, gemini, openai")
	cmd.Flags().StringVar(&f.model, "model", "", "generation model (default: backend's default)")
	cmd.Flags().IntVar(&f.maxAttempts, "max-attempts", 0, "attempts per migration (default 5)")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail instead of returning empty code when attempts run out")
	cmd.Flags().StringVar(&f.registry, "registry", "", "provider registry document to overlay on the built-in one")
}

// apply copies set flags over cfg.
func (f *engineFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if f.backend != "" {
		cfg.Generation.Backend = f.backend
	}
	if f.model != "" {
		cfg.Generation.Model = f.model
	}
	if f.maxAttempts > 0 {
		cfg.Retry.MaxAttempts = f.maxAttempts
	}
	if cmd.Flags().Changed("strict") {
		strict := f.strict
		cfg.Retry.Strict = &strict
	}
	if f.registry != "" {
		cfg.Registry.Path = f.registry
	}
}

// loadConfig loads the layered config from the working directory and
// validates it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadLayered(".")
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "promptshift: loading config: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, exitError(ExitInvalidArgs, "promptshift: %v", err)
	}
	return cfg, nil
}

// loadRegistry returns the built-in registry, overlaid with registry.path
// when set.
func loadRegistry(cfg *config.Config) (*providers.Registry, error) {
	if cfg.Registry.Path == "" {
		return providers.Builtin()
	}
	reg, err := providers.Load(cfg.Registry.Path)
	if err != nil {
		return nil, fmt.Errorf("loading registry %s: %w", cfg.Registry.Path, err)
	}
	return reg, nil
}

// newIsolate creates the sandbox isolate shared by all migrations in a run.
func newIsolate(cfg *config.Config) (*sandbox.Isolate, error) {
	return sandbox.NewIsolate(sandbox.Options{
		MemoryLimit: int64(cfg.Sandbox.MemoryLimitMB) << 20,
		Timeout:     cfg.SandboxTimeout(),
	})
}

// newGenerator constructs the generation backend. Tests replace it.
var newGenerator = func(cfg *config.Config) (llm.Provider, error) {
	backend := cfg.Generation.Backend
	if backend == "" {
		backend = llm.BackendAnthropic
	}
	opts := []llm.Option{llm.WithModel(cfg.Generation.Model)}
	if cfg.Generation.BaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.Generation.BaseURL))
	}
	if cfg.Generation.MaxRetries != nil {
		opts = append(opts, llm.WithMaxRetries(*cfg.Generation.MaxRetries))
	}
	return llm.New(backend, opts...)
}

// engineOptions translates config into engine options.
func engineOptions(cfg *config.Config) []migrate.Option {
	opts := []migrate.Option{
		migrate.WithVersion(Version),
		migrate.WithLogger(slog.Default()),
		migrate.WithMaxAttempts(cfg.Retry.MaxAttempts),
		migrate.WithAttemptTimeout(cfg.AttemptTimeout()),
		migrate.WithBackoff(cfg.BackoffInitial(), cfg.BackoffMax()),
		migrate.WithStrictExhaustion(cfg.StrictExhaustion()),
		migrate.WithConstructorCheck(cfg.ConstructorCheck()),
		migrate.WithGenerationModel(cfg.Generation.Model),
	}
	if cfg.Generation.MaxTokens > 0 {
		opts = append(opts, migrate.WithMaxTokens(cfg.Generation.MaxTokens))
	}
	if cfg.Generation.Temperature != nil {
		opts = append(opts, migrate.WithTemperature(*cfg.Generation.Temperature))
	}
	if !cfg.FormatEnabled() {
		opts = append(opts, migrate.WithFormatter(migrate.NopFormatter{}))
	}
	return opts
}

// runtime bundles what a migration command needs. Close releases the isolate.
type runtime struct {
	registry *providers.Registry
	isolate  *sandbox.Isolate
	engine   *migrate.Engine
}

func (r *runtime) Close() { r.isolate.Close() }

// newRuntime validates cfg after flag overrides and wires the registry,
// generator, isolate, and engine from it.
func newRuntime(cfg *config.Config) (*runtime, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, exitError(ExitInvalidArgs, "promptshift: %v", err)
	}
	reg, err := loadRegistry(cfg)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "promptshift: %v", err)
	}
	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "promptshift: %v", err)
	}
	iso, err := newIsolate(cfg)
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "promptshift: %v", err)
	}
	return &runtime{
		registry: reg,
		isolate:  iso,
		engine:   migrate.New(reg, gen, iso, engineOptions(cfg)...),
	}, nil
}
