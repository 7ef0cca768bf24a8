// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package providers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// SupportedSchemaMajor is the registry document major version this build reads.
const SupportedSchemaMajor = "v1"

//go:embed builtin.yaml
var builtinYAML []byte

// document is the on-disk shape of a registry file, in YAML or TOML.
type document struct {
	SchemaVersion string          `yaml:"schema_version" toml:"schema_version"`
	Providers     []providerEntry `yaml:"providers" toml:"providers"`
}

type providerEntry struct {
	ID          string         `yaml:"id" toml:"id"`
	Name        string         `yaml:"name" toml:"name"`
	Models      []modelEntry   `yaml:"models" toml:"models"`
	InputSchema map[string]any `yaml:"input_schema" toml:"input_schema"`
}

type modelEntry struct {
	ID            string `yaml:"id" toml:"id"`
	Name          string `yaml:"name" toml:"name"`
	ContextWindow int    `yaml:"context_window" toml:"context_window"`
}

// parseDocument decodes a registry document. format is "yaml" or "toml".
func parseDocument(data []byte, format string) (*document, error) {
	var doc document
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing registry yaml: %w", err)
		}
	case "toml":
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, fmt.Errorf("parsing registry toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported registry format %q (must be yaml or toml)", format)
	}

	if err := checkSchemaVersion(doc.SchemaVersion); err != nil {
		return nil, err
	}
	if err := validateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// formatFromPath maps a file extension to a document format.
func formatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

func checkSchemaVersion(v string) error {
	if v == "" {
		return fmt.Errorf("registry: schema_version is required")
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("registry: schema_version %q is not a valid semantic version", v)
	}
	if major := semver.Major(v); major != SupportedSchemaMajor {
		return fmt.Errorf("registry: schema_version %s is not supported (want %s.x.y)", v, SupportedSchemaMajor)
	}
	return nil
}

// validateDocument checks all entries and returns every problem at once.
func validateDocument(doc *document) error {
	var errs []string
	seen := make(map[string]bool, len(doc.Providers))

	for i, p := range doc.Providers {
		if p.ID == "" {
			errs = append(errs, fmt.Sprintf("providers[%d].id: must not be empty", i))
			continue
		}
		if seen[p.ID] {
			errs = append(errs, fmt.Sprintf("providers[%d].id: duplicate provider %q", i, p.ID))
		}
		seen[p.ID] = true

		if len(p.InputSchema) == 0 {
			errs = append(errs, fmt.Sprintf("providers.%s.input_schema: must not be empty", p.ID))
		}
		if len(p.Models) == 0 {
			errs = append(errs, fmt.Sprintf("providers.%s.models: at least one model is required", p.ID))
		}

		modelSeen := make(map[string]bool, len(p.Models))
		for j, m := range p.Models {
			if m.ID == "" {
				errs = append(errs, fmt.Sprintf("providers.%s.models[%d].id: must not be empty", p.ID, j))
				continue
			}
			if modelSeen[m.ID] {
				errs = append(errs, fmt.Sprintf("providers.%s.models[%d].id: duplicate model %q", p.ID, j, m.ID))
			}
			modelSeen[m.ID] = true
			if m.ContextWindow < 0 {
				errs = append(errs, fmt.Sprintf("providers.%s.models.%s.context_window: must be non-negative, got %d", p.ID, m.ID, m.ContextWindow))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// canonicalSchema renders a decoded schema as indented JSON. Map keys are
// sorted by encoding/json, so the text is stable across loads.
func canonicalSchema(s map[string]any) (Schema, error) {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return Schema{}, fmt.Errorf("encoding input schema: %w", err)
	}
	return Schema{raw: raw}, nil
}
