// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source names the layer a setting was read from.
type Source string

// Layers in increasing precedence.
const (
	SourceUnset  Source = "unset"
	SourceGlobal Source = "global"
	SourceRepo   Source = "repo"
)

// Setting is one settable key with its effective value.
type Setting struct {
	Section string // "" for top-level keys
	Field   string
	Value   any // nil when unset
	Source  Source
}

// Key returns the dot-notation key path.
func (s Setting) Key() string {
	if s.Section == "" {
		return s.Field
	}
	return s.Section + "." + s.Field
}

// Settings resolves every settable key against the global and directory
// layers. Keys come back in ValidKeys order, top-level keys first.
// Either layer may be nil.
func Settings(global, repo *Config) ([]Setting, error) {
	g, err := flatten(global)
	if err != nil {
		return nil, fmt.Errorf("global config: %w", err)
	}
	r, err := flatten(repo)
	if err != nil {
		return nil, fmt.Errorf("directory config: %w", err)
	}

	keys := ValidKeys()
	out := make([]Setting, 0, len(keys))
	for _, k := range keys {
		s := Setting{Field: k, Source: SourceUnset}
		if section, field, ok := strings.Cut(k, "."); ok {
			s.Section, s.Field = section, field
		}
		if v, ok := r[k]; ok {
			s.Value, s.Source = v, SourceRepo
		} else if v, ok := g[k]; ok {
			s.Value, s.Source = v, SourceGlobal
		}
		out = append(out, s)
	}
	// Stable partition: top-level keys lead.
	top := make([]Setting, 0, len(out))
	var rest []Setting
	for _, s := range out {
		if s.Section == "" {
			top = append(top, s)
		} else {
			rest = append(rest, s)
		}
	}
	return append(top, rest...), nil
}

func flatten(cfg *Config) (map[string]any, error) {
	if cfg == nil {
		return map[string]any{}, nil
	}
	m, err := ToMap(cfg)
	if err != nil {
		return nil, err
	}
	return FlattenMap(m, ""), nil
}

// Decode turns a raw document map into a validated Config.
func Decode(data map[string]any) (*Config, error) {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// UnsetValue removes a key from a raw document map and drops the
// enclosing section once it is empty. It reports whether the key was
// present.
func UnsetValue(data map[string]any, keyPath string) (bool, error) {
	if err := ValidateKeyPath(keyPath); err != nil {
		return false, err
	}
	section, field, nested := strings.Cut(keyPath, ".")
	if !nested {
		_, ok := data[keyPath]
		delete(data, keyPath)
		return ok, nil
	}
	sub, ok := data[section].(map[string]any)
	if !ok {
		return false, nil
	}
	_, ok = sub[field]
	delete(sub, field)
	if len(sub) == 0 {
		delete(data, section)
	}
	return ok, nil
}

// EditFile applies edit to the raw document at path and writes it back
// only when the result still decodes and validates. A missing file
// starts empty.
func EditFile(path string, edit func(map[string]any) error) error {
	data, err := LoadRaw(path)
	if err != nil {
		return fmt.Errorf("loading config file: %w", err)
	}
	if err := edit(data); err != nil {
		return err
	}
	if _, err := Decode(data); err != nil {
		return err
	}
	if err := WriteFile(path, data); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
