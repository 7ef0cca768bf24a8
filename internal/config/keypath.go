// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// GetValue retrieves a value from a Config by dot-notation key path.
// It returns scalar values as-is, and maps for section nodes.
func GetValue(cfg *Config, keyPath string) (any, error) {
	m, err := ToMap(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return navigateMap(m, keyPath)
}

// SetValue sets a value in a raw YAML map by dot-notation key path,
// creating intermediate maps as needed.
func SetValue(data map[string]any, keyPath string, rawValue string) error {
	parts := strings.Split(keyPath, ".")
	if keyPath == "" {
		return fmt.Errorf("empty key path")
	}

	current := data
	for _, part := range parts[:len(parts)-1] {
		child, ok := current[part]
		if !ok {
			next := make(map[string]any)
			current[part] = next
			current = next
			continue
		}
		next, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("key %q is not a map", part)
		}
		current = next
	}

	current[parts[len(parts)-1]] = coerceValue(rawValue)
	return nil
}

// FlattenMap recursively flattens a nested map to dot-notation keys.
func FlattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range FlattenMap(sub, key) {
				result[sk] = sv
			}
		} else {
			result[key] = v
		}
	}
	return result
}

// ValidateKeyPath checks that a dot-notation key path names a settable
// Config field: a top-level scalar or a field of a section.
func ValidateKeyPath(keyPath string) error {
	if keyPath == "" {
		return fmt.Errorf("empty key path")
	}
	parts := strings.Split(keyPath, ".")

	topKeys := yamlFields(reflect.TypeOf(Config{}))
	field, ok := topKeys[parts[0]]
	if !ok {
		return fmt.Errorf("unknown key %q; valid top-level keys: %s", parts[0], sortedKeys(topKeys))
	}

	if field.Type.Kind() != reflect.Struct {
		if len(parts) > 1 {
			return fmt.Errorf("key %q is a scalar; cannot use sub-keys", parts[0])
		}
		return nil
	}

	sectionKeys := yamlFields(field.Type)
	switch len(parts) {
	case 1:
		return fmt.Errorf("%s is a section; set one of its fields: %s", parts[0], sortedKeys(sectionKeys))
	case 2:
		if _, ok := sectionKeys[parts[1]]; !ok {
			return fmt.Errorf("unknown %s field %q; valid fields: %s", parts[0], parts[1], sortedKeys(sectionKeys))
		}
		return nil
	default:
		return fmt.Errorf("key path too deep: %q", keyPath)
	}
}

// ValidKeys lists every settable dot-notation key, sorted.
func ValidKeys() []string {
	var keys []string
	for name, f := range yamlFields(reflect.TypeOf(Config{})) {
		if f.Type.Kind() != reflect.Struct {
			keys = append(keys, name)
			continue
		}
		for sub := range yamlFields(f.Type) {
			keys = append(keys, name+"."+sub)
		}
	}
	sort.Strings(keys)
	return keys
}

// ToMap converts a Config to a nested map via YAML round-trip. Unset fields
// are omitted.
func ToMap(cfg *Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]any)
	}
	return m, nil
}

// navigateMap traverses a nested map using a dot-notation key path.
func navigateMap(m map[string]any, keyPath string) (any, error) {
	parts := strings.Split(keyPath, ".")
	var current any = m
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("key %q: parent is not a map", part)
		}
		val, exists := cm[part]
		if !exists {
			return nil, fmt.Errorf("key %q not found", keyPath)
		}
		current = val
	}
	return current, nil
}

// coerceValue parses a string into bool, int, float64, or keeps it as string.
func coerceValue(s string) any {
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		// Only use float if it has a decimal point (avoid converting "3" to 3.0).
		if strings.Contains(s, ".") {
			return f
		}
	}
	return s
}

// yamlFields maps yaml tag names to struct fields.
func yamlFields(t reflect.Type) map[string]reflect.StructField {
	fields := make(map[string]reflect.StructField)
	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		if name := strings.Split(tag, ",")[0]; name != "" {
			fields[name] = f
		}
	}
	return fields
}

// sortedKeys returns a comma-separated sorted list of map keys.
func sortedKeys(m map[string]reflect.StructField) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
