// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package providers

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// Registry is a read-only index from provider ID to models and schema.
// It is immutable once built and safe for concurrent use without locking.
type Registry struct {
	providers map[string]*Provider
}

// Builtin returns a registry holding only the embedded provider definitions.
func Builtin() (*Registry, error) {
	doc, err := parseDocument(builtinYAML, "yaml")
	if err != nil {
		return nil, fmt.Errorf("builtin registry: %w", err)
	}
	return build(doc)
}

// Load returns the built-in registry overlaid with the providers declared in
// the file at path. An empty path yields the built-in registry. Providers in
// the file replace built-in providers with the same ID wholesale.
func Load(path string) (*Registry, error) {
	base, err := parseDocument(builtinYAML, "yaml")
	if err != nil {
		return nil, fmt.Errorf("builtin registry: %w", err)
	}
	if path == "" {
		return build(base)
	}

	data, err := os.ReadFile(path) //nolint:gosec // operator-provided registry path
	if err != nil {
		return nil, fmt.Errorf("reading registry file: %w", err)
	}
	override, err := parseDocument(data, formatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return build(overlay(base, override))
}

// Parse builds a registry from a standalone document, without the built-in
// providers. format is "yaml" or "toml".
func Parse(data []byte, format string) (*Registry, error) {
	doc, err := parseDocument(data, format)
	if err != nil {
		return nil, err
	}
	return build(doc)
}

func overlay(base, override *document) *document {
	merged := &document{SchemaVersion: override.SchemaVersion}
	replaced := make(map[string]bool, len(override.Providers))
	for _, p := range override.Providers {
		replaced[p.ID] = true
	}
	for _, p := range base.Providers {
		if !replaced[p.ID] {
			merged.Providers = append(merged.Providers, p)
		}
	}
	merged.Providers = append(merged.Providers, override.Providers...)
	return merged
}

func build(doc *document) (*Registry, error) {
	r := &Registry{providers: make(map[string]*Provider, len(doc.Providers))}
	for _, entry := range doc.Providers {
		schema, err := canonicalSchema(entry.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", entry.ID, err)
		}
		name := entry.Name
		if name == "" {
			name = entry.ID
		}
		p := &Provider{
			ID:     entry.ID,
			Name:   name,
			Schema: schema,
			models: make(map[string]*ModelDescriptor, len(entry.Models)),
		}
		for _, m := range entry.Models {
			modelName := m.Name
			if modelName == "" {
				modelName = m.ID
			}
			p.models[m.ID] = &ModelDescriptor{
				ID:            m.ID,
				Name:          modelName,
				ProviderID:    entry.ID,
				ContextWindow: m.ContextWindow,
				Schema:        schema,
			}
			p.order = append(p.order, m.ID)
		}
		r.providers[entry.ID] = p
	}
	return r, nil
}

// DescribeModel returns the descriptor for modelID served by providerID.
func (r *Registry) DescribeModel(providerID, modelID string) (*ModelDescriptor, error) {
	p, ok := r.providers[providerID]
	if !ok {
		return nil, &UnknownProviderError{ProviderID: providerID}
	}
	m, ok := p.models[modelID]
	if !ok {
		return nil, &UnknownModelError{ProviderID: providerID, ModelID: modelID}
	}
	return m, nil
}

// SchemaFor returns the input schema accepted by providerID.
func (r *Registry) SchemaFor(providerID string) (Schema, error) {
	p, ok := r.providers[providerID]
	if !ok {
		return Schema{}, &UnknownProviderError{ProviderID: providerID}
	}
	return p.Schema, nil
}

// Provider returns the provider entry for providerID.
func (r *Registry) Provider(providerID string) (*Provider, error) {
	p, ok := r.providers[providerID]
	if !ok {
		return nil, &UnknownProviderError{ProviderID: providerID}
	}
	return p, nil
}

// Providers returns all registered provider IDs in sorted order.
func (r *Registry) Providers() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Models returns the models served by providerID in declaration order.
func (r *Registry) Models(providerID string) ([]*ModelDescriptor, error) {
	p, ok := r.providers[providerID]
	if !ok {
		return nil, &UnknownProviderError{ProviderID: providerID}
	}
	out := make([]*ModelDescriptor, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.models[id])
	}
	return out, nil
}

// Lookup finds a model by ID across all providers. It fails if the ID is
// unknown or served by more than one provider.
func (r *Registry) Lookup(modelID string) (*ModelDescriptor, error) {
	var found []*ModelDescriptor
	for _, id := range r.Providers() {
		if m, ok := r.providers[id].models[modelID]; ok {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return nil, &UnknownModelError{ModelID: modelID}
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("model %q is ambiguous: served by %s and %s", modelID, found[0].ProviderID, found[1].ProviderID)
	}
}

// Resolve accepts either "provider:model" or a bare model ID.
func (r *Registry) Resolve(ref string) (*ModelDescriptor, error) {
	if providerID, modelID, ok := strings.Cut(ref, ":"); ok {
		return r.DescribeModel(providerID, modelID)
	}
	return r.Lookup(ref)
}
