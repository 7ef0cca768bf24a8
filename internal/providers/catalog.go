// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package providers

import "encoding/json"

// ProviderSummary is the JSON view of a provider and its models.
type ProviderSummary struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Models []ModelSummary `json:"models"`
}

// ModelSummary is the JSON view of a model descriptor.
type ModelSummary struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	ProviderID    string          `json:"provider_id"`
	ContextWindow int             `json:"context_window,omitempty"`
	Schema        json.RawMessage `json:"schema,omitempty"`
}

// Summary returns the JSON view of m, with the input schema when withSchema
// is set.
func (m *ModelDescriptor) Summary(withSchema bool) ModelSummary {
	s := ModelSummary{
		ID:            m.ID,
		Name:          m.Name,
		ProviderID:    m.ProviderID,
		ContextWindow: m.ContextWindow,
	}
	if withSchema && !m.Schema.IsZero() {
		s.Schema = m.Schema.Raw()
	}
	return s
}

// Catalog lists every provider with its models, providers sorted by ID and
// models in declaration order. Schemas are omitted.
func (r *Registry) Catalog() []ProviderSummary {
	ids := r.Providers()
	out := make([]ProviderSummary, 0, len(ids))
	for _, id := range ids {
		p := r.providers[id]
		ps := ProviderSummary{ID: p.ID, Name: p.Name, Models: make([]ModelSummary, 0, len(p.order))}
		for _, mid := range p.order {
			ps.Models = append(ps.Models, p.models[mid].Summary(false))
		}
		out = append(out, ps)
	}
	return out
}
