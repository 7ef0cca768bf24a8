// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

// Package providers holds the static index of model providers, their
// addressable models, and the request schema each provider accepts.
package providers

import (
	"errors"
	"fmt"
)

// Sentinel errors matched by the typed lookup errors below.
var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrUnknownModel    = errors.New("unknown model")
)

// Schema is the machine-readable description of the request shape a
// provider accepts. It is stored as canonical indented JSON and is never
// mutated after the registry is loaded.
type Schema struct {
	raw []byte
}

// String returns the schema text exactly as it is sent as generation context.
func (s Schema) String() string {
	return string(s.raw)
}

// Raw returns a copy of the schema bytes.
func (s Schema) Raw() []byte {
	out := make([]byte, len(s.raw))
	copy(out, s.raw)
	return out
}

// IsZero reports whether the schema is empty.
func (s Schema) IsZero() bool {
	return len(s.raw) == 0
}

// Provider is one model-serving endpoint family.
type Provider struct {
	ID     string
	Name   string
	Schema Schema
	models map[string]*ModelDescriptor
	order  []string
}

// ModelDescriptor describes a single addressable model. Descriptors are
// owned by the Registry; callers hold pointers and never copy or modify them.
type ModelDescriptor struct {
	ID            string
	Name          string
	ProviderID    string
	ContextWindow int
	Schema        Schema
}

// String returns "provider/model" style identification for logs.
func (m *ModelDescriptor) String() string {
	if m == nil {
		return "<nil>"
	}
	return m.ProviderID + ":" + m.ID
}

// UnknownProviderError reports a lookup for a provider that is not registered.
type UnknownProviderError struct {
	ProviderID string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.ProviderID)
}

// Is makes errors.Is(err, ErrUnknownProvider) match.
func (e *UnknownProviderError) Is(target error) bool {
	return target == ErrUnknownProvider
}

// UnknownModelError reports a lookup for a model the provider does not serve.
type UnknownModelError struct {
	ProviderID string
	ModelID    string
}

func (e *UnknownModelError) Error() string {
	if e.ProviderID == "" {
		return fmt.Sprintf("unknown model %q", e.ModelID)
	}
	return fmt.Sprintf("unknown model %q for provider %q", e.ModelID, e.ProviderID)
}

// Is makes errors.Is(err, ErrUnknownModel) match.
func (e *UnknownModelError) Is(target error) bool {
	return target == ErrUnknownModel
}
