// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package migrate

import "github.com/promptshift/promptshift/internal/constructor"

// Formatter normalizes generated constructor code.
type Formatter interface {
	Format(code string) (string, error)
}

// EsbuildFormatter prints code in canonical style with esbuild.
type EsbuildFormatter struct{}

// Format implements Formatter.
func (EsbuildFormatter) Format(code string) (string, error) {
	return constructor.Format(code)
}

// NopFormatter returns code unchanged.
type NopFormatter struct{}

// Format implements Formatter.
func (NopFormatter) Format(code string) (string, error) {
	return code, nil
}

// FormatterFunc adapts a function to Formatter.
type FormatterFunc func(string) (string, error)

// Format implements Formatter.
func (f FormatterFunc) Format(code string) (string, error) {
	return f(code)
}
