// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

// Package output defines the Formatter interface for writing migration
// results in various formats.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/promptshift/promptshift/internal/migrate"
)

// Report is one migrated constructor as presented to the user.
type Report struct {
	// Source names the input, usually a file path or "-" for stdin.
	Source string

	// From and To identify the original and target models ("" when absent).
	From string
	To   string

	Outcome *migrate.Outcome

	// Err is a fatal error for this input; Outcome may be nil.
	Err error
}

// Formatter writes reports to the given writer in a specific format.
type Formatter interface {
	// Name returns the format name (e.g., "code", "json", "markdown").
	Name() string

	// Format writes the reports to w.
	Format(reports []Report, w io.Writer) error
}

var (
	fmtMu       sync.RWMutex
	fmtRegistry = make(map[string]Formatter)
)

// RegisterFormatter adds a formatter to the global registry.
func RegisterFormatter(f Formatter) {
	fmtMu.Lock()
	defer fmtMu.Unlock()
	fmtRegistry[f.Name()] = f
}

// GetFormatter returns the formatter with the given name, or an error if not found.
func GetFormatter(name string) (Formatter, error) {
	fmtMu.RLock()
	defer fmtMu.RUnlock()
	f, ok := fmtRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown format: %q (available: %s)", name, formatNames())
	}
	return f, nil
}

// Names returns the registered format names, sorted.
func Names() []string {
	fmtMu.RLock()
	defer fmtMu.RUnlock()
	names := make([]string, 0, len(fmtRegistry))
	for name := range fmtRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatNames returns a comma-separated sorted list of registered format
// names. The caller holds fmtMu.
func formatNames() string {
	names := make([]string, 0, len(fmtRegistry))
	for name := range fmtRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// status summarizes a report in one word.
func status(r Report) string {
	switch {
	case r.Err != nil:
		return "error"
	case r.Outcome == nil:
		return "error"
	case r.Outcome.Exhausted():
		return "exhausted"
	default:
		return string(r.Outcome.Path)
	}
}
