// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/promptshift/promptshift/internal/migrate"
	"github.com/promptshift/promptshift/internal/redact"
)

func init() {
	RegisterFormatter(NewMarkdownFormatter())
}

// MarkdownFormatter writes reports as a human-readable Markdown summary.
type MarkdownFormatter struct{}

// Compile-time interface check.
var _ Formatter = (*MarkdownFormatter)(nil)

// NewMarkdownFormatter returns a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Name returns the format name.
func (m *MarkdownFormatter) Name() string {
	return "markdown"
}

// Format writes all reports as a Markdown document to w.
//
// The output includes:
//   - A title heading
//   - A summary table with one row per input
//   - A section per input with the resulting code and any failed attempts
func (m *MarkdownFormatter) Format(reports []Report, w io.Writer) error {
	if len(reports) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("# Prompt Constructor Migration\n\n")
	b.WriteString("| Source | From | To | Status | Attempts |\n")
	b.WriteString("|--------|------|----|--------|----------|\n")
	for _, r := range reports {
		attempts := 0
		if r.Outcome != nil {
			attempts = r.Outcome.Attempts
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %d |\n",
			cell(r.Source), cell(r.From), cell(r.To), status(r), attempts)
	}

	for _, r := range reports {
		fmt.Fprintf(&b, "\n## %s\n\n", r.Source)
		if r.Err != nil {
			fmt.Fprintf(&b, "**Error:** %s\n", redact.Error(r.Err))
			continue
		}
		writeOutcome(&b, r.Outcome)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeOutcome(b *strings.Builder, o *migrate.Outcome) {
	if o == nil {
		return
	}
	if o.Code == "" {
		b.WriteString("No migration produced.\n")
	} else {
		fmt.Fprintf(b, "```ts\n%s\n```\n", strings.TrimRight(o.Code, "\n"))
	}
	if o.Warning != nil {
		fmt.Fprintf(b, "\n> Warning: %s\n", redact.Error(o.Warning))
	}
	if len(o.Failures) > 0 {
		b.WriteString("\n### Failed attempts\n\n")
		for i, ferr := range o.Failures {
			fmt.Fprintf(b, "%d. `%s`: %s\n", i+1, migrate.Category(ferr), redact.Error(ferr))
		}
	}
}

// cell escapes a value for a Markdown table cell.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", "\\|")
}
