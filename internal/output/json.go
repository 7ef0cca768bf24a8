// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/promptshift/promptshift/internal/migrate"
	"github.com/promptshift/promptshift/internal/redact"
)

func init() {
	RegisterFormatter(NewJSONFormatter())
}

// JSONEnvelope wraps results with metadata for the JSON output format.
type JSONEnvelope struct {
	Results  []JSONResult `json:"results"`
	Metadata JSONMetadata `json:"metadata"`
}

// JSONResult is one report in machine-readable form.
type JSONResult struct {
	Source      string        `json:"source"`
	Status      string        `json:"status"`
	MigrationID string        `json:"migration_id,omitempty"`
	From        string        `json:"from,omitempty"`
	To          string        `json:"to,omitempty"`
	Path        string        `json:"path,omitempty"`
	Attempts    int           `json:"attempts"`
	Formatted   bool          `json:"formatted"`
	Code        string        `json:"code"`
	Failures    []JSONFailure `json:"failures,omitempty"`
	Warning     string        `json:"warning,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// JSONFailure describes one failed attempt.
type JSONFailure struct {
	Attempt  int    `json:"attempt"`
	Category string `json:"category"`
	Error    string `json:"error"`
}

// JSONMetadata contains counts over the whole run.
type JSONMetadata struct {
	TotalCount  int    `json:"total_count"`
	Migrated    int    `json:"migrated"`
	Exhausted   int    `json:"exhausted"`
	Errors      int    `json:"errors"`
	GeneratedAt string `json:"generated_at"`
}

// JSONFormatter writes reports as a JSON object with metadata envelope.
type JSONFormatter struct {
	// Compact controls whether output is compact (single line) or pretty-printed.
	// When false (default), output is indented with two spaces.
	Compact bool

	// nowFunc is used for testing to override the current time.
	nowFunc func() time.Time
}

// Compile-time interface check.
var _ Formatter = (*JSONFormatter)(nil)

// NewJSONFormatter returns a new JSONFormatter with default settings.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format writes all reports as a JSON document to w. Error text is redacted.
func (f *JSONFormatter) Format(reports []Report, w io.Writer) error {
	now := time.Now()
	if f.nowFunc != nil {
		now = f.nowFunc()
	}

	envelope := JSONEnvelope{
		Results:  make([]JSONResult, 0, len(reports)),
		Metadata: JSONMetadata{TotalCount: len(reports), GeneratedAt: now.UTC().Format("2006-01-02T15:04:05Z")},
	}
	for _, r := range reports {
		res := ToJSONResult(r)
		switch res.Status {
		case "error":
			envelope.Metadata.Errors++
		case "exhausted":
			envelope.Metadata.Exhausted++
		case string(migrate.PathGenerated):
			envelope.Metadata.Migrated++
		}
		envelope.Results = append(envelope.Results, res)
	}

	var data []byte
	var err error
	if f.shouldCompact(w) {
		data, err = json.Marshal(envelope)
	} else {
		data, err = json.MarshalIndent(envelope, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write json trailing newline: %w", err)
	}
	return nil
}

// ToJSONResult converts a report to its machine-readable form. Error text is
// redacted.
func ToJSONResult(r Report) JSONResult {
	res := JSONResult{
		Source: r.Source,
		Status: status(r),
		From:   r.From,
		To:     r.To,
		Error:  redact.Error(r.Err),
	}
	if o := r.Outcome; o != nil {
		res.MigrationID = o.MigrationID
		res.Path = string(o.Path)
		res.Attempts = o.Attempts
		res.Formatted = o.Formatted
		res.Code = o.Code
		res.Warning = redact.Error(o.Warning)
		for i, ferr := range o.Failures {
			res.Failures = append(res.Failures, JSONFailure{
				Attempt:  i + 1,
				Category: string(migrate.Category(ferr)),
				Error:    redact.Error(ferr),
			})
		}
	}
	return res
}

// shouldCompact determines whether to use compact mode.
// If Compact is explicitly set, use that value.
// Otherwise, auto-detect: pretty-print for TTYs, compact for pipes.
func (f *JSONFormatter) shouldCompact(w io.Writer) bool {
	if f.Compact {
		return true
	}

	if file, ok := w.(*os.File); ok {
		fi, err := file.Stat()
		if err != nil {
			return false // default to pretty on error
		}
		return fi.Mode()&os.ModeCharDevice == 0
	}

	// For non-file writers (e.g., bytes.Buffer in tests), default to pretty.
	return false
}
