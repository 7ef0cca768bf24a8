// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package output

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptshift/promptshift/internal/migrate"
)

// Compile-time interface check.
var _ Formatter = (*stubFormatter)(nil)

type stubFormatter struct{}

func (s *stubFormatter) Name() string                         { return "stub" }
func (s *stubFormatter) Format(_ []Report, _ io.Writer) error { return nil }

func TestRegistry_BuiltinFormatters(t *testing.T) {
	assert.Equal(t, []string{"code", "json", "markdown", "sarif"}, Names())

	for _, name := range Names() {
		f, err := GetFormatter(name)
		require.NoError(t, err)
		assert.Equal(t, name, f.Name())
	}
}

func TestRegistry_Unknown(t *testing.T) {
	_, err := GetFormatter("html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format: "html"`)
	assert.Contains(t, err.Error(), "code, json, markdown, sarif")
}

func TestRegistry_Register(t *testing.T) {
	RegisterFormatter(&stubFormatter{})
	t.Cleanup(func() {
		fmtMu.Lock()
		delete(fmtRegistry, "stub")
		fmtMu.Unlock()
	})

	f, err := GetFormatter("stub")
	require.NoError(t, err)
	assert.Equal(t, "stub", f.Name())
}

func TestStatus(t *testing.T) {
	reports := sampleReports()
	assert.Equal(t, "generated", status(reports[0]))
	assert.Equal(t, "exhausted", status(reports[1]))
	assert.Equal(t, "error", status(reports[2]))
	assert.Equal(t, "unchanged", status(Report{Outcome: &migrate.Outcome{Path: migrate.PathUnchanged, Code: "x"}}))
	assert.Equal(t, "error", status(Report{}))
}
