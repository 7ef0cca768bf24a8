// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package output

import (
	"fmt"
	"io"
	"strings"
)

func init() {
	RegisterFormatter(NewCodeFormatter())
}

// CodeFormatter writes only the resulting constructor code, so output can be
// piped straight into a file. With several reports each is preceded by a
// "// ==> source <==" marker line. Failed reports write nothing.
type CodeFormatter struct{}

// Compile-time interface check.
var _ Formatter = (*CodeFormatter)(nil)

// NewCodeFormatter returns a new CodeFormatter.
func NewCodeFormatter() *CodeFormatter {
	return &CodeFormatter{}
}

// Name returns the format name.
func (c *CodeFormatter) Name() string {
	return "code"
}

// Format writes each report's code to w.
func (c *CodeFormatter) Format(reports []Report, w io.Writer) error {
	multi := len(reports) > 1
	for _, r := range reports {
		if r.Err != nil || r.Outcome == nil || r.Outcome.Code == "" {
			continue
		}
		if multi {
			if _, err := fmt.Fprintf(w, "// ==> %s <==\n", r.Source); err != nil {
				return err
			}
		}
		code := r.Outcome.Code
		if !strings.HasSuffix(code, "\n") {
			code += "\n"
		}
		if _, err := io.WriteString(w, code); err != nil {
			return err
		}
	}
	return nil
}
