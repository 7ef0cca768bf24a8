// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package constructor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ErrLossyFormat means printing the code canonically would drop part of it.
var ErrLossyFormat = errors.New("formatting would drop source content")

// SyntaxError reports esbuild diagnostics for constructor source.
type SyntaxError struct {
	Messages []string
}

func (e *SyntaxError) Error() string {
	return "syntax error: " + strings.Join(e.Messages, "; ")
}

// Transpile strips TypeScript syntax and returns plain ECMAScript.
func Transpile(code string) (string, error) {
	return transform(code, api.LoaderTS)
}

// Format re-prints code in canonical style: two-space indentation, double
// quotes, one statement per line. Only plain JavaScript without comments is
// accepted; esbuild would strip TypeScript syntax and comments, so such code
// fails with ErrLossyFormat instead.
func Format(code string) (string, error) {
	if hasComment(code) {
		return "", fmt.Errorf("%w: comments are not preserved", ErrLossyFormat)
	}
	out, err := transform(code, api.LoaderJS)
	if err == nil {
		return out, nil
	}
	if _, tsErr := transform(code, api.LoaderTS); tsErr == nil {
		return "", fmt.Errorf("%w: TypeScript syntax is not preserved", ErrLossyFormat)
	}
	return "", err
}

func transform(code string, loader api.Loader) (string, error) {
	result := api.Transform(code, api.TransformOptions{
		Loader:     loader,
		Target:     api.ESNext,
		Sourcefile: "constructor.ts",
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			if m.Location != nil {
				msgs = append(msgs, fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text))
				continue
			}
			msgs = append(msgs, m.Text)
		}
		return "", &SyntaxError{Messages: msgs}
	}
	return strings.TrimRight(string(result.Code), "\n") + "\n", nil
}

// hasComment reports whether code contains a line or block comment outside
// string, template and regular expression literals. Template substitutions
// are not scanned.
func hasComment(code string) bool {
	var prev byte
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case c == '/' && i+1 < len(code) && (code[i+1] == '/' || code[i+1] == '*'):
			return true
		case c == '"' || c == '\'' || c == '`':
			i = skipQuoted(code, i)
			prev = c
		case c == '/' && regexAllowed(prev):
			i = skipRegex(code, i)
			prev = c
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		default:
			prev = c
		}
	}
	return false
}

// skipQuoted returns the index of the quote closing the literal opened at i.
func skipQuoted(code string, i int) int {
	quote := code[i]
	for i++; i < len(code); i++ {
		switch code[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return len(code)
}

// regexAllowed reports whether a slash after prev starts a regular
// expression rather than a division.
func regexAllowed(prev byte) bool {
	return prev == 0 || strings.IndexByte("(,=:[!&|?{};+-*%<>~^", prev) >= 0
}

// skipRegex returns the index of the slash closing the regular expression
// opened at i, or i when the line ends first.
func skipRegex(code string, i int) int {
	inClass := false
	for j := i + 1; j < len(code); j++ {
		switch c := code[j]; {
		case c == '\\':
			j++
		case c == '\n':
			return i
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '/' && !inClass:
			return j
		}
	}
	return i
}
