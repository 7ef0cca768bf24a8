// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import "fmt"

// Exit codes for the promptshift CLI.
const (
	ExitOK          = 0 // Every input migrated or passed through.
	ExitInvalidArgs = 1 // Invalid arguments, config, or unreadable input.
	ExitNoMigration = 2 // At least one input exhausted its attempts.
	ExitFailure     = 3 // At least one input failed outright.
)

// exitCodeError carries a non-zero exit code through cobra's error handling.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string { return e.msg }

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError. If msg is empty, the error message is
// set to a generic description of the exit code.
func exitError(code int, format string, args ...any) *exitCodeError {
	msg := fmt.Sprintf(format, args...)
	if msg == "" {
		switch code {
		case ExitNoMigration:
			msg = "promptshift: no migration produced for some inputs"
		case ExitFailure:
			msg = "promptshift: migration failed"
		default:
			msg = "promptshift: error"
		}
	}
	return &exitCodeError{code: code, msg: msg}
}
