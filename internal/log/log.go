// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

// Package log configures structured logging for promptshift using log/slog.
package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Level maps verbosity flags to a slog level.
//
//   - quiet mode:   only WARN and ERROR messages
//   - normal mode:  INFO and above
//   - verbose mode: DEBUG and above
func Level(verbose, quiet bool) slog.Level {
	switch {
	case quiet:
		return slog.LevelWarn
	case verbose:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to w in the given format ("" means text).
func New(w io.Writer, level slog.Level, format string) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "", FormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (must be %s or %s)", format, FormatText, FormatJSON)
	}
}

// Setup configures the default slog logger based on verbosity flags.
// Output is written to stderr using slog.TextHandler.
func Setup(verbose, quiet bool) {
	logger, _ := New(os.Stderr, Level(verbose, quiet), FormatText)
	slog.SetDefault(logger)
}

// SetupFormat is Setup with a selectable output format.
func SetupFormat(verbose, quiet bool, format string) error {
	logger, err := New(os.Stderr, Level(verbose, quiet), format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
