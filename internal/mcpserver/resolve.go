// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package mcpserver

import (
	"fmt"
	"os"
	"path/filepath"
)

// MaxSourceBytes caps the size of a constructor file read by a tool.
const MaxSourceBytes = 1 << 20

// ResolveFile resolves a constructor file path to an absolute,
// symlink-resolved path. It returns an error if the path does not exist,
// is not a regular file, or exceeds MaxSourceBytes.
func ResolveFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is required")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path %q: %w", path, err)
	}

	absPath, err = filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", fmt.Errorf("cannot resolve path %q: %w", path, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("path %q does not exist", path)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%q is not a regular file", path)
	}
	if info.Size() > MaxSourceBytes {
		return "", fmt.Errorf("%q is larger than %d bytes", path, MaxSourceBytes)
	}
	return absPath, nil
}

// ReadSource reads a constructor file after resolving it with ResolveFile.
func ReadSource(path string) (string, error) {
	absPath, err := ResolveFile(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(absPath) //nolint:gosec // path validated above
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", path, err)
	}
	return string(data), nil
}
