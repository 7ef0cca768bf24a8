// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

// Package testable provides interfaces for abstracting OS-level operations,
// enabling mock injection in tests without modifying production behavior.
package testable

import (
	"os"
)

// FileSystem abstracts the file operations the CLI performs on constructor
// sources and migration output.
type FileSystem interface {
	// Stat returns a FileInfo describing the named file.
	Stat(name string) (os.FileInfo, error)

	// ReadFile reads the named file and returns the contents.
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(name string, data []byte, perm os.FileMode) error

	// Create creates or truncates the named file.
	Create(name string) (*os.File, error)
}

// OsFileSystem is the production implementation of FileSystem.
type OsFileSystem struct{}

// Stat wraps os.Stat.
func (OsFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// ReadFile wraps os.ReadFile.
func (OsFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) //nolint:gosec // caller controls path
}

// WriteFile wraps os.WriteFile.
func (OsFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm) //nolint:gosec // caller controls path and perms
}

// Create wraps os.Create.
func (OsFileSystem) Create(name string) (*os.File, error) {
	return os.Create(name) //nolint:gosec // caller controls path
}

// DefaultFS is the production FileSystem.
var DefaultFS FileSystem = OsFileSystem{}
