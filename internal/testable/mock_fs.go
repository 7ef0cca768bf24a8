// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package testable

import (
	"os"
)

// MockFileSystem is a test double for FileSystem. Each method has a
// corresponding function field. When the field is non-nil, the mock calls it;
// otherwise, it falls through to OsFileSystem.
type MockFileSystem struct {
	StatFn      func(name string) (os.FileInfo, error)
	ReadFileFn  func(name string) ([]byte, error)
	WriteFileFn func(name string, data []byte, perm os.FileMode) error
	CreateFn    func(name string) (*os.File, error)
}

var real OsFileSystem

// Stat calls StatFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if m.StatFn != nil {
		return m.StatFn(name)
	}
	return real.Stat(name)
}

// ReadFile calls ReadFileFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if m.ReadFileFn != nil {
		return m.ReadFileFn(name)
	}
	return real.ReadFile(name)
}

// WriteFile calls WriteFileFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if m.WriteFileFn != nil {
		return m.WriteFileFn(name, data, perm)
	}
	return real.WriteFile(name, data, perm)
}

// Create calls CreateFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) Create(name string) (*os.File, error) {
	if m.CreateFn != nil {
		return m.CreateFn(name)
	}
	return real.Create(name)
}

// Compile-time interface check.
var _ FileSystem = (*MockFileSystem)(nil)
