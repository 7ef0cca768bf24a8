// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package sandbox

import (
	"errors"
	"fmt"
)

// Sentinel errors. They are wrapped in *ExecutionError by the operations
// that produce them.
var (
	ErrMemoryLimit   = errors.New("memory limit exceeded")
	ErrTimeout       = errors.New("execution timed out")
	ErrStackLimit    = errors.New("call stack limit exceeded")
	ErrIsolateClosed = errors.New("isolate closed")
	ErrReleased      = errors.New("context already released")
	ErrUndefinedSlot = errors.New("slot is undefined or not serializable")
)

// Stage names the sandbox operation that failed.
type Stage string

const (
	StageAcquire Stage = "acquire"
	StageCompile Stage = "compile"
	StageRun     Stage = "run"
	StageCopy    Stage = "copy"
)

// ExecutionError is returned for any failure inside the isolated environment.
type ExecutionError struct {
	Stage Stage
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("sandbox %s: %v", e.Stage, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func execErr(stage Stage, err error) error {
	return &ExecutionError{Stage: stage, Err: err}
}
