// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package migrate

import (
	"context"
	"errors"
	"fmt"

	"github.com/promptshift/promptshift/internal/providers"
	"github.com/promptshift/promptshift/internal/sandbox"
)

// ErrAttemptsExhausted is returned in strict mode when no attempt produced
// a validated constructor.
var ErrAttemptsExhausted = errors.New("migrate: all attempts failed")

// GenerationError is a failed or unusable call to the generation service.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ValidationError means the value extracted from the generated payload did
// not have the expected shape.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed: %s: %v", e.Reason, e.Err)
	}
	return "validation failed: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// FormattingWarning records a formatter failure. The unformatted code is
// returned in its place.
type FormattingWarning struct {
	Err error
}

func (e *FormattingWarning) Error() string {
	return fmt.Sprintf("formatting skipped: %v", e.Err)
}

func (e *FormattingWarning) Unwrap() error { return e.Err }

// Kind names a failure bucket.
type Kind string

// Failure buckets reported by Category.
const (
	KindRegistry   Kind = "registry"
	KindGeneration Kind = "generation"
	KindSandbox    Kind = "sandbox"
	KindValidation Kind = "validation"
	KindFormatting Kind = "formatting"
	KindCanceled   Kind = "canceled"
	KindExhausted  Kind = "exhausted"
	KindUnknown    Kind = "unknown"
)

// Category reports which failure bucket err belongs to.
func Category(err error) Kind {
	var (
		genErr  *GenerationError
		execErr *sandbox.ExecutionError
		valErr  *ValidationError
		fmtErr  *FormattingWarning
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAttemptsExhausted):
		return KindExhausted
	case errors.As(err, &valErr):
		return KindValidation
	case errors.As(err, &genErr):
		return KindGeneration
	case errors.As(err, &execErr):
		return KindSandbox
	case errors.As(err, &fmtErr):
		return KindFormatting
	case errors.Is(err, providers.ErrUnknownProvider), errors.Is(err, providers.ErrUnknownModel):
		return KindRegistry
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}
