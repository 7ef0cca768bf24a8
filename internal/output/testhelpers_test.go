// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package output

import (
	"errors"

	"github.com/promptshift/promptshift/internal/migrate"
	"github.com/promptshift/promptshift/internal/providers"
)

func sampleReports() []Report {
	return []Report{
		{
			Source: "prompts/greet.ts",
			From:   "openai/ChatCompletion:gpt-4-0613",
			To:     "anthropic/completion:claude-2.0",
			Outcome: &migrate.Outcome{
				MigrationID: "m-1",
				Path:        migrate.PathGenerated,
				Code:        "definePrompt(\"anthropic/completion\", {});\n",
				Attempts:    2,
				Failures:    []error{&migrate.GenerationError{Err: errors.New("rate limited")}},
				Formatted:   true,
			},
		},
		{
			Source: "prompts/empty.ts",
			From:   "openai/ChatCompletion:gpt-4-0613",
			Outcome: &migrate.Outcome{
				MigrationID: "m-2",
				Path:        migrate.PathGenerated,
				Attempts:    5,
				Failures: []error{
					&migrate.ValidationError{Reason: "payload is not an object"},
					&migrate.ValidationError{Reason: "payload is not an object"},
					&migrate.ValidationError{Reason: "payload is not an object"},
					&migrate.ValidationError{Reason: "payload is not an object"},
					&migrate.ValidationError{Reason: "payload is not an object"},
				},
			},
		},
		{
			Source: "prompts/bad.ts",
			To:     "mystery/x:y",
			Err:    &providers.UnknownProviderError{ProviderID: "mystery/x"},
		},
	}
}

// failWriter rejects every write.
type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }
