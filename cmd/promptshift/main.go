// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/promptshift/promptshift/internal/redact"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	err := rootCmd.Execute()
	shutdownTelemetry(context.Background())
	if err != nil {
		var ece *exitCodeError
		if errors.As(err, &ece) {
			if ece.msg != "" {
				fmt.Fprintln(os.Stderr, redact.String(ece.msg))
			}
			os.Exit(ece.code)
		}
		fmt.Fprintln(os.Stderr, redact.String(err.Error()))
		os.Exit(ExitInvalidArgs)
	}
}
