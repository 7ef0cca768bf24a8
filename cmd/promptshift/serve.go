// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/promptshift/promptshift/internal/httpapi"
)

// Serve command flags.
var (
	serveAddr   string
	serveEngine engineFlags
)

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve migrations over HTTP",
	Long: `Serve migrations and registry lookups over HTTP until interrupted.

Routes:
  POST /v1/migrations
  GET  /v1/providers
  GET  /v1/providers/{provider}
  GET  /v1/providers/{provider}/models/{model}
  GET  /health

Provider IDs contain a slash; escape it as %2F in paths.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", httpapi.DefaultAddr, "listen address")
	serveEngine.register(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	serveEngine.apply(cmd, cfg)

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.Deps{
		Registry: rt.registry,
		Engine:   rt.engine,
		Logger:   slog.Default(),
		Version:  Version,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return httpapi.Serve(ctx, serveAddr, router, slog.Default())
}
