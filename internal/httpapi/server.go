// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

// Package httpapi serves migrations and registry lookups over HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/promptshift/promptshift/internal/migrate"
	"github.com/promptshift/promptshift/internal/providers"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = "127.0.0.1:8080"

// MaxBodyBytes caps the size of a migration request body.
const MaxBodyBytes = 2 << 20

// ShutdownTimeout bounds graceful shutdown once the serve context ends.
const ShutdownTimeout = 30 * time.Second

// Deps are the components the handlers call into.
type Deps struct {
	Registry *providers.Registry
	Engine   *migrate.Engine
	Logger   *slog.Logger
	Version  string
}

// NewRouter builds the gin engine with every route registered.
//
// Provider IDs contain a slash, so path parameters are matched against the
// escaped path: clients send "openai%2FChatCompletion".
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &handler{registry: deps.Registry, engine: deps.Engine, version: deps.Version}

	router := gin.New()
	router.UseRawPath = true
	router.UnescapePathValues = true
	router.Use(gin.Recovery(), loggingMiddleware(deps.Logger))

	router.GET("/health", h.health)

	v1 := router.Group("/v1")
	v1.POST("/migrations", h.createMigration)
	v1.GET("/providers", h.listProviders)
	v1.GET("/providers/:provider", h.getProvider)
	v1.GET("/providers/:provider/models/:model", h.getModel)

	return router
}

// Serve listens on addr and serves handler until ctx is done, then shuts
// down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serveListener(ctx, ln, handler, logger)
}

func serveListener(ctx context.Context, ln net.Listener, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
