// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package httpapi

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// loggingMiddleware logs one structured line per request.
func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if id, ok := c.Get(migrationIDKey); ok {
			attrs = append(attrs, "migration_id", id)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		level := slog.LevelInfo
		if c.Writer.Status() >= 500 {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "http request", attrs...)
	}
}
