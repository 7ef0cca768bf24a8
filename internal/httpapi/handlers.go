// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/promptshift/promptshift/internal/migrate"
	"github.com/promptshift/promptshift/internal/output"
	"github.com/promptshift/promptshift/internal/providers"
	"github.com/promptshift/promptshift/internal/redact"
)

const migrationIDKey = "migration_id"

type handler struct {
	registry *providers.Registry
	engine   *migrate.Engine
	version  string
}

// MigrationRequest is the body of POST /v1/migrations. Models are given as
// "provider:model" or a bare model ID.
type MigrationRequest struct {
	OriginalCode  string `json:"original_code"`
	OriginalModel string `json:"original_model"`
	NewModel      string `json:"new_model"`
	Instructions  string `json:"instructions"`
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": h.version})
}

func (h *handler) createMigration(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	var body MigrationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		if tooLarge := new(http.MaxBytesError); errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("request body exceeds %d bytes", MaxBodyBytes)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req := migrate.Request{OriginalCode: body.OriginalCode, Instructions: body.Instructions}
	var err error
	if req.OriginalModel, err = h.resolve(body.OriginalModel); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorBody(fmt.Errorf("original_model: %w", err)))
		return
	}
	if req.NewModel, err = h.resolve(body.NewModel); err != nil {
		c.JSON(http.StatusUnprocessableEntity, errorBody(fmt.Errorf("new_model: %w", err)))
		return
	}

	out, err := h.engine.MigrateDetailed(c.Request.Context(), req)
	if out != nil {
		c.Set(migrationIDKey, out.MigrationID)
	}
	res := output.ToJSONResult(output.Report{
		Source:  "request",
		From:    body.OriginalModel,
		To:      body.NewModel,
		Outcome: out,
		Err:     err,
	})
	if err != nil {
		_ = c.Error(err)
		c.JSON(migrationStatus(err), res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handler) listProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.registry.Catalog()})
}

func (h *handler) getProvider(c *gin.Context) {
	id := c.Param("provider")
	for _, p := range h.registry.Catalog() {
		if p.ID == id {
			c.JSON(http.StatusOK, p)
			return
		}
	}
	c.JSON(http.StatusNotFound, errorBody(&providers.UnknownProviderError{ProviderID: id}))
}

func (h *handler) getModel(c *gin.Context) {
	m, err := h.registry.DescribeModel(c.Param("provider"), c.Param("model"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorBody(err))
		return
	}
	withSchema, _ := strconv.ParseBool(c.DefaultQuery("schema", "false"))
	c.JSON(http.StatusOK, m.Summary(withSchema))
}

func (h *handler) resolve(ref string) (*providers.ModelDescriptor, error) {
	if ref == "" {
		return nil, nil
	}
	return h.registry.Resolve(ref)
}

// migrationStatus maps an engine error to a response code.
func migrationStatus(err error) int {
	switch {
	case errors.Is(err, migrate.ErrAttemptsExhausted):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case migrate.Category(err) == migrate.KindRegistry:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorBody is the error payload with secrets redacted.
func errorBody(err error) gin.H {
	return gin.H{"error": redact.Error(err)}
}
