// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package migrate

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/promptshift/promptshift/internal/migrate"

// instruments holds the engine's counters. Creation failures fall back to
// no-op counters so telemetry never blocks a migration.
type instruments struct {
	attempts   metric.Int64Counter
	migrations metric.Int64Counter
}

func newInstruments(mp metric.MeterProvider) instruments {
	meter := mp.Meter(instrumentationName)
	ins := instruments{
		attempts:   noop.Int64Counter{},
		migrations: noop.Int64Counter{},
	}
	if c, err := meter.Int64Counter(
		"promptshift.migrate.attempts",
		metric.WithDescription("Generation attempts by result"),
		metric.WithUnit("{attempt}"),
	); err == nil {
		ins.attempts = c
	}
	if c, err := meter.Int64Counter(
		"promptshift.migrate.migrations",
		metric.WithDescription("Migrations by path and result"),
		metric.WithUnit("{migration}"),
	); err == nil {
		ins.migrations = c
	}
	return ins
}

func (ins instruments) recordAttempt(ctx context.Context, err error) {
	result := "success"
	if err != nil {
		result = string(Category(err))
	}
	ins.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (ins instruments) recordMigration(ctx context.Context, path Path, err error) {
	result := "success"
	if err != nil {
		result = string(Category(err))
	}
	ins.migrations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path", string(path)),
		attribute.String("result", result),
	))
}
