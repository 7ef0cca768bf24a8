// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

// Package migrate rewrites prompt constructor code for a different model or
// provider. Each attempt builds an instruction set, asks the generation
// service for the new constructor through a forced function call, evaluates
// the returned argument payload in the sandbox, and validates the result.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/promptshift/promptshift/internal/constructor"
	"github.com/promptshift/promptshift/internal/llm"
	"github.com/promptshift/promptshift/internal/providers"
	"github.com/promptshift/promptshift/internal/sandbox"
)

// DefaultMaxAttempts is the attempt ceiling when none is configured.
const DefaultMaxAttempts = 5

// Request describes one migration. Empty strings and nil models mean absent.
type Request struct {
	OriginalCode  string
	OriginalModel *providers.ModelDescriptor
	NewModel      *providers.ModelDescriptor
	Instructions  string
}

// Path records which branch of the caller contract a migration took.
type Path string

const (
	// PathDefault returned the default constructor skeleton.
	PathDefault Path = "default"
	// PathUnchanged returned the original code without any external call.
	PathUnchanged Path = "unchanged"
	// PathGenerated ran the attempt loop.
	PathGenerated Path = "generated"
)

// Outcome is the detailed result of a migration.
type Outcome struct {
	MigrationID string
	Path        Path

	// Code is the resulting constructor, or "" when every attempt failed.
	Code string

	// Attempts is the number of generation attempts made.
	Attempts int

	// Failures holds one error per failed attempt, in order.
	Failures []error

	// Formatted is false when the formatter failed and Code is unformatted.
	Formatted bool

	// Warning is set when formatting degraded.
	Warning error
}

// Exhausted reports whether the attempt loop ran and produced nothing.
func (o *Outcome) Exhausted() bool {
	return o.Path == PathGenerated && o.Code == ""
}

// Engine runs migrations. It is safe for concurrent use.
type Engine struct {
	registry  *providers.Registry
	generator llm.Provider
	isolate   *sandbox.Isolate

	maxAttempts    int
	attemptTimeout time.Duration
	backoffInitial time.Duration
	backoffMax     time.Duration
	formatter      Formatter
	model          string
	maxTokens      int
	temperature    *float64
	strict         bool
	verify         bool
	version        string
	logger         *slog.Logger
	tracer         trace.Tracer
	ins            instruments
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxAttempts sets the attempt ceiling. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithAttemptTimeout bounds each attempt, covering both the generation call
// and sandbox execution. Zero means no limit.
func WithAttemptTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.attemptTimeout = d
	}
}

// WithBackoff waits between attempts, doubling from initial up to
// maxDelay. A zero initial delay disables waiting.
func WithBackoff(initial, maxDelay time.Duration) Option {
	return func(e *Engine) {
		e.backoffInitial = initial
		e.backoffMax = maxDelay
	}
}

// WithFormatter replaces the output formatter.
func WithFormatter(f Formatter) Option {
	return func(e *Engine) {
		if f != nil {
			e.formatter = f
		}
	}
}

// WithGenerationModel sets the model requested from the generation service.
// Empty selects the backend's default.
func WithGenerationModel(model string) Option {
	return func(e *Engine) {
		e.model = model
	}
}

// WithMaxTokens limits the generation response length.
func WithMaxTokens(n int) Option {
	return func(e *Engine) {
		e.maxTokens = n
	}
}

// WithTemperature sets the generation temperature.
func WithTemperature(t float64) Option {
	return func(e *Engine) {
		e.temperature = &t
	}
}

// WithStrictExhaustion makes Migrate return ErrAttemptsExhausted instead of
// an empty string when every attempt fails.
func WithStrictExhaustion(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// WithConstructorCheck additionally requires the generated code to run in
// the sandbox and call definePrompt for the expected provider.
func WithConstructorCheck(verify bool) Option {
	return func(e *Engine) {
		e.verify = verify
	}
}

// WithVersion sets the client version reported in request tags.
func WithVersion(v string) Option {
	return func(e *Engine) {
		e.version = v
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTracerProvider sets the tracer provider. The default is the global one.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		e.tracer = tp.Tracer(instrumentationName)
	}
}

// WithMeterProvider sets the meter provider. The default is the global one.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) {
		e.ins = newInstruments(mp)
	}
}

// New creates an Engine. The isolate is shared and owned by the caller.
func New(registry *providers.Registry, generator llm.Provider, isolate *sandbox.Isolate, opts ...Option) *Engine {
	e := &Engine{
		registry:    registry,
		generator:   generator,
		isolate:     isolate,
		maxAttempts: DefaultMaxAttempts,
		formatter:   EsbuildFormatter{},
		logger:      slog.Default(),
		tracer:      otel.Tracer(instrumentationName),
		ins:         newInstruments(otel.GetMeterProvider()),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// MaxAttempts returns the configured attempt ceiling.
func (e *Engine) MaxAttempts() int {
	return e.maxAttempts
}

// Migrate returns the migrated constructor code.
//
// With no original code it returns the default skeleton. With original code
// but neither a new model nor instructions it returns the original code
// unchanged without calling out. Otherwise it runs up to MaxAttempts
// generation attempts and returns the first validated, formatted result, or
// "" when every attempt fails (ErrAttemptsExhausted in strict mode).
//
// Only registry lookup failures, caller cancellation, and strict exhaustion
// are returned as errors.
func (e *Engine) Migrate(ctx context.Context, req Request) (string, error) {
	out, err := e.MigrateDetailed(ctx, req)
	if err != nil {
		return "", err
	}
	return out.Code, nil
}

// MigrateDetailed is Migrate with per-attempt detail. The Outcome is non-nil
// whenever the attempt loop ran, including on strict exhaustion.
func (e *Engine) MigrateDetailed(ctx context.Context, req Request) (out *Outcome, err error) {
	out = &Outcome{MigrationID: uuid.NewString()}
	log := e.logger.With("migration_id", out.MigrationID)

	ctx, span := e.tracer.Start(ctx, "migrate", trace.WithAttributes(
		attribute.String("migration.id", out.MigrationID),
		attribute.Bool("migration.translation", req.NewModel != nil),
		attribute.Bool("migration.instructions", req.Instructions != ""),
	))
	defer func() {
		span.SetAttributes(
			attribute.String("migration.path", string(out.Path)),
			attribute.Int("migration.attempts", out.Attempts),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		e.ins.recordMigration(ctx, out.Path, err)
		span.End()
	}()

	switch {
	case req.OriginalCode == "":
		out.Path, out.Code, out.Formatted = PathDefault, constructor.Default, true
		log.Debug("no original constructor, returning default")
		return out, nil
	case req.NewModel == nil && req.Instructions == "":
		out.Path, out.Code, out.Formatted = PathUnchanged, req.OriginalCode, true
		log.Debug("nothing to migrate, returning original constructor")
		return out, nil
	case req.OriginalModel == nil:
		out.Path, out.Code, out.Formatted = PathDefault, constructor.Default, true
		log.Debug("original model unknown, returning default")
		return out, nil
	}

	out.Path = PathGenerated
	plan, err := e.resolve(req)
	if err != nil {
		return out, err
	}

	log.Info("migrating constructor",
		"from", plan.req.OriginalModel.String(),
		"to", modelName(plan.req.NewModel),
		"instructions", req.Instructions != "",
		"max_attempts", e.maxAttempts,
	)

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := e.wait(ctx, attempt-1); err != nil {
				return out, err
			}
		}

		code, err := e.attempt(ctx, plan, attempt)
		out.Attempts = attempt
		e.ins.recordAttempt(ctx, err)
		if err == nil {
			out.Code, out.Formatted, out.Warning = e.format(code)
			if out.Warning != nil {
				log.Warn("formatting failed, returning unformatted constructor", "err", out.Warning)
			}
			log.Info("migration succeeded", "attempt", attempt)
			return out, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, ctxErr
		}
		out.Failures = append(out.Failures, err)
		log.Warn("migration attempt failed",
			"attempt", attempt,
			"category", string(Category(err)),
			"err", err,
		)
	}

	log.Warn("migration exhausted all attempts", "attempts", out.Attempts)
	if e.strict {
		return out, fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, out.Attempts, errors.Join(out.Failures...))
	}
	return out, nil
}

// plan holds the per-migration inputs resolved before the first attempt.
type plan struct {
	req              Request
	current          providers.Schema
	target           providers.Schema
	expectedProvider string
}

// resolve resolves both models and schemas through the registry. Failures here
// are fatal to the migration.
func (e *Engine) resolve(req Request) (*plan, error) {
	orig, err := e.registry.DescribeModel(req.OriginalModel.ProviderID, req.OriginalModel.ID)
	if err != nil {
		return nil, err
	}
	current, err := e.registry.SchemaFor(orig.ProviderID)
	if err != nil {
		return nil, err
	}

	p := &plan{current: current}
	req.OriginalModel = orig
	if req.NewModel != nil {
		next, err := e.registry.DescribeModel(req.NewModel.ProviderID, req.NewModel.ID)
		if err != nil {
			return nil, err
		}
		if next.ProviderID != orig.ProviderID {
			if p.target, err = e.registry.SchemaFor(next.ProviderID); err != nil {
				return nil, err
			}
		}
		req.NewModel = next
		p.expectedProvider = next.ProviderID
	}
	p.req = req
	return p, nil
}

// attempt runs one build → generate → extract → validate cycle.
func (e *Engine) attempt(ctx context.Context, p *plan, n int) (code string, err error) {
	ctx, span := e.tracer.Start(ctx, "migrate.attempt", trace.WithAttributes(attribute.Int("attempt", n)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(Category(err)))
		}
		span.End()
	}()

	if e.attemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.attemptTimeout)
		defer cancel()
	}

	set := BuildInstructions(p.req, p.current, p.target)
	args, err := e.generate(ctx, set, p.req.NewModel != nil)
	if err != nil {
		return "", err
	}
	code, err = e.extract(ctx, args)
	if err != nil {
		return "", err
	}
	if e.verify {
		if err := e.checkConstructor(ctx, code, p.expectedProvider); err != nil {
			return "", err
		}
	}
	return code, nil
}

// checkConstructor evaluates generated code and checks the provider it
// targets. With no target model any registered provider is accepted, since
// instructions may redirect the migration.
func (e *Engine) checkConstructor(ctx context.Context, code, expected string) error {
	prompt, err := constructor.Evaluate(ctx, e.isolate, code, nil)
	if err != nil {
		return &ValidationError{Reason: "generated constructor does not evaluate", Err: err}
	}
	if expected != "" && prompt.ProviderID != expected {
		return &ValidationError{Reason: fmt.Sprintf("generated constructor targets %q, want %q", prompt.ProviderID, expected)}
	}
	if _, err := e.registry.Provider(prompt.ProviderID); err != nil {
		return &ValidationError{Reason: "generated constructor targets an unregistered provider", Err: err}
	}
	return nil
}

func (e *Engine) format(code string) (string, bool, error) {
	formatted, err := e.formatter.Format(code)
	if err != nil {
		return code, false, &FormattingWarning{Err: err}
	}
	return formatted, true, nil
}

// wait sleeps before retry n (1-based), honoring cancellation.
func (e *Engine) wait(ctx context.Context, n int) error {
	d := backoffDelay(e.backoffInitial, e.backoffMax, n)
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoffDelay returns initial·2^(n-1), capped at maxDelay when positive.
func backoffDelay(initial, maxDelay time.Duration, n int) time.Duration {
	if initial <= 0 || n < 1 {
		return 0
	}
	d := initial
	for i := 1; i < n; i++ {
		d *= 2
		if maxDelay > 0 && d >= maxDelay {
			return maxDelay
		}
	}
	if maxDelay > 0 && d > maxDelay {
		return maxDelay
	}
	return d
}

func modelName(m *providers.ModelDescriptor) string {
	if m == nil {
		return ""
	}
	return m.String()
}
