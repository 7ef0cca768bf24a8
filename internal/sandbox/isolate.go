// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

// Package sandbox runs untrusted ECMAScript in isolated execution contexts.
//
// An Isolate is the long-lived, process-wide resource. It owns the shared
// memory budget, the compiled hardening prelude and the execution limits.
// Each context reserves an estimate from the budget up front; while script
// runs, host heap growth is sampled and execution is interrupted with
// ErrMemoryLimit once it passes the context's reservation plus the
// unreserved budget.
// Each evaluation acquires its own Context (a fresh VM with no host objects
// reachable from script scope) and must release it when done. Values leave a
// Context only as deep copies.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultMemoryLimit is the shared ceiling across all live contexts.
	DefaultMemoryLimit int64 = 128 << 20

	// DefaultMaxCallStackSize bounds recursion depth inside a context.
	DefaultMaxCallStackSize = 1024

	// contextOverhead is the reservation charged for a fresh VM.
	contextOverhead int64 = 1 << 20

	// sourceCostFactor is the bytes reserved per byte of source text.
	sourceCostFactor int64 = 16
)

// prelude strips dynamic code evaluation from every context.
const prelude = `"use strict";
(function (g) {
  var blocked = function () { throw new TypeError("dynamic code evaluation is disabled"); };
  delete g.eval;
  Object.defineProperty(Object.getPrototypeOf(function () {}), "constructor", { value: blocked });
  g.Function = blocked;
})(globalThis);
`

// Options configures an Isolate. Zero values select the defaults.
type Options struct {
	// MemoryLimit is the shared budget in bytes (default 128 MiB).
	MemoryLimit int64

	// Timeout bounds each Run and Copy call. Zero means no limit.
	Timeout time.Duration

	// MaxCallStackSize bounds script recursion depth.
	MaxCallStackSize int
}

// Stats is a point-in-time view of isolate usage.
type Stats struct {
	LiveContexts  int
	ReservedBytes int64
	MemoryLimit   int64

	// Acquired counts contexts handed out over the isolate's lifetime.
	Acquired int64
}

// Isolate is safe for concurrent use. Contexts acquired from it are not.
type Isolate struct {
	opts    Options
	budget  *semaphore.Weighted
	prelude *goja.Program

	mu       sync.Mutex
	closed   bool
	live     int
	reserved int64
	acquired int64
}

// NewIsolate creates an isolate. It is typically created once at process
// start and shared by every component that evaluates untrusted code.
func NewIsolate(opts Options) (*Isolate, error) {
	if opts.MemoryLimit <= 0 {
		opts.MemoryLimit = DefaultMemoryLimit
	}
	if opts.MaxCallStackSize <= 0 {
		opts.MaxCallStackSize = DefaultMaxCallStackSize
	}
	if opts.MemoryLimit < contextOverhead {
		return nil, fmt.Errorf("sandbox: memory limit %d is below the per-context overhead %d", opts.MemoryLimit, contextOverhead)
	}

	prg, err := goja.Compile("prelude.js", prelude, true)
	if err != nil {
		return nil, fmt.Errorf("sandbox: compiling prelude: %w", err)
	}

	return &Isolate{
		opts:    opts,
		budget:  semaphore.NewWeighted(opts.MemoryLimit),
		prelude: prg,
	}, nil
}

// EstimateCost returns the reservation a context running code of the given
// size is charged against the shared budget.
func EstimateCost(sourceBytes int) int64 {
	return contextOverhead + int64(sourceBytes)*sourceCostFactor
}

// NewContext acquires a fresh execution context sized for sourceBytes of
// script. It fails with ErrMemoryLimit when the shared budget cannot cover
// the reservation. The caller must call Release.
func (iso *Isolate) NewContext(sourceBytes int) (*Context, error) {
	cost := EstimateCost(sourceBytes)
	if cost > iso.opts.MemoryLimit {
		return nil, execErr(StageAcquire, fmt.Errorf("%w: context needs %d bytes, limit is %d", ErrMemoryLimit, cost, iso.opts.MemoryLimit))
	}

	iso.mu.Lock()
	if iso.closed {
		iso.mu.Unlock()
		return nil, execErr(StageAcquire, ErrIsolateClosed)
	}
	if !iso.budget.TryAcquire(cost) {
		iso.mu.Unlock()
		return nil, execErr(StageAcquire, fmt.Errorf("%w: %d bytes requested with %d of %d reserved", ErrMemoryLimit, cost, iso.reserved, iso.opts.MemoryLimit))
	}
	iso.live++
	iso.acquired++
	iso.reserved += cost
	iso.mu.Unlock()

	rt := goja.New()
	rt.SetMaxCallStackSize(iso.opts.MaxCallStackSize)

	c := &Context{iso: iso, rt: rt, reserved: cost}
	if _, err := rt.RunProgram(iso.prelude); err != nil {
		c.Release()
		return nil, execErr(StageAcquire, fmt.Errorf("prelude: %w", err))
	}
	stringify, ok := goja.AssertFunction(rt.Get("JSON").ToObject(rt).Get("stringify"))
	if !ok {
		c.Release()
		return nil, execErr(StageAcquire, errors.New("JSON.stringify is unavailable"))
	}
	c.stringify = stringify
	return c, nil
}

// available is the part of the shared budget no context has reserved.
func (iso *Isolate) available() int64 {
	iso.mu.Lock()
	defer iso.mu.Unlock()
	return iso.opts.MemoryLimit - iso.reserved
}

func (iso *Isolate) release(cost int64) {
	iso.mu.Lock()
	iso.live--
	iso.reserved -= cost
	iso.mu.Unlock()
	iso.budget.Release(cost)
}

// Eval runs code in a fresh context and returns a deep copy of the value
// left in slot. The context is released whether or not evaluation succeeds.
func (iso *Isolate) Eval(ctx context.Context, code, slot string) (any, error) {
	c, err := iso.NewContext(len(code))
	if err != nil {
		return nil, err
	}
	defer c.Release()

	if err := c.Run(ctx, code); err != nil {
		return nil, err
	}
	return c.Copy(ctx, slot)
}

// Stats reports current usage.
func (iso *Isolate) Stats() Stats {
	iso.mu.Lock()
	defer iso.mu.Unlock()
	return Stats{
		LiveContexts:  iso.live,
		ReservedBytes: iso.reserved,
		MemoryLimit:   iso.opts.MemoryLimit,
		Acquired:      iso.acquired,
	}
}

// MemoryLimit returns the configured shared ceiling in bytes.
func (iso *Isolate) MemoryLimit() int64 {
	return iso.opts.MemoryLimit
}

// Close ends the isolate's lifetime. Live contexts stay usable until they
// are released; new contexts cannot be acquired.
func (iso *Isolate) Close() {
	iso.mu.Lock()
	iso.closed = true
	iso.mu.Unlock()
}
