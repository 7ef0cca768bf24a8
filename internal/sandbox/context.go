// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package sandbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// Context is a single execution context. It is not safe for concurrent use
// and must be released exactly once; extra Release calls are no-ops.
type Context struct {
	iso      *Isolate
	rt       *goja.Runtime
	reserved int64

	// stringify is captured before any untrusted code runs.
	stringify goja.Callable

	releaseOnce sync.Once
	released    bool
}

// Run compiles and executes code. Execution is interrupted when ctx is done
// or the isolate timeout elapses.
func (c *Context) Run(ctx context.Context, code string) error {
	if c.released {
		return execErr(StageRun, ErrReleased)
	}
	if int64(len(code))*sourceCostFactor > c.reserved {
		return execErr(StageRun, fmt.Errorf("%w: %d bytes of source exceed the context reservation", ErrMemoryLimit, len(code)))
	}

	prg, err := goja.Compile("payload.js", code, false)
	if err != nil {
		return execErr(StageCompile, err)
	}

	_, err = c.guard(ctx, func() (goja.Value, error) {
		return c.rt.RunProgram(prg)
	})
	if err != nil {
		return execErr(StageRun, err)
	}
	return nil
}

// Copy returns a deep copy of the global slot. The value is serialized inside
// the context and decoded on the host, so no reference into the VM escapes.
// Objects decode as map[string]any, arrays as []any, numbers as float64.
func (c *Context) Copy(ctx context.Context, slot string) (any, error) {
	if c.released {
		return nil, execErr(StageCopy, ErrReleased)
	}

	out, err := c.guard(ctx, func() (goja.Value, error) {
		val := c.rt.GlobalObject().Get(slot)
		if val == nil || goja.IsUndefined(val) {
			return nil, fmt.Errorf("%w: %q", ErrUndefinedSlot, slot)
		}
		return c.stringify(goja.Undefined(), val)
	})
	if err != nil {
		return nil, execErr(StageCopy, err)
	}
	if out == nil || goja.IsUndefined(out) {
		return nil, execErr(StageCopy, fmt.Errorf("%w: %q", ErrUndefinedSlot, slot))
	}

	text := out.String()
	if int64(len(text)) > c.reserved {
		return nil, execErr(StageCopy, fmt.Errorf("%w: extracted value is %d bytes", ErrMemoryLimit, len(text)))
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, execErr(StageCopy, fmt.Errorf("decoding copied value: %w", err))
	}
	return v, nil
}

// Release returns the context's reservation to the isolate.
func (c *Context) Release() {
	c.releaseOnce.Do(func() {
		c.released = true
		c.rt = nil
		c.iso.release(c.reserved)
	})
}

// guard runs fn with interruption wired to ctx, the isolate timeout, and
// the memory ceiling. Heap growth during fn may use the context's
// reservation plus whatever the shared budget has not reserved.
func (c *Context) guard(ctx context.Context, fn func() (goja.Value, error)) (goja.Value, error) {
	if timeout := c.iso.opts.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, interruptErr(err)
	}

	rt := c.rt
	fired := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(fired)
		rt.Interrupt(ctx.Err())
	})
	watch := watchMemory(rt, c.reserved+c.iso.available())

	v, err := protect(fn)

	interrupted, memErr := watch.stop()
	if !stop() {
		<-fired
		interrupted = true
	}
	if interrupted {
		rt.ClearInterrupt()
	}
	if err != nil {
		return nil, classify(err)
	}
	if memErr != nil {
		return nil, memErr
	}
	return v, nil
}

// protect converts a panic raised by the VM into an error.
func protect(fn func() (goja.Value, error)) (v goja.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("panic during execution: %v", r)
		}
	}()
	return fn()
}

func classify(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause := interrupted.Unwrap(); cause != nil {
			return interruptErr(cause)
		}
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var overflow *goja.StackOverflowError
	if errors.As(err, &overflow) {
		return fmt.Errorf("%w: %v", ErrStackLimit, err)
	}
	return err
}

func interruptErr(cause error) error {
	if errors.Is(cause, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, cause)
	}
	return cause
}
