// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package sandbox

import (
	"fmt"
	"runtime/metrics"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
)

// heapMetric counts bytes in heap objects, live or not yet swept.
const heapMetric = "/memory/classes/heap/objects:bytes"

// memorySampleInterval is how often a running context's heap growth is
// checked.
var memorySampleInterval = time.Millisecond

func heapObjectBytes() int64 {
	s := []metrics.Sample{{Name: heapMetric}}
	metrics.Read(s)
	if s[0].Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return int64(s[0].Value.Uint64())
}

func memoryExceeded(growth, allowance int64) error {
	return fmt.Errorf("%w: heap grew %d bytes during execution, allowance is %d", ErrMemoryLimit, growth, allowance)
}

// memoryWatch interrupts a runtime once the host heap has grown past the
// allowance since base. Growth is measured process-wide, so concurrent
// executions share the allowance.
type memoryWatch struct {
	base      int64
	allowance int64
	done      chan struct{}
	exited    chan struct{}
	tripped   atomic.Pointer[error]
}

func watchMemory(rt *goja.Runtime, allowance int64) *memoryWatch {
	w := &memoryWatch{
		base:      heapObjectBytes(),
		allowance: allowance,
		done:      make(chan struct{}),
		exited:    make(chan struct{}),
	}
	go func() {
		defer close(w.exited)
		ticker := time.NewTicker(memorySampleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-w.done:
				return
			case <-ticker.C:
				if err := w.check(); err != nil {
					w.tripped.Store(&err)
					rt.Interrupt(err)
					return
				}
			}
		}
	}()
	return w
}

func (w *memoryWatch) check() error {
	if growth := heapObjectBytes() - w.base; growth > w.allowance {
		return memoryExceeded(growth, w.allowance)
	}
	return nil
}

// stop ends the watch. It returns the error that interrupted the runtime,
// or the result of a final check when the watch never fired.
func (w *memoryWatch) stop() (interrupted bool, err error) {
	close(w.done)
	<-w.exited
	if p := w.tripped.Load(); p != nil {
		return true, *p
	}
	return false, w.check()
}
