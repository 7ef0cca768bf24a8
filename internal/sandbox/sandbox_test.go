// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIsolate(t *testing.T, opts Options) *Isolate {
	t.Helper()
	iso, err := NewIsolate(opts)
	require.NoError(t, err)
	t.Cleanup(iso.Close)
	return iso
}

func TestEval_ObjectLiteral(t *testing.T) {
	iso := newTestIsolate(t, Options{})

	v, err := iso.Eval(context.Background(), `globalThis.args = {"new_prompt_function": "definePrompt()", "n": 3, "list": [1, "two", null]};`, "args")
	require.NoError(t, err)

	obj, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "definePrompt()", obj["new_prompt_function"])
	assert.Equal(t, float64(3), obj["n"])
	assert.Equal(t, []any{float64(1), "two", nil}, obj["list"])
}

func TestEval_ReleasesContext(t *testing.T) {
	iso := newTestIsolate(t, Options{})

	_, err := iso.Eval(context.Background(), `globalThis.x = 1;`, "x")
	require.NoError(t, err)
	_, err = iso.Eval(context.Background(), `throw new Error("boom")`, "x")
	require.Error(t, err)

	stats := iso.Stats()
	assert.Zero(t, stats.LiveContexts)
	assert.Zero(t, stats.ReservedBytes)
	assert.Equal(t, DefaultMemoryLimit, stats.MemoryLimit)
	assert.Equal(t, int64(2), stats.Acquired)
}

func TestEval_NoAmbientCapabilities(t *testing.T) {
	iso := newTestIsolate(t, Options{})

	payloads := map[string]string{
		"require":  `globalThis.out = require("fs").readFileSync("/etc/passwd", "utf8");`,
		"process":  `globalThis.out = process.env;`,
		"fetch":    `globalThis.out = fetch("http://example.com");`,
		"xhr":      `globalThis.out = new XMLHttpRequest();`,
		"console":  `console.log("hi"); globalThis.out = 1;`,
		"eval":     `globalThis.out = eval("1 + 1");`,
		"Function": `globalThis.out = Function("return 1")();`,
		"ctor":     `globalThis.out = (function () {}).constructor("return globalThis")();`,
		"timers":   `setTimeout(function () {}, 0); globalThis.out = 1;`,
	}
	for name, code := range payloads {
		t.Run(name, func(t *testing.T) {
			_, err := iso.Eval(context.Background(), code, "out")
			require.Error(t, err)
			var ee *ExecutionError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, StageRun, ee.Stage)
		})
	}
}

func TestEval_SyntaxError(t *testing.T) {
	iso := newTestIsolate(t, Options{})

	_, err := iso.Eval(context.Background(), `globalThis.args = {new_prompt_function: "x",,};`, "args")
	require.Error(t, err)
	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, StageCompile, ee.Stage)
}

func TestEval_UndefinedSlot(t *testing.T) {
	iso := newTestIsolate(t, Options{})

	_, err := iso.Eval(context.Background(), `var unrelated = 1;`, "args")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUndefinedSlot))

	_, err = iso.Eval(context.Background(), `globalThis.args = function () {};`, "args")
	assert.True(t, errors.Is(err, ErrUndefinedSlot))
}

func TestEval_Timeout(t *testing.T) {
	iso := newTestIsolate(t, Options{Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, err := iso.Eval(context.Background(), `for (;;) {}`, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestEval_ContextCancel(t *testing.T) {
	iso := newTestIsolate(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	_, err := iso.Eval(ctx, `while (true) {}`, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEval_AlreadyCancelled(t *testing.T) {
	iso := newTestIsolate(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := iso.Eval(ctx, `globalThis.x = 1;`, "x")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEval_StackLimit(t *testing.T) {
	iso := newTestIsolate(t, Options{MaxCallStackSize: 64})

	_, err := iso.Eval(context.Background(), `function f(n) { return f(n + 1) + 1; } globalThis.x = f(0);`, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStackLimit))
}

func TestNewContext_SharedMemoryCeiling(t *testing.T) {
	iso := newTestIsolate(t, Options{MemoryLimit: EstimateCost(64)})

	first, err := iso.NewContext(64)
	require.NoError(t, err)

	_, err = iso.NewContext(64)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMemoryLimit))

	first.Release()
	second, err := iso.NewContext(64)
	require.NoError(t, err)
	second.Release()
}

func TestNewContext_OversizedSource(t *testing.T) {
	iso := newTestIsolate(t, Options{MemoryLimit: 2 << 20})

	big := "globalThis.x = \"" + strings.Repeat("a", 1<<20) + "\";"
	_, err := iso.Eval(context.Background(), big, "x")
	require.Error(t, err)
	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, StageAcquire, ee.Stage)
	assert.True(t, errors.Is(err, ErrMemoryLimit))
}

func TestCopy_ExtractedValueChargedAgainstReservation(t *testing.T) {
	iso := newTestIsolate(t, Options{})

	code := `globalThis.x = "ab".repeat(2 << 20);`
	_, err := iso.Eval(context.Background(), code, "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMemoryLimit))
}

func TestNewIsolate_LimitBelowOverhead(t *testing.T) {
	_, err := NewIsolate(Options{MemoryLimit: 1024})
	require.Error(t, err)
}

func TestContext_ReleaseIdempotent(t *testing.T) {
	iso := newTestIsolate(t, Options{})

	c, err := iso.NewContext(10)
	require.NoError(t, err)
	assert.Equal(t, 1, iso.Stats().LiveContexts)

	c.Release()
	c.Release()
	assert.Equal(t, 0, iso.Stats().LiveContexts)
	assert.Zero(t, iso.Stats().ReservedBytes)

	err = c.Run(context.Background(), `1`)
	assert.True(t, errors.Is(err, ErrReleased))
	_, err = c.Copy(context.Background(), "x")
	assert.True(t, errors.Is(err, ErrReleased))
}

func TestContext_CopyIsDeep(t *testing.T) {
	iso := newTestIsolate(t, Options{})

	c, err := iso.NewContext(100)
	require.NoError(t, err)
	defer c.Release()

	require.NoError(t, c.Run(context.Background(), `globalThis.obj = {inner: {v: 1}};`))
	first, err := c.Copy(context.Background(), "obj")
	require.NoError(t, err)
	first.(map[string]any)["inner"].(map[string]any)["v"] = 99.0

	second, err := c.Copy(context.Background(), "obj")
	require.NoError(t, err)
	assert.Equal(t, float64(1), second.(map[string]any)["inner"].(map[string]any)["v"])
}

func TestContexts_AreIsolated(t *testing.T) {
	iso := newTestIsolate(t, Options{})

	a, err := iso.NewContext(100)
	require.NoError(t, err)
	defer a.Release()
	b, err := iso.NewContext(100)
	require.NoError(t, err)
	defer b.Release()

	require.NoError(t, a.Run(context.Background(), `globalThis.slot = "a";`))
	require.NoError(t, b.Run(context.Background(), `globalThis.slot = "b";`))

	va, err := a.Copy(context.Background(), "slot")
	require.NoError(t, err)
	vb, err := b.Copy(context.Background(), "slot")
	require.NoError(t, err)
	assert.Equal(t, "a", va)
	assert.Equal(t, "b", vb)

	c, err := iso.NewContext(100)
	require.NoError(t, err)
	defer c.Release()
	_, err = c.Copy(context.Background(), "slot")
	assert.True(t, errors.Is(err, ErrUndefinedSlot), "fresh context must not see other contexts' globals")
}

func TestEval_Concurrent(t *testing.T) {
	iso := newTestIsolate(t, Options{})

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			want := fmt.Sprintf("value-%d", i)
			v, err := iso.Eval(context.Background(), fmt.Sprintf(`globalThis.slot = %q;`, want), "slot")
			if err != nil {
				errs <- err
				return
			}
			if v != want {
				errs <- fmt.Errorf("got %v, want %s", v, want)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.Zero(t, iso.Stats().LiveContexts)
}

func TestIsolate_Close(t *testing.T) {
	iso, err := NewIsolate(Options{})
	require.NoError(t, err)

	live, err := iso.NewContext(10)
	require.NoError(t, err)

	iso.Close()
	_, err = iso.NewContext(10)
	assert.True(t, errors.Is(err, ErrIsolateClosed))

	require.NoError(t, live.Run(context.Background(), `globalThis.x = 2;`))
	live.Release()
	assert.Zero(t, iso.Stats().LiveContexts)
}

func TestEval_HeapGrowthInterrupted(t *testing.T) {
	iso := newTestIsolate(t, Options{MemoryLimit: 16 << 20, Timeout: time.Minute})

	code := `var keep = [];
for (var i = 0; i < 50000000; i++) { keep.push({ i: i, s: "item-" + i }); }
globalThis.slot = keep.length;`

	_, err := iso.Eval(context.Background(), code, "slot")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMemoryLimit), "got %v", err)
	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, StageRun, ee.Stage)

	stats := iso.Stats()
	assert.Zero(t, stats.LiveContexts)
	assert.Zero(t, stats.ReservedBytes)

	v, err := iso.Eval(context.Background(), `globalThis.slot = 1;`, "slot")
	require.NoError(t, err, "isolate stays usable after a memory failure")
	assert.Equal(t, float64(1), v)
}

func TestCopy_TamperedGlobals(t *testing.T) {
	iso := newTestIsolate(t, Options{})

	payloads := map[string]string{
		"delete JSON":    `delete globalThis.JSON; globalThis.slot = {"new_prompt_function": "x"};`,
		"JSON undefined": `JSON = undefined; globalThis.slot = {"new_prompt_function": "x"};`,
		"stringify":      `JSON.stringify = function () { return "{}"; }; globalThis.slot = {"new_prompt_function": "x"};`,
	}
	for name, code := range payloads {
		t.Run(name, func(t *testing.T) {
			v, err := iso.Eval(context.Background(), code, "slot")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"new_prompt_function": "x"}, v)
		})
	}
}

func TestCopy_ScriptErrorsDuringCopyFailClosed(t *testing.T) {
	iso := newTestIsolate(t, Options{Timeout: 50 * time.Millisecond})

	payloads := map[string]string{
		"throwing getter": `Object.defineProperty(globalThis, "slot", { get: function () { throw new Error("no"); } });`,
		"throwing toJSON": `globalThis.slot = { toJSON: function () { throw new Error("no"); } };`,
		"looping getter":  `globalThis.slot = {}; Object.defineProperty(globalThis.slot, "x", { enumerable: true, get: function () { for (;;) {} } });`,
	}
	for name, code := range payloads {
		t.Run(name, func(t *testing.T) {
			_, err := iso.Eval(context.Background(), code, "slot")
			require.Error(t, err)
			var ee *ExecutionError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, StageCopy, ee.Stage)
		})
	}
	assert.Zero(t, iso.Stats().LiveContexts)
}
