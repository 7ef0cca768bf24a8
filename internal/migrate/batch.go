// Copyright 2026 The Promptshift Authors
// SPDX-License-Identifier: MIT

package migrate

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result pairs a batch entry's outcome with its error.
type Result struct {
	Outcome *Outcome
	Err     error
}

// MigrateAll runs reqs with at most concurrency migrations in flight and
// returns results in input order. A failed entry does not stop the others;
// only cancellation of ctx does. Concurrency below 1 means one at a time.
func (e *Engine) MigrateAll(ctx context.Context, reqs []Request, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = Result{Err: err}
				return nil
			}
			out, err := e.MigrateDetailed(gctx, req)
			results[i] = Result{Outcome: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
