// Package downloader implements a bounded-parallel fetch orchestration:
// a fan-out-then-collect pool with a fixed buffer width, the parallel
// unit being one record. Built on golang.org/x/sync/errgroup.
package downloader

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultParallelism is the recommended concurrent-download cap.
const DefaultParallelism = 8

// Run calls fn(ctx, items[i]) for every item, capping in-flight calls at
// parallelism (DefaultParallelism if parallelism <= 0). Any single
// failure fails the whole run fast and propagates to the caller.
func Run[T any](ctx context.Context, items []T, parallelism int, fn func(context.Context, T) error) error {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for _, item := range items {
		item := item
		g.Go(func() error {
			return fn(ctx, item)
		})
	}
	return g.Wait()
}
