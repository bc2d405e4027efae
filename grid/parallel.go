package grid

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ParallelFor runs fn(i) for i in [0,n) across a bounded worker pool,
// translating the original's thread-pool parallel_for (spec.md §9:
// "parallel_for(n, body) — partitions [0,n) across worker goroutines").
// fn must not return an error in the normal case; a panic inside fn
// propagates out of ParallelFor via errgroup's recovery-free Wait.
func ParallelFor(ctx context.Context, n int, fn func(i int)) error {
	if n <= 0 {
		return nil
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}
