package itinerary

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// RankBatch ranks queries concurrently with at most workers goroutines and
// returns the option lists in query order.
func (r *Ranker) RankBatch(ctx context.Context, queries []Query, workers int) ([][]Option, error) {
	return inParallel(ctx, queries, workers, r.Rank)
}

// inParallel applies fn to every input on a bounded pool and returns the
// results in input order. The ranker is only read, so no coordination beyond
// the pool is needed. workers <= 0 means GOMAXPROCS.
func inParallel[In, Out any](ctx context.Context, in []In, workers int, fn func(In) Out) ([]Out, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	out := make([]Out, len(in))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(workers)
	for i, v := range in {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = fn(v)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
