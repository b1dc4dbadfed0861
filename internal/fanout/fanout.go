// Package fanout runs independent units of work on a bounded goroutine pool.
package fanout

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result holds the outcome of one unit of work after fan-out.
type Result[R any] struct {
	// Value is the unit's output. It is the zero value when Err is non-nil
	// unless the unit chose to return partial output alongside its error.
	Value R

	// Err is non-nil if the unit failed or was never started because ctx
	// was canceled first.
	Err error

	// Skipped is true when the unit never ran.
	Skipped bool
}

// DefaultWorkers returns the pool size used when a caller passes limit <= 0.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// Run runs fn once per unit on a bounded pool and returns results aligned
// index-for-index with units.
//
// Unlike an errgroup.WithContext fan-out, a failing unit does not cancel its
// siblings: each failure is isolated in its Result. Canceling ctx stops new
// units from starting; units already running finish and keep their results.
func Run[T, R any](ctx context.Context, limit int, units []T, fn func(context.Context, T) (R, error)) []Result[R] {
	results := make([]Result[R], len(units))
	if limit <= 0 {
		limit = DefaultWorkers()
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(units); j++ {
				results[j] = Result[R]{Err: err, Skipped: true}
			}
			break
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result[R]{Err: err, Skipped: true}
				return nil
			}
			v, err := fn(ctx, unit)
			results[i] = Result[R]{Value: v, Err: err}
			return nil
		})
	}

	_ = g.Wait()
	return results
}
