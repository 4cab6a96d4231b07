package concurrent

import (
	"context"

	"github.com/roketz/terrain/pkg/sequence"
	"golang.org/x/sync/errgroup"
)

// Concurrent runs the action function for each element of the iterator in a separate goroutine.
// It waits for all goroutines to finish and returns the first error encountered. The context
// passed to action is cancelled as soon as one action fails.
func Concurrent[T any](ctx context.Context, i *sequence.Iterator[T], action func(context.Context, T) error) error {
	errGroup, gctx := errgroup.WithContext(ctx)
	for value := range i.Seq() {
		errGroup.Go(func() error {
			return action(gctx, value)
		})
	}
	return errGroup.Wait()
}

// ParallelMap applies mapFn to each element in parallel, preserving order. At most workers
// goroutines run at once.
func ParallelMap[T any, R any](ctx context.Context, i *sequence.Iterator[T], workers int, mapFn func(context.Context, T) (R, error)) ([]R, error) {
	in := i.Collect()
	out := make([]R, len(in))

	errGroup, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		errGroup.SetLimit(workers)
	}
	for idx, val := range in {
		errGroup.Go(func() error {
			r, err := mapFn(gctx, val)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}
	if err := errGroup.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
