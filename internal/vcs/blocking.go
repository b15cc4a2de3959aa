package vcs

import "context"

// blocking runs fn on its own goroutine and waits for it or for ctx. When ctx
// ends first the goroutine is left to finish on its own and its result is
// dropped.
func blocking[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}

	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func blockingErr(ctx context.Context, fn func() error) error {
	_, err := blocking(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
