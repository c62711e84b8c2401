// Package fanout runs independent reads concurrently and joins them, failing as soon as one fails.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Both runs a and b concurrently. If either fails, the context passed to the other is cancelled
// and the first error is returned; results are only meaningful when err is nil.
func Both[A, B any](ctx context.Context,
	a func(ctx context.Context) (A, error),
	b func(ctx context.Context) (B, error)) (A, B, error) {

	var (
		ra A
		rb B
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		ra, err = a(gctx)
		return err
	})

	g.Go(func() error {
		var err error
		rb, err = b(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		var za A
		var zb B
		return za, zb, err
	}

	return ra, rb, nil
}
