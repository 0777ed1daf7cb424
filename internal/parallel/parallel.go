// Package parallel provides a small errgroup-based fan-out helper used to
// read several independent variables of a NetCDF file concurrently.
package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll runs every function in runs concurrently and waits for all of
// them to finish, returning the first non-nil error. If ctx is cancelled,
// or one run returns an error, the context passed to the remaining runs is
// cancelled, but RunAll still waits for every run to return before
// reporting the failure.
func RunAll(ctx context.Context, runs ...func(ctx context.Context) error) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, run := range runs {
		run := run
		group.Go(func() error { return run(ctx) })
	}
	return group.Wait()
}
