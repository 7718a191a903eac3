// Package utils contains the worker helpers used to run independent preintegration chains and
// function evaluations concurrently.
package utils

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ParallelFactor is the number of workers ForEach spreads its work over.
var ParallelFactor = max(runtime.GOMAXPROCS(0), 1)

// Span is the half-open range [From, To) of work indices handled by one worker.
type Span struct {
	From, To int
}

// Spans divides n work items into at most parts contiguous spans. Span lengths differ by at
// most one, the longer spans first.
func Spans(n, parts int) []Span {
	if n <= 0 {
		return nil
	}
	parts = min(max(parts, 1), n)
	size, extra := n/parts, n%parts
	spans := make([]Span, parts)
	from := 0
	for i := range spans {
		to := from + size
		if i < extra {
			to++
		}
		spans[i] = Span{From: from, To: to}
		from = to
	}
	return spans
}

// ForEach calls work once for every index in [0, n), one goroutine per span of Spans(n,
// ParallelFactor). A panic in work is reported as that index's error and ends its span. Errors
// are combined in index order. Once ctx is done no further index is started and ctx.Err() is returned.
func ForEach(ctx context.Context, n int, work func(i int) error) error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	for _, span := range Spans(n, ParallelFactor) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			current := span.From
			defer func() {
				if thePanic := recover(); thePanic != nil {
					errs[current] = errors.Errorf("panic in work item %d: %v", current, thePanic)
				}
			}()
			for ; current < span.To && ctx.Err() == nil; current++ {
				errs[current] = work(current)
			}
		}()
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	return multierr.Combine(errs...)
}

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs every function in its own goroutine and returns the elapsed time and the
// first error. The first failure or panic cancels the context passed to the others.
func RunInParallel(ctx context.Context, fs []SimpleFunc) (time.Duration, error) {
	start := time.Now()
	group, ctx := errgroup.WithContext(ctx)
	for _, f := range fs {
		group.Go(func() (err error) {
			defer func() {
				if thePanic := recover(); thePanic != nil {
					err = errors.Errorf("got panic running something in parallel: %v", thePanic)
				}
			}()
			return f(ctx)
		})
	}
	err := group.Wait()
	return time.Since(start), err
}
