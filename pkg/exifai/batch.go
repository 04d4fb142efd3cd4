package exifai

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// ProcessFunc handles one image.
type ProcessFunc func(ctx context.Context, path string) (*Result, error)

// Batch processes many images with bounded concurrency.
type Batch struct {
	Process     ProcessFunc
	Concurrency int
}

// Summary counts what a batch did.
type Summary struct {
	Written int
	Skipped int
	Empty   int
	DryRun  int
	Failed  int
}

// Run processes paths. A failing image never stops the batch; all failures
// are returned together.
func (b *Batch) Run(ctx context.Context, paths []string) (Summary, error) {
	var (
		mu   sync.Mutex
		sum  Summary
		errs []error
	)

	var g errgroup.Group
	g.SetLimit(max(1, b.Concurrency))

	for i, p := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			klog.Infof("[%d/%d] %s", i+1, len(paths), p)
			res, err := b.Process(ctx, p)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				klog.Errorf("%s: %v", p, err)
				sum.Failed++
				errs = append(errs, fmt.Errorf("%s: %w", p, err))
			case res.Skipped:
				sum.Skipped++
			case res.Written:
				sum.Written++
			case res.Fields.Empty():
				sum.Empty++
			default:
				sum.DryRun++
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return sum, errors.Join(errs...)
}
