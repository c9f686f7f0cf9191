package preview

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/maruel/mdtree/internal/storage/tree"
)

// BatchOptions configures Batch.
type BatchOptions struct {
	Format Format
	// Workers bounds concurrent generations. 0 means GOMAXPROCS.
	Workers int
}

// BatchFailure is a document that could not be generated.
type BatchFailure struct {
	Path string
	Err  error
}

// BatchReport summarizes a Batch run.
type BatchReport struct {
	Generated int
	Skipped   int
	Failures  []BatchFailure
	Duration  time.Duration
}

// Batch refreshes index and generates the artifact of every document in it.
// Per-document failures are collected in the report; only a failed index
// refresh or a canceled context aborts the run.
func Batch(ctx context.Context, index *tree.Index, gen *Generator, opts BatchOptions) (*BatchReport, error) {
	start := time.Now()
	if err := index.Refresh(ctx); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	report := &BatchReport{}
	var mu sync.Mutex
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for _, doc := range index.Documents() {
		if gctx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ref, err := gen.GenerateFile(gctx, doc.RelativePath, opts.Format)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				slog.WarnContext(ctx, "Failed to generate preview", "path", doc.RelativePath, "err", err)
				report.Failures = append(report.Failures, BatchFailure{Path: doc.RelativePath, Err: err})
			case ref.Skipped:
				report.Skipped++
			default:
				report.Generated++
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	report.Duration = time.Since(start)
	return report, nil
}
