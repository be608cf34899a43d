package eval

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/receipts-eval/internal/common"
	"github.com/joseph-ayodele/receipts-eval/internal/dataset"
)

// DocumentProcessor predicts one data point.
type DocumentProcessor interface {
	Process(ctx context.Context, dp dataset.DataPoint) (Prediction, error)
}

// Evaluator fans data points out over a bounded set of goroutines.
type Evaluator struct {
	proc        DocumentProcessor
	logger      *slog.Logger
	concurrency int
	timeout     time.Duration
	failFast    bool
}

type Option func(*Evaluator)

func WithConcurrency(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithDocumentTimeout bounds each document's processing.
func WithDocumentTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithFailFast makes the first failed document abort the run. Otherwise
// failures are kept on the returned predictions.
func WithFailFast(on bool) Option {
	return func(e *Evaluator) { e.failFast = on }
}

func NewEvaluator(proc DocumentProcessor, logger *slog.Logger, opts ...Option) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Evaluator{
		proc:        proc,
		logger:      logger,
		concurrency: 16,
		timeout:     2 * time.Minute,
		failFast:    true,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Run processes every point and returns predictions in input order.
func (e *Evaluator) Run(ctx context.Context, points []dataset.DataPoint) ([]Prediction, error) {
	log := common.LoggerFrom(ctx, e.logger)
	start := time.Now()
	log.Info("evaluator.run.start", "documents", len(points), "concurrency", e.concurrency, "fail_fast", e.failFast)

	results := make([]Prediction, len(points))
	var done, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, dp := range points {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dctx, cancel := context.WithTimeout(gctx, e.timeout)
			defer cancel()

			pred, err := e.proc.Process(dctx, dp)
			if err != nil {
				failed.Add(1)
				if e.failFast {
					return fmt.Errorf("process %s: %w", dp, err)
				}
				log.Warn("evaluator.document.failed", "data_point", dp.String(), "error", err)
				results[i] = Prediction{DataPoint: dp, Err: err}
				return nil
			}
			results[i] = pred
			log.Debug("evaluator.document.ok", "data_point", dp.String(), "progress", done.Add(1), "total", len(points))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("evaluator.run.aborted", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	log.Info("evaluator.run.ok",
		"documents", len(points),
		"failed", failed.Load(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return results, nil
}
