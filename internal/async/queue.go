// Package async runs jobs on a fixed set of worker goroutines.
package async

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Handler processes one job.
type Handler[T any] func(ctx context.Context, job T) error

// Queue feeds submitted jobs to its workers until Shutdown.
type Queue[T any] struct {
	handle  Handler[T]
	logger  *slog.Logger
	workers int
	timeout time.Duration
	name    func(T) string

	ch   chan T
	wg   sync.WaitGroup
	once sync.Once

	// jobs run under ctx; Shutdown cancels it when its own context ends first
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool

	succeeded atomic.Int64
	failed    atomic.Int64
}

type Option func(*options)

type options struct {
	workers   int
	queueSize int
	timeout   time.Duration
}

func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// New starts the workers. name renders a job for logs.
func New[T any](handle Handler[T], name func(T) string, logger *slog.Logger, opts ...Option) *Queue[T] {
	o := options{workers: 4, queueSize: 256, timeout: 3 * time.Minute}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue[T]{
		ctx:     ctx,
		cancel:  cancel,
		handle:  handle,
		logger:  logger,
		workers: o.workers,
		timeout: o.timeout,
		name:    name,
		ch:      make(chan T, o.queueSize),
	}
	q.start()
	return q
}

func (q *Queue[T]) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
					err := q.handle(ctx, job)
					cancel()

					if err != nil {
						q.failed.Add(1)
						q.logger.Error("job failed", "worker_id", workerID, "job", q.name(job), "error", err)
					} else {
						q.succeeded.Add(1)
						q.logger.Info("job done", "worker_id", workerID, "job", q.name(job))
					}
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue blocks while the buffer is full. It returns false once the queue
// is shutting down.
func (q *Queue[T]) Enqueue(ctx context.Context, job T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job", q.name(job))
		return false
	}
	select {
	case q.ch <- job:
		return true
	default:
	}
	q.logger.Debug("queue full, applying backpressure", "job", q.name(job))
	select {
	case q.ch <- job:
		return true
	case <-ctx.Done():
		return false
	}
}

// Shutdown stops intake and waits for queued jobs. If ctx ends first, running
// and remaining jobs are canceled and Shutdown returns once the workers exit.
func (q *Queue[T]) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context, canceling jobs")
		q.cancel()
		<-done
	case <-done:
		q.logger.Info("queue drained, shutdown complete", "succeeded", q.succeeded.Load(), "failed", q.failed.Load())
	}
	q.cancel()
}

// Counts reports finished jobs so far.
func (q *Queue[T]) Counts() (succeeded, failed int64) {
	return q.succeeded.Load(), q.failed.Load()
}
