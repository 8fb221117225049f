// Package worker drains the recompute queue in deferred mode: each scope is
// re-ranked in the primary store and the sorted-read cache is refreshed.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/quizrush/quizrush/pkg/logger"
	"github.com/quizrush/quizrush/pkg/metrics"
)

const workerShutdownTimeout = 5 * time.Second

// Recomputer reassigns dense ranks for one scope in the primary store.
type Recomputer interface {
	RecomputeRanks(ctx context.Context, scope string) (int, error)
}

// Refresher reloads the sorted-read projection for one scope.
type Refresher interface {
	Refresh(ctx context.Context, scope string) error
}

// Queue defines how workers receive scopes.
type Queue interface {
	Dequeue(ctx context.Context) <-chan string
}

// Worker processes recompute requests until stopped.
type Worker struct {
	queue      Queue
	recomputer Recomputer
	refresher  Refresher
	name       string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewWorker creates a worker with configuration options.
func NewWorker(queue Queue, recomputer Recomputer, refresher Refresher, opts ...Option) *Worker {
	w := &Worker{
		queue:      queue,
		recomputer: recomputer,
		refresher:  refresher,
		name:       "recompute-worker",
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes scopes until ctx is canceled or Shutdown is called.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	scopes := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case scope, ok := <-scopes:
			if !ok {
				return
			}
			if err := w.process(ctx, scope); err != nil {
				metrics.RecordWorkerError()
				w.logger.Error(ctx, "recompute failed",
					logger.String("scope", scope),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker, waiting for the in-flight scope to finish.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker shutdown timed out: %w", ctx.Err())
	}
}

func (w *Worker) process(ctx context.Context, scope string) error {
	start := time.Now()

	n, err := w.recomputer.RecomputeRanks(ctx, scope)
	metrics.RecordRankRecomputeLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordRankRecomputeError()
		// The previous materialized ranking stays in effect; the scope will
		// be retried on the next sweep.
		return fmt.Errorf("recompute ranks for %s: %w", scope, err)
	}
	metrics.RecordRankRecompute("deferred")

	if err := w.refresher.Refresh(ctx, scope); err != nil {
		return fmt.Errorf("refresh cache for %s: %w", scope, err)
	}

	w.logger.Debug(ctx, "scope re-ranked",
		logger.String("scope", scope),
		logger.Int("participants", n),
	)
	return nil
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*Worker
	logger  logger.Logger
}

// NewPool creates workerCount workers sharing the queue.
func NewPool(workerCount int, queue Queue, recomputer Recomputer, refresher Refresher) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	p := &Pool{
		workers: make([]*Worker, workerCount),
		logger:  logger.Get().Named("recompute-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewWorker(queue, recomputer, refresher,
			WithName(fmt.Sprintf("recompute-worker-%d", i)))
	}
	return p
}

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop signals all workers and waits briefly for each to finish.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), workerShutdownTimeout)
	defer cancel()
	for _, w := range p.workers {
		if err := w.Shutdown(ctx); err != nil {
			p.logger.Warn(ctx, "worker did not stop in time",
				logger.String("worker", w.name))
		}
	}
}
