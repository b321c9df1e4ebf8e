// Package worker delivers queued results through a Sender.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/topsis/internal/domain/model"
	"github.com/okian/topsis/pkg/logger"
	"github.com/okian/topsis/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultMaxAttempts  = 3
	defaultBackoff      = time.Second
	poolShutdownTimeout = 30 * time.Second
)

// Sender transmits one delivery to its recipient.
type Sender interface {
	Send(ctx context.Context, d model.Delivery) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, d model.Delivery) error

// Send calls f(ctx, d).
func (f SenderFunc) Send(ctx context.Context, d model.Delivery) error { //nolint:gocritic // hugeParam: value semantics
	return f(ctx, d)
}

// Queue defines how workers receive deliveries.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Delivery
}

// Stats holds delivery counters shared by the workers of a pool.
type Stats struct {
	sent    atomic.Int64
	failed  atomic.Int64
	retried atomic.Int64
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Retried int64 `json:"retried"`
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{Sent: s.sent.Load(), Failed: s.failed.Load(), Retried: s.retried.Load()}
}

// InMemoryWorker sends deliveries read from a queue.
type InMemoryWorker struct {
	queue       Queue
	sender      Sender
	name        string
	maxAttempts int
	backoff     time.Duration
	stats       *Stats

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, sender Sender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:       q,
		sender:      sender,
		name:        "worker",
		maxAttempts: defaultMaxAttempts,
		backoff:     defaultBackoff,
		stats:       &Stats{},
		shutdown:    make(chan struct{}),
		done:        make(chan struct{}),
		logger:      logger.Get().Named("delivery"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run consumes deliveries until the queue is drained and closed, ctx ends
// or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case d, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.deliver(ctx, d); err != nil {
				w.logger.Error(ctx, "delivery abandoned",
					logger.String("job_id", d.JobID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker after the delivery in progress, if any.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// deliver sends d with up to maxAttempts tries and a linear backoff.
func (w *InMemoryWorker) deliver(ctx context.Context, d model.Delivery) error { //nolint:gocritic // hugeParam: value semantics
	start := time.Now()

	var err error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if err = w.sender.Send(ctx, d); err == nil {
			w.stats.sent.Add(1)
			metrics.RecordDeliverySent(float64(time.Since(start).Milliseconds()))
			w.logger.Info(ctx, "result delivered",
				logger.String("job_id", d.JobID),
				logger.Int("attempt", attempt),
			)
			return nil
		}
		if errors.Is(err, ErrPermanent) || attempt == w.maxAttempts {
			break
		}

		w.stats.retried.Add(1)
		metrics.RecordDeliveryRetry()
		w.logger.Warn(ctx, "delivery attempt failed",
			logger.String("job_id", d.JobID),
			logger.Int("attempt", attempt),
			logger.Error(err),
		)
		if werr := w.wait(ctx, time.Duration(attempt)*w.backoff); werr != nil {
			err = errors.Join(err, werr)
			break
		}
	}

	w.stats.failed.Add(1)
	metrics.RecordDeliveryFailed()
	metrics.RecordErrorByComponent("worker", "delivery_failed")
	return fmt.Errorf("deliver %s: %w", d.JobID, err)
}

func (w *InMemoryWorker) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.shutdown:
		return ErrStopped
	}
}

// Pool manages multiple workers reading the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	stats   *Stats
	logger  logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewPool creates a new worker pool. Options apply to every worker.
func NewPool(workerCount int, q Queue, sender Sender, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		stats:   &Stats{},
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		workerOpts = append(workerOpts, withStats(pool.stats))
		pool.workers[i] = NewInMemoryWorker(q, sender, workerOpts...)
	}

	return pool
}

// Start starts all workers in the pool. They run on a child of ctx that
// Shutdown cancels once the workers are done or have been stopped.
func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Stats returns the pool-wide delivery counters.
func (p *Pool) Stats() Snapshot {
	return p.stats.Snapshot()
}

// Shutdown closes the queue, lets workers drain it and waits for them.
// Workers still running when ctx (or the pool timeout) ends are stopped.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			w.shutdownOnce.Do(func() { close(w.shutdown) })
		}
	}
	// Releases queue readers still blocked handing over a delivery.
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
	metrics.UpdateWorkerActiveCount(0)

	if timedOut {
		return fmt.Errorf("%w: %w", ErrStopped, shutdownCtx.Err())
	}
	return nil
}
