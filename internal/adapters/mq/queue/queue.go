// Package queue holds pending result deliveries between the HTTP handlers
// and the delivery workers.
//
// The queue is bounded and in-memory; a full queue rejects new jobs instead
// of blocking the request that produced them.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/topsis/internal/domain/model"
	"github.com/okian/topsis/pkg/metrics"
)

const defaultQueueCapacity = 1_000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a delivery to the queue without blocking.
	// Returns ErrFull or ErrClosed when the job was not accepted.
	Enqueue(ctx context.Context, d model.Delivery) error

	// Dequeue returns a channel that receives deliveries as they become available.
	// The channel is closed when the queue is closed and drained, or ctx ends.
	Dequeue(ctx context.Context) <-chan model.Delivery

	// Len returns the current number of queued deliveries.
	Len() int

	// Cap returns the queue capacity.
	Cap() int

	// Close stops accepting deliveries. Already queued jobs remain readable.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan model.Delivery
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan model.Delivery, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a delivery to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, d model.Delivery) error { //nolint:gocritic // hugeParam: value semantics for channel send
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("enqueue %s: %w", d.JobID, err)
	}

	select {
	case q.jobs <- d:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive deliveries as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Delivery {
	out := make(chan model.Delivery)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-q.jobs:
				if !ok {
					return
				}
				metrics.RecordQueueDequeue()
				q.observe()
				select {
				case out <- d:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued deliveries.
func (q *InMemoryQueue) Len() int {
	return len(q.jobs)
}

// Cap returns the queue capacity.
func (q *InMemoryQueue) Cap() int {
	return q.capacity
}

// Close stops accepting new deliveries and lets consumers drain the rest.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observe() {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
