package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/topsis/internal/adapters/mq/queue"
	"github.com/okian/topsis/internal/adapters/mq/worker"
	"github.com/okian/topsis/internal/domain/model"
	logging "github.com/okian/topsis/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// mockSender records deliveries and fails a job a configured number of times.
type mockSender struct {
	mu        sync.Mutex
	sent      map[string]int
	attempts  map[string]int
	failures  map[string]int
	permanent map[string]bool
}

func newMockSender() *mockSender {
	return &mockSender{
		sent:      make(map[string]int),
		attempts:  make(map[string]int),
		failures:  make(map[string]int),
		permanent: make(map[string]bool),
	}
}

func (s *mockSender) Send(_ context.Context, d model.Delivery) error { //nolint:gocritic // hugeParam: value semantics
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[d.JobID]++
	if s.permanent[d.JobID] {
		return worker.Permanent(errors.New("mailbox unavailable"))
	}
	if s.failures[d.JobID] > 0 {
		s.failures[d.JobID]--
		return errors.New("temporary failure")
	}
	s.sent[d.JobID]++
	return nil
}

func (s *mockSender) failTimes(jobID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[jobID] = n
}

func (s *mockSender) failPermanently(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permanent[jobID] = true
}

func (s *mockSender) sentCount(jobID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[jobID]
}

func (s *mockSender) attemptCount(jobID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[jobID]
}

func job(id string) model.Delivery {
	return model.Delivery{JobID: id, Recipient: "user@example.com", Filename: "result.csv", Attachment: []byte("x\n")}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading a queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		sender := newMockSender()
		w := worker.NewInMemoryWorker(q, sender,
			worker.WithName("test-worker"),
			worker.WithMaxAttempts(3),
			worker.WithBackoff(time.Millisecond),
		)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		go w.Run(ctx)

		convey.Convey("When a delivery succeeds on the first attempt", func() {
			convey.So(q.Enqueue(ctx, job("ok")), convey.ShouldBeNil)
			_ = q.Close()
			<-w.Done()

			convey.Convey("Then it should be sent once", func() {
				convey.So(sender.sentCount("ok"), convey.ShouldEqual, 1)
				convey.So(sender.attemptCount("ok"), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When a delivery fails transiently", func() {
			sender.failTimes("flaky", 2)
			convey.So(q.Enqueue(ctx, job("flaky")), convey.ShouldBeNil)
			_ = q.Close()
			<-w.Done()

			convey.Convey("Then it should be retried until it succeeds", func() {
				convey.So(sender.sentCount("flaky"), convey.ShouldEqual, 1)
				convey.So(sender.attemptCount("flaky"), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When a delivery keeps failing", func() {
			sender.failTimes("broken", 10)
			convey.So(q.Enqueue(ctx, job("broken")), convey.ShouldBeNil)
			_ = q.Close()
			<-w.Done()

			convey.Convey("Then it should stop after the attempt limit", func() {
				convey.So(sender.sentCount("broken"), convey.ShouldEqual, 0)
				convey.So(sender.attemptCount("broken"), convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When a delivery fails permanently", func() {
			sender.failPermanently("bounced")
			convey.So(q.Enqueue(ctx, job("bounced")), convey.ShouldBeNil)
			_ = q.Close()
			<-w.Done()

			convey.Convey("Then it should not be retried", func() {
				convey.So(sender.attemptCount("bounced"), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When shutting down an idle worker", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then it should stop gracefully and tolerate a second call", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the context is cancelled", func() {
			cancel()

			convey.Convey("Then the worker should stop", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					convey.So("worker still running", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(200))
		sender := newMockSender()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, sender)

			convey.Convey("Then it should fall back to a default size", func() {
				convey.So(pool.Size(), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When processing many concurrent deliveries", func() {
			pool := worker.NewPool(4, q, sender, worker.WithBackoff(time.Millisecond))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			const total = 100
			var wg sync.WaitGroup
			for i := 0; i < 5; i++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					for j := 0; j < total/5; j++ {
						id := fmt.Sprintf("job-%d-%d", p, j)
						if j%10 == 0 {
							sender.failTimes(id, 1)
						}
						for q.Enqueue(ctx, job(id)) != nil {
							time.Sleep(time.Millisecond)
						}
					}
				}(i)
			}
			wg.Wait()

			err := pool.Shutdown(context.Background())

			convey.Convey("Then every job should be delivered before shutdown returns", func() {
				convey.So(err, convey.ShouldBeNil)
				stats := pool.Stats()
				convey.So(stats.Sent, convey.ShouldEqual, total)
				convey.So(stats.Failed, convey.ShouldEqual, 0)
				convey.So(stats.Retried, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When a delivery exhausts its attempts", func() {
			pool := worker.NewPool(1, q, sender, worker.WithMaxAttempts(2), worker.WithBackoff(0))
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			pool.Start(ctx)

			sender.failTimes("lost", 5)
			convey.So(q.Enqueue(ctx, job("lost")), convey.ShouldBeNil)
			convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then it should be counted as failed", func() {
				stats := pool.Stats()
				convey.So(stats.Failed, convey.ShouldEqual, 1)
				convey.So(stats.Retried, convey.ShouldEqual, 1)
				convey.So(sender.attemptCount("lost"), convey.ShouldEqual, 2)
			})
		})
	})
}

// stuckSender blocks every send until its context ends.
type stuckSender struct {
	started chan struct{}
}

func (s *stuckSender) Send(ctx context.Context, _ model.Delivery) error { //nolint:gocritic // hugeParam: value semantics
	select {
	case s.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

// recordingQueue remembers the context its reader was started with.
type recordingQueue struct {
	*queue.InMemoryQueue

	mu  sync.Mutex
	ctx context.Context
}

func (q *recordingQueue) Dequeue(ctx context.Context) <-chan model.Delivery {
	q.mu.Lock()
	q.ctx = ctx
	q.mu.Unlock()
	return q.InMemoryQueue.Dequeue(ctx)
}

func (q *recordingQueue) readerCtx() context.Context {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ctx
}

func TestWorkerPoolShutdownTimeout(t *testing.T) {
	convey.Convey("Given a pool whose only worker is stuck sending", t, func() {
		_ = logging.Init()

		q := &recordingQueue{InMemoryQueue: queue.NewInMemoryQueue(queue.WithCapacity(4))}
		sender := &stuckSender{started: make(chan struct{}, 1)}
		pool := worker.NewPool(1, q, sender, worker.WithMaxAttempts(1))

		ctx := context.Background()
		convey.So(q.Enqueue(ctx, job("stuck")), convey.ShouldBeNil)
		convey.So(q.Enqueue(ctx, job("waiting")), convey.ShouldBeNil)
		pool.Start(ctx)
		<-sender.started

		convey.Convey("When shutdown runs out of time", func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			err := pool.Shutdown(shutdownCtx)

			convey.Convey("Then the queue reader's context should be cancelled too", func() {
				convey.So(errors.Is(err, worker.ErrStopped), convey.ShouldBeTrue)
				readerCtx := q.readerCtx()
				convey.So(readerCtx, convey.ShouldNotBeNil)
				convey.So(errors.Is(readerCtx.Err(), context.Canceled), convey.ShouldBeTrue)
			})
		})
	})
}

func TestPermanent(t *testing.T) {
	convey.Convey("Given a send error", t, func() {
		base := errors.New("550 no such user")

		convey.Convey("When marked permanent", func() {
			err := worker.Permanent(base)

			convey.Convey("Then it should match both the marker and the cause", func() {
				convey.So(errors.Is(err, worker.ErrPermanent), convey.ShouldBeTrue)
				convey.So(errors.Is(err, base), convey.ShouldBeTrue)
				convey.So(worker.Permanent(nil), convey.ShouldBeNil)
			})
		})
	})
}
