package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/topsis/internal/domain/model"
)

func delivery(id string) model.Delivery {
	return model.Delivery{
		JobID:      id,
		Recipient:  "user@example.com",
		Filename:   "result.csv",
		Attachment: []byte("a,b,c\n"),
		CreatedAt:  time.Now(),
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Cap(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}

	if err := q.Enqueue(ctx, delivery("job1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	d := <-q.Dequeue(ctx)
	if d.JobID != "job1" {
		t.Errorf("expected job1, got %v", d.JobID)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if err := q.Enqueue(ctx, delivery("job1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if err := q.Enqueue(ctx, delivery("job2")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}

	if err := q.Enqueue(ctx, delivery("job3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull when full, got %v", err)
	}
	if l := q.Len(); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, delivery("job1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if l := q.Len(); l != 0 {
		t.Errorf("expected nothing queued, got %d", l)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(16))
	ctx := context.Background()
	producers := 8
	perProducer := 50

	var consumed sync.Map
	var consumers sync.WaitGroup
	for i := 0; i < 4; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for d := range q.Dequeue(ctx) {
				consumed.Store(d.JobID, true)
			}
		}()
	}

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				d := delivery(fmt.Sprintf("job%d_%d", id, j))
				for q.Enqueue(ctx, d) != nil {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}
	wg.Wait()

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	consumers.Wait()

	count := 0
	consumed.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count != producers*perProducer {
		t.Errorf("expected %d consumed deliveries, got %d", producers*perProducer, count)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if err := q.Enqueue(ctx, delivery("job1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	if err := q.Enqueue(ctx, delivery("job2")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after closing, got %v", err)
	}

	// Jobs queued before Close are still delivered, then the channel closes.
	ch := q.Dequeue(ctx)
	var got []string
	timeout := time.After(time.Second)
	for done := false; !done; {
		select {
		case d, ok := <-ch:
			if !ok {
				done = true
				break
			}
			got = append(got, d.JobID)
		case <-timeout:
			t.Fatal("expected dequeue channel to be closed within timeout")
		}
	}
	if len(got) != 1 || got[0] != "job1" {
		t.Errorf("expected drained [job1], got %v", got)
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
