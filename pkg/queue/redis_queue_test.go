package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestQueue(t *testing.T, maxRetries int) *RedisDeliveryQueue {
	t.Helper()
	mr := miniredis.RunT(t)
	q, err := NewRedisDeliveryQueue(RedisQueueConfig{
		Addr:       mr.Addr(),
		Stream:     "test:notify",
		Group:      "workers",
		Consumer:   "test",
		MaxRetries: maxRetries,
		Block:      50 * time.Millisecond,
		RetryDelay: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	return q
}

func waitForStatus(t *testing.T, q *RedisDeliveryQueue, jobID, want string) Delivery {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, ok, err := q.GetDelivery(context.Background(), jobID)
		if err != nil {
			t.Fatalf("get delivery: %v", err)
		}
		if ok && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return Delivery{}
}

func TestEnqueueRecordsQueuedJob(t *testing.T) {
	q := newTestQueue(t, 3)

	job, err := q.Enqueue(context.Background(), "notif-1")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if job.Status != StatusQueued || job.NotificationID != "notif-1" {
		t.Fatalf("unexpected job: %+v", job)
	}

	stored, ok, err := q.GetDelivery(context.Background(), job.ID)
	if err != nil || !ok {
		t.Fatalf("get delivery: ok=%v err=%v", ok, err)
	}
	if stored.Status != StatusQueued {
		t.Fatalf("stored status = %s", stored.Status)
	}
}

func TestEnqueueRejectsEmptyNotification(t *testing.T) {
	q := newTestQueue(t, 3)
	if _, err := q.Enqueue(context.Background(), "  "); err == nil {
		t.Fatalf("blank notification id should be rejected")
	}
}

func TestConsumerDeliversJob(t *testing.T) {
	q := newTestQueue(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Delivery, 1)
	q.Start(ctx, 1, func(_ context.Context, d Delivery) error {
		got <- d
		return nil
	})
	// The consumer group reads from "$": enqueue after Start.
	time.Sleep(50 * time.Millisecond)

	job, err := q.Enqueue(ctx, "notif-2")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case d := <-got:
		if d.NotificationID != "notif-2" {
			t.Fatalf("handler saw %q", d.NotificationID)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("handler never called")
	}
	waitForStatus(t, q, job.ID, StatusDelivered)
}

func TestConsumerRetriesThenFails(t *testing.T) {
	q := newTestQueue(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan struct{}, 8)
	q.Start(ctx, 1, func(context.Context, Delivery) error {
		calls <- struct{}{}
		return errors.New("push channel down")
	})
	time.Sleep(50 * time.Millisecond)

	job, err := q.Enqueue(ctx, "notif-3")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	failed := waitForStatus(t, q, job.ID, StatusFailed)
	if failed.Attempts < 2 {
		t.Fatalf("expected at least 2 attempts, got %d", failed.Attempts)
	}
	if failed.ErrorMessage == "" {
		t.Fatalf("failure should record the handler error")
	}
	if len(calls) < 2 {
		t.Fatalf("handler should have been retried")
	}
}
