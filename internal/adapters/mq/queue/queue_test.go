package queue

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryQueue_EnqueueDequeue(t *testing.T) {
	ctx := context.Background()
	q := NewInMemoryQueue(WithCapacity(8))
	defer q.Close()

	if !q.Enqueue(ctx, "global") {
		t.Fatal("expected enqueue to succeed")
	}
	if !q.Enqueue(ctx, "history") {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Len(ctx) != 2 {
		t.Errorf("expected length 2, got %d", q.Len(ctx))
	}

	out := q.Dequeue(ctx)
	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case scope := <-out:
			got[scope] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for scope")
		}
	}
	if !got["global"] || !got["history"] {
		t.Errorf("expected both scopes delivered, got %v", got)
	}
}

func TestInMemoryQueue_Coalescing(t *testing.T) {
	ctx := context.Background()
	q := NewInMemoryQueue(WithCapacity(8))
	defer q.Close()

	// A burst of submissions in one scope costs one recompute request.
	for i := 0; i < 5; i++ {
		if !q.Enqueue(ctx, "global") {
			t.Fatalf("enqueue %d: expected success", i)
		}
	}
	if q.Len(ctx) != 1 {
		t.Errorf("expected length 1 after coalescing, got %d", q.Len(ctx))
	}

	out := q.Dequeue(ctx)
	select {
	case scope := <-out:
		if scope != "global" {
			t.Errorf("expected global, got %s", scope)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for scope")
	}

	// Once delivered, the scope may be queued again.
	if !q.Enqueue(ctx, "global") {
		t.Error("expected re-enqueue after delivery to succeed")
	}
}

func TestInMemoryQueue_Backpressure(t *testing.T) {
	ctx := context.Background()
	q := NewInMemoryQueue(WithCapacity(2))
	defer q.Close()

	if !q.Enqueue(ctx, "a") || !q.Enqueue(ctx, "b") {
		t.Fatal("expected enqueues within capacity to succeed")
	}
	if q.Enqueue(ctx, "c") {
		t.Error("expected enqueue past capacity to fail")
	}
	// A full queue still reports success for an already-pending scope.
	if !q.Enqueue(ctx, "a") {
		t.Error("expected pending scope to coalesce even when full")
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	ctx := context.Background()
	q := NewInMemoryQueue(WithCapacity(4))

	if !q.Enqueue(ctx, "global") {
		t.Fatal("expected enqueue to succeed")
	}
	if err := q.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("expected second close to be a no-op, got %v", err)
	}
	if q.Enqueue(ctx, "history") {
		t.Error("expected enqueue after close to fail")
	}

	// Pending scopes drain, then the channel closes.
	out := q.Dequeue(ctx)
	select {
	case scope := <-out:
		if scope != "global" {
			t.Errorf("expected global, got %s", scope)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out draining pending scope")
	}
	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected channel to close after drain")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
