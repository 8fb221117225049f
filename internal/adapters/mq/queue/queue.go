// Package queue holds the bounded in-memory queue of scopes awaiting a
// deferred rank recomputation.
//
// Enqueue coalesces: a scope already waiting is not queued twice, so a burst
// of attempts in one category costs one recomputation, not one per attempt.
package queue

import (
	"context"
	"sync"

	"github.com/quizrush/quizrush/pkg/metrics"
)

const defaultCapacity = 1024

// Queue provides non-blocking enqueue and channel-based dequeue of scopes.
type Queue interface {
	// Enqueue marks a scope for recomputation. Returns false only when the
	// queue is full or closed; a scope already pending reports success.
	Enqueue(ctx context.Context, scope string) bool

	// Dequeue returns a channel yielding scopes as they become available.
	// The channel closes when the queue is closed.
	Dequeue(ctx context.Context) <-chan string

	// Len returns the number of scopes currently waiting.
	Len(ctx context.Context) int

	// Close stops the queue; pending scopes are still delivered.
	Close() error
}

// InMemoryQueue implements Queue with a buffered channel plus a pending set
// for coalescing.
type InMemoryQueue struct {
	scopes   chan string
	capacity int

	mu      sync.Mutex
	pending map[string]struct{}
	closed  bool
}

// NewInMemoryQueue creates a queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.scopes = make(chan string, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueDepth(0)
	return q
}

// Enqueue marks a scope for recomputation.
func (q *InMemoryQueue) Enqueue(ctx context.Context, scope string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if _, waiting := q.pending[scope]; waiting {
		return true // coalesced into the already-pending request
	}

	select {
	case q.scopes <- scope:
		q.pending[scope] = struct{}{}
		metrics.UpdateQueueDepth(len(q.scopes))
		return true
	default:
		return false // queue full
	}
}

// Dequeue returns a channel yielding scopes ready for recomputation.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		for scope := range q.scopes {
			q.mu.Lock()
			delete(q.pending, scope)
			metrics.UpdateQueueDepth(len(q.scopes))
			q.mu.Unlock()

			select {
			case out <- scope:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of scopes currently waiting.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	return len(q.scopes)
}

// Close stops the queue. Safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.scopes)
	q.closed = true
	return nil
}
