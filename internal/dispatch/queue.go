package dispatch

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
)

// Queue is an unbounded FIFO shared by all workers. Enqueue never blocks and
// applies no backpressure to producers; bounding the queue is a future rate
// limiting point. Dequeue blocks while the queue is empty.
type Queue[T any] struct {
	mu    sync.Mutex
	items deque.Deque[T]
	ready chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

// Enqueue appends item to the tail of the queue and wakes one blocked
// consumer, if any.
func (q *Queue[T]) Enqueue(item T) {
	q.mu.Lock()
	q.items.PushBack(item)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Dequeue removes and returns the oldest item, blocking while the queue is
// empty until an item arrives or ctx ends. Multiple consumers race for the
// head; each item is delivered to exactly one of them.
func (q *Queue[T]) Dequeue(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if q.items.Len() > 0 {
			item := q.items.PopFront()
			remaining := q.items.Len()
			q.mu.Unlock()

			// The wake signal is a single token; if items remain, pass it on
			// so another parked consumer gets a turn.
			if remaining > 0 {
				select {
				case q.ready <- struct{}{}:
				default:
				}
			}
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of items currently queued.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
