package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Common errors returned by the Queue
var (
	ErrQueueClosed = errors.New("task queue is closed")
)

// Queue is an unbounded FIFO queue with a blocking Pop. Producers never block;
// consumers wait until an item arrives, the queue is closed, or their context ends.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	ready  chan struct{}
	done   chan struct{}
	closed bool
	logger *slog.Logger
}

// NewQueue creates an empty queue
func NewQueue[T any](logger *slog.Logger) *Queue[T] {
	if logger == nil {
		logger = slog.Default()
	}

	return &Queue[T]{
		items:  make([]T, 0),
		ready:  make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Enqueue appends an item to the tail of the queue.
// Returns ErrQueueClosed once Close has been called.
func (q *Queue[T]) Enqueue(item T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, item)
	queueLen := len(q.items)
	q.mu.Unlock()

	q.signal()

	q.logger.Debug("task enqueued", "queue_len", queueLen)
	return nil
}

// Pop removes and returns the head of the queue, blocking while the queue is empty.
// The second result is false when the queue was closed or ctx was cancelled.
func (q *Queue[T]) Pop(ctx context.Context) (T, bool) {
	var zero T

	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return zero, false
		}
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = zero
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()

			// Wake another waiter if work is left over
			if remaining > 0 {
				q.signal()
			}
			return item, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, false
		case <-q.done:
			return zero, false
		case <-q.ready:
		}
	}
}

// Drain discards every queued item and returns how many were removed.
// Items already handed out by Pop are unaffected.
func (q *Queue[T]) Drain() int {
	q.mu.Lock()
	n := len(q.items)
	q.items = make([]T, 0)
	q.mu.Unlock()

	if n > 0 {
		q.logger.Debug("task queue drained", "dropped", n)
	}
	return n
}

// Len returns the number of queued items
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close closes the queue, preventing further submission and releasing blocked consumers.
// Queued items are discarded. Calling Close more than once is safe.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.items = nil
	close(q.done)
	q.logger.Debug("task queue closed")
}

func (q *Queue[T]) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
