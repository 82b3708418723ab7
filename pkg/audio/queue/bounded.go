// ABOUTME: Generic bounded SPSC queue
// ABOUTME: Ring buffer guarded by a mutex with space/data signals and cancellation
package queue

import (
	"context"
	"sync"
)

// Bounded is a fixed-capacity FIFO for one producer and one consumer.
// Len never exceeds Cap.
type Bounded[T any] struct {
	mu     sync.Mutex
	items  []T
	head   int
	count  int
	closed bool

	// signals are buffered with capacity 1 so a notification sent while
	// nobody waits is kept for the next waiter
	notFull  chan struct{}
	notEmpty chan struct{}

	done       chan struct{}
	cancel     chan struct{}
	closeOnce  sync.Once
	cancelOnce sync.Once
}

// New creates a queue holding at most capacity items
func New[T any](capacity int) *Bounded[T] {
	if capacity <= 0 {
		panic("queue: capacity must be positive")
	}
	return &Bounded[T]{
		items:    make([]T, capacity),
		notFull:  make(chan struct{}, 1),
		notEmpty: make(chan struct{}, 1),
		done:     make(chan struct{}),
		cancel:   make(chan struct{}),
	}
}

// Cap returns the queue capacity
func (q *Bounded[T]) Cap() int {
	return len(q.items)
}

// Len returns the number of queued items
func (q *Bounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Push appends items in order, waiting for space whenever the queue is full.
// It returns the number of items enqueued and false if Cancel was called
// before all of them fit.
func (q *Bounded[T]) Push(items []T) (int, bool) {
	pushed := 0
	for pushed < len(items) {
		if q.Cancelled() {
			return pushed, false
		}

		q.mu.Lock()
		for q.count == len(q.items) {
			q.mu.Unlock()
			select {
			case <-q.notFull:
			case <-q.cancel:
				return pushed, false
			}
			if q.Cancelled() {
				return pushed, false
			}
			q.mu.Lock()
		}

		for pushed < len(items) && q.count < len(q.items) {
			q.items[(q.head+q.count)%len(q.items)] = items[pushed]
			q.count++
			pushed++
		}
		q.mu.Unlock()
		signal(q.notEmpty)
	}
	return pushed, true
}

// Pop removes up to n items. See PopInto for the blocking rules.
func (q *Bounded[T]) Pop(ctx context.Context, n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	out := make([]T, n)
	got, err := q.PopInto(ctx, out)
	return out[:got], err
}

// PopInto fills dst from the queue. While the queue is empty it waits for
// data unless Close was called, in which case it returns what it has. If ctx
// ends first the items collected so far are returned with ctx.Err().
func (q *Bounded[T]) PopInto(ctx context.Context, dst []T) (int, error) {
	var (
		n      int
		err    error
		popped bool
		zero   T
	)

	q.mu.Lock()
fill:
	for n < len(dst) {
		for q.count == 0 {
			if q.closed {
				break fill
			}
			q.mu.Unlock()
			if popped {
				signal(q.notFull)
				popped = false
			}
			select {
			case <-q.notEmpty:
			case <-q.done:
			case <-ctx.Done():
				q.mu.Lock()
				err = ctx.Err()
				break fill
			}
			q.mu.Lock()
		}

		for n < len(dst) && q.count > 0 {
			dst[n] = q.items[q.head]
			q.items[q.head] = zero
			q.head = (q.head + 1) % len(q.items)
			q.count--
			n++
		}
		popped = true
	}
	q.mu.Unlock()

	// wake the producer even if the last pass removed nothing
	signal(q.notFull)
	return n, err
}

// Close marks the end of production. Queued items remain poppable.
func (q *Bounded[T]) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
		close(q.done)
	})
}

// Closed reports whether Close was called
func (q *Bounded[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Cancel releases a producer blocked in Push and makes later pushes fail
func (q *Bounded[T]) Cancel() {
	q.cancelOnce.Do(func() {
		close(q.cancel)
	})
}

// Cancelled reports whether Cancel was called
func (q *Bounded[T]) Cancelled() bool {
	select {
	case <-q.cancel:
		return true
	default:
		return false
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
