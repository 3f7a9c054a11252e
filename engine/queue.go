package engine

import "sync"

// Queue is a thread-safe FIFO handing values from one goroutine to another.
//
// With capacity 0 the queue is unbounded. With a positive capacity a full queue
// discards its oldest entry on Enqueue so the producer never blocks.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	dropped  uint64
}

// NewQueue creates an empty queue. capacity <= 0 means unbounded.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue[T]{
		items:    make([]T, 0, 16),
		capacity: capacity,
	}
}

// Enqueue appends v. It reports whether an older entry had to be dropped.
func (q *Queue[T]) Enqueue(v T) (dropped bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.capacity > 0 && len(q.items) >= q.capacity {
		var zero T
		q.items[0] = zero
		q.items = q.items[1:]
		q.dropped++
		dropped = true
	}

	q.items = append(q.items, v)
	return dropped
}

// TryDequeue removes and returns the front value without blocking.
// ok is false when the queue is empty.
func (q *Queue[T]) TryDequeue() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return v, false
	}

	v = q.items[0]

	// release the slot so the backing array does not pin old values
	var zero T
	q.items[0] = zero

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return v, true
}

// Len returns the number of queued values.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}

// Dropped returns how many values were discarded because the queue was full.
func (q *Queue[T]) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.dropped
}

// Clear discards every queued value and returns how many were removed.
func (q *Queue[T]) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items)
	q.items = make([]T, 0, 16)
	return n
}
