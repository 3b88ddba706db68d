package scene

import "sync"

// mailbox holds at most one value. A put replaces whatever the reader has
// not taken yet, so the reader always sees the latest value.
type mailbox[T any] struct {
	ch chan T
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{ch: make(chan T, 1)}
}

// put stores v, discarding a pending value. It never blocks as long as
// there is a single writer.
func (m *mailbox[T]) put(v T) {
	for {
		select {
		case m.ch <- v:
			return
		default:
		}
		select {
		case <-m.ch:
		default:
		}
	}
}

// take returns the pending value without blocking.
func (m *mailbox[T]) take() (T, bool) {
	select {
	case v := <-m.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// queue keeps every value in arrival order until the reader drains it. When
// the reader falls more than limit values behind, the oldest are dropped and
// the next drain reports the gap.
type queue[T any] struct {
	mu      sync.Mutex
	items   []T
	limit   int
	dropped bool
}

func newQueue[T any](limit int) *queue[T] {
	return &queue[T]{limit: limit}
}

func (q *queue[T]) push(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == q.limit {
		q.items = append(q.items[:0], q.items[1:]...)
		q.dropped = true
	}
	q.items = append(q.items, v)
}

// drain returns the pending values, oldest first, and whether any were
// dropped since the previous drain.
func (q *queue[T]) drain() ([]T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, dropped := q.items, q.dropped
	q.items, q.dropped = nil, false
	return items, dropped
}
