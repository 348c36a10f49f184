package console

import (
	"context"
	"sync"
)

// fifo is an unbounded multi-producer queue with a single consumer in
// practice. push never blocks and never drops. A monotonic push counter
// lets waiters demand a push that happens after a snapshot they took,
// independent of concurrent pops.
type fifo[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	pushes uint64
	closed bool
}

func newFIFO[T any]() *fifo[T] {
	q := &fifo[T]{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends v and wakes waiters. After close it is a no-op.
func (q *fifo[T]) push(v T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, v)
	q.pushes++
	q.cond.Broadcast()
}

// pop removes and returns the oldest item, reporting whether one existed.
// Items stay poppable after close.
func (q *fifo[T]) pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return v, true
}

func (q *fifo[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// pushCount returns the number of pushes since creation. It only grows.
func (q *fifo[T]) pushCount() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushes
}

// wait blocks until the queue is non-empty, closed, or ctx is done. It
// reports whether an item is available.
func (q *fifo[T]) wait(ctx context.Context) bool {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed && ctx.Err() == nil {
		q.cond.Wait()
	}
	return len(q.items) > 0
}

// waitPush blocks until the push counter exceeds since, the queue closes,
// or ctx is done. It reports whether a new push arrived. A concurrent pop
// cannot satisfy the wait; only a push past the snapshot does.
func (q *fifo[T]) waitPush(ctx context.Context, since uint64) bool {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.pushes <= since && !q.closed && ctx.Err() == nil {
		q.cond.Wait()
	}
	return q.pushes > since
}

// close marks the queue closed and wakes every waiter. Queued items remain
// poppable; further pushes are dropped.
func (q *fifo[T]) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

func (q *fifo[T]) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
