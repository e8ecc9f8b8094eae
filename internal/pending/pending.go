// Package pending holds the in-memory queue of mutations that failed their
// write-through attempt and await replay. The queue lives for the process
// lifetime only and is cleared on logout or spreadsheet switch; durability is
// an explicit non-goal.
package pending

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind is the kind of queued mutation.
type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Op is one queued mutation: the intended operation and the entity payload it
// applies to, stamped at enqueue time.
type Op[T any] struct {
	ID         string
	Kind       Kind
	Payload    T
	EnqueuedAt time.Time
}

// Queue is a FIFO of pending operations owned by exactly one entity service.
// Replay preserves enqueue order; there is no reordering, deduplication or
// coalescing. Safe for concurrent use.
type Queue[T any] struct {
	mu  sync.Mutex
	ops []Op[T]
	now func() time.Time
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{now: time.Now}
}

// NewQueueWithClock creates a queue with an injected clock. Test hook.
func NewQueueWithClock[T any](now func() time.Time) *Queue[T] {
	return &Queue[T]{now: now}
}

// Enqueue appends an operation and returns it with its assigned id.
func (q *Queue[T]) Enqueue(kind Kind, payload T) Op[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	op := Op[T]{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: q.now(),
	}
	q.ops = append(q.ops, op)
	return op
}

// Len returns the number of queued operations.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Snapshot returns a copy of the queued operations in enqueue order, so a
// replay pass can iterate while successes are removed underneath it.
func (q *Queue[T]) Snapshot() []Op[T] {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Op[T], len(q.ops))
	copy(out, q.ops)
	return out
}

// Remove deletes the operation with the given id, preserving order of the
// rest. Removing an unknown id is a no-op.
func (q *Queue[T]) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, op := range q.ops {
		if op.ID == id {
			q.ops = append(q.ops[:i], q.ops[i+1:]...)
			return
		}
	}
}

// Clear drops all queued operations.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ops = nil
}
