// Package queue provides the bounded queues connecting station tasks.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Policy decides what Put does when the queue is full.
type Policy int

const (
	// Block stalls the producer until space is available.
	// Used where losing an item is worse than delaying it (commands).
	Block Policy = iota
	// DropOldest never blocks the producer: the oldest pending item is
	// discarded to make room for the new one (high rate sensor stream).
	DropOldest
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case Block:
		return "block"
	case DropOldest:
		return "drop-oldest"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// Queue is a bounded FIFO safe for concurrent producers and consumers.
type Queue[T any] struct {
	// OnDrop is called for every item discarded by DropOldest.
	OnDrop func()

	name   string
	policy Policy
	ch     chan T
	lock   sync.Mutex
}

// New creates a Queue. capacity must be positive.
func New[T any](name string, capacity int, policy Policy) *Queue[T] {
	if capacity <= 0 {
		panic("queue: capacity must be positive")
	}
	return &Queue[T]{
		name:   name,
		policy: policy,
		ch:     make(chan T, capacity),
	}
}

// Name gets the queue name.
func (q *Queue[T]) Name() string { return q.name }

// Policy gets the overflow policy.
func (q *Queue[T]) Policy() Policy { return q.policy }

// Len returns the number of pending items.
func (q *Queue[T]) Len() int { return len(q.ch) }

// Cap returns the capacity.
func (q *Queue[T]) Cap() int { return cap(q.ch) }

// Put enqueues v according to the queue policy.
// With Block it only fails when ctx is done.
func (q *Queue[T]) Put(ctx context.Context, v T) error {
	if q.policy == DropOldest {
		q.putDropOldest(v)
		return nil
	}
	select {
	case q.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue[T]) putDropOldest(v T) {
	// producers are serialized so a drop always makes room for this item,
	// unless a consumer already did.
	q.lock.Lock()
	defer q.lock.Unlock()
	for {
		select {
		case q.ch <- v:
			return
		default:
		}
		select {
		case <-q.ch:
			if fn := q.OnDrop; fn != nil {
				fn()
			}
		default:
		}
	}
}

// Get waits for the next item until ctx is done.
func (q *Queue[T]) Get(ctx context.Context) (v T, err error) {
	select {
	case v = <-q.ch:
		return v, nil
	case <-ctx.Done():
		return v, ctx.Err()
	}
}

// GetTimeout waits at most d for the next item.
// ok is false if d elapsed with the queue empty.
func (q *Queue[T]) GetTimeout(ctx context.Context, d time.Duration) (v T, ok bool, err error) {
	select {
	case v = <-q.ch:
		return v, true, nil
	default:
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case v = <-q.ch:
		return v, true, nil
	case <-timer.C:
		return v, false, nil
	case <-ctx.Done():
		return v, false, ctx.Err()
	}
}

// TryGet dequeues an item without waiting.
func (q *Queue[T]) TryGet() (v T, ok bool) {
	select {
	case v = <-q.ch:
		return v, true
	default:
		return v, false
	}
}
