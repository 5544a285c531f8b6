package queue

import (
	"sync/atomic"
)

// itemNode represents a node in the lock free queue.
type itemNode[T any] struct {
	value T
	next  atomic.Pointer[itemNode[T]]
}

// lockFreeQueue is a lock-free, concurrent Michael-Scott queue.
// Enqueue and Dequeue may be called from any number of goroutines.
//
// It implements the Queue interface.
type lockFreeQueue[T any] struct {
	head   atomic.Pointer[itemNode[T]]
	tail   atomic.Pointer[itemNode[T]]
	length atomic.Int32
}

var _ Queue[func()] = (*lockFreeQueue[func()])(nil)

// NewLockFreeQueue creates a new lock-free queue of T.
func NewLockFreeQueue[T any]() Queue[T] {
	q := &lockFreeQueue[T]{}
	sentinel := &itemNode[T]{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)

	return q
}

// Enqueue adds an item to the tail of the queue.
func (q *lockFreeQueue[T]) Enqueue(item T) {
	n := &itemNode[T]{value: item}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		// Are tail and next consistent?
		if tail != q.tail.Load() {
			continue
		}
		if next != nil { // tail was not pointing to the last node, try to swing it.
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		// Try to link node at the end of the linked list.
		if tail.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(tail, n)
			q.length.Add(1)
			return
		}
	}
}

// Dequeue removes and returns the item at the head of the queue.
func (q *lockFreeQueue[T]) Dequeue() (T, bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()

		// Are head, tail, and next consistent?
		if head != q.head.Load() {
			continue
		}

		if head == tail {
			if next == nil { // empty
				var zero T
				return zero, false
			}
			q.tail.CompareAndSwap(tail, next) // tail is falling behind, try to advance it.
			continue
		}

		// Read value before CAS, otherwise another dequeue might advance past next.
		value := next.value
		if q.head.CompareAndSwap(head, next) {
			q.length.Add(-1)
			return value, true
		}
	}
}

// IsEmpty returns true if the queue is empty, false otherwise.
func (q *lockFreeQueue[T]) IsEmpty() bool {
	return q.head.Load().next.Load() == nil
}

// Length returns the number of items in the queue.
func (q *lockFreeQueue[T]) Length() int {
	return int(q.length.Load())
}
