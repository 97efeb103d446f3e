// queue.go: lock-free notification queue for reclaimed entries
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package reftable

import (
	"runtime"
	"sync/atomic"
)

// qnode is a single element of the queue.
type qnode[T any] struct {
	value *T
	next  atomic.Pointer[qnode[T]]
}

// notifyQueue is an unbounded multi-producer single-consumer queue.
//
// Producers are runtime cleanup goroutines reporting collected keys. The only
// consumer is the owning table, which drains the queue with poll from the
// goroutine that is currently operating on the table. poll never blocks.
//
// Ordering between concurrent producers is not FIFO: whichever producer
// links its node first wins.
type notifyQueue[T any] struct {
	head atomic.Pointer[qnode[T]] // consumer side, always a sentinel
	tail atomic.Pointer[qnode[T]]
	size atomic.Int64
}

func newNotifyQueue[T any]() *notifyQueue[T] {
	sentinel := &qnode[T]{}
	q := &notifyQueue[T]{}
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// push appends value. Safe for concurrent use.
func (q *notifyQueue[T]) push(value *T) {
	if value == nil {
		return
	}
	n := &qnode[T]{value: value}

	var backoff uint8
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if next == nil {
			if tail.next.CompareAndSwap(nil, n) {
				// May fail if another producer already advanced the tail.
				q.tail.CompareAndSwap(tail, n)
				q.size.Add(1)
				return
			}
		} else {
			// Help a producer that linked its node but has not moved the tail yet.
			q.tail.CompareAndSwap(tail, next)
		}

		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// poll removes and returns the oldest linked value, or false if the queue is
// empty. Must only be called by the single consumer.
func (q *notifyQueue[T]) poll() (*T, bool) {
	head := q.head.Load()
	next := head.next.Load()
	if next == nil {
		return nil, false
	}
	value := next.value
	next.value = nil // next becomes the new sentinel
	q.head.Store(next)
	q.size.Add(-1)
	return value, true
}

// pending returns an approximate number of queued values.
func (q *notifyQueue[T]) pending() int {
	// A push links its node before counting it, so a racing poll can
	// briefly drive the counter below zero.
	if n := q.size.Load(); n > 0 {
		return int(n)
	}
	return 0
}
