// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package queue provides the unbounded multi-producer single-consumer queue
// backing actor work queues and per-node outbound frame queues.
package queue

import (
	"sync"

	"go.uber.org/atomic"
)

type node[T any] struct {
	next  atomic.Pointer[node[T]]
	value T
}

// Mpsc is an unbounded lock-free Multi-Producer-Single-Consumer queue.
// Push never blocks and is safe from any goroutine. Pop, Drain and IsEmpty
// must be called by a single consumer. FIFO order holds per producer.
type Mpsc[T any] struct {
	head   *node[T] // consumer only
	tail   atomic.Pointer[node[T]]
	length *atomic.Int64
	nodes  sync.Pool
}

// NewMpsc creates an instance of Mpsc
func NewMpsc[T any]() *Mpsc[T] {
	q := &Mpsc[T]{
		length: atomic.NewInt64(0),
	}
	q.nodes.New = func() any { return new(node[T]) }
	stub := new(node[T])
	q.head = stub
	q.tail.Store(stub)
	return q
}

// Push appends value to the queue
func (q *Mpsc[T]) Push(value T) {
	n := q.nodes.Get().(*node[T])
	n.value = value
	n.next.Store(nil)

	q.length.Inc()
	prev := q.tail.Swap(n)
	prev.next.Store(n)
}

// Pop removes the oldest value. It returns false when the queue is empty or
// when a producer has swapped the tail but not linked its node yet.
func (q *Mpsc[T]) Pop() (T, bool) {
	var zero T
	head := q.head
	next := head.next.Load()
	if next == nil {
		return zero, false
	}

	q.head = next
	value := next.value
	next.value = zero
	q.length.Dec()

	head.next.Store(nil)
	q.nodes.Put(head)
	return value, true
}

// Drain pops every available value into fn and returns the number of values
// handed over.
func (q *Mpsc[T]) Drain(fn func(T)) int {
	count := 0
	for {
		value, ok := q.Pop()
		if !ok {
			return count
		}
		fn(value)
		count++
	}
}

// Len returns a snapshot of the number of queued values
func (q *Mpsc[T]) Len() int64 {
	return q.length.Load()
}

// IsEmpty reports whether no linked value is waiting
func (q *Mpsc[T]) IsEmpty() bool {
	return q.head.next.Load() == nil
}
