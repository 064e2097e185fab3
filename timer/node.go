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

package timer

import (
	"go.uber.org/atomic"
)

// Callback is invoked on the wheel's tick goroutine when a timer fires.
type Callback func(Handle)

// Handle references a scheduled timer.
type Handle interface {
	// Type returns the tag supplied when the timer was added
	Type() int
	// State returns the opaque value supplied when the timer was added
	State() any
	// Periodic reports whether the timer re-arms after firing
	Periodic() bool
	// Dispose cancels the timer. Disposing more than once is a no-op and a
	// timer that has already fired cannot be cancelled retroactively.
	Dispose()
}

// node is an intrusive list element. Everything except callback is owned by
// the tick goroutine once the add command has been enqueued.
type node struct {
	wheel    *Wheel
	callback *atomic.Pointer[Callback]
	typ      int
	state    any
	delay    uint64
	interval uint64
	expires  uint64

	list       *list
	prev, next *node
}

var _ Handle = (*node)(nil)

func newNode(w *Wheel, cb Callback, delay, interval uint64, typ int, state any) *node {
	n := &node{
		wheel:    w,
		callback: atomic.NewPointer[Callback](nil),
		typ:      typ,
		state:    state,
		delay:    delay,
		interval: interval,
	}
	if cb != nil {
		n.callback.Store(&cb)
	}
	return n
}

// Type implements Handle
func (n *node) Type() int {
	return n.typ
}

// State implements Handle
func (n *node) State() any {
	return n.state
}

// Periodic implements Handle
func (n *node) Periodic() bool {
	return n.interval > 0
}

// Dispose implements Handle. Only the caller that clears the callback
// enqueues the removal.
func (n *node) Dispose() {
	if n.callback.Swap(nil) != nil {
		n.wheel.enqueue(command{op: opRemove, node: n})
	}
}

// list is a doubly linked list of nodes sharing one bucket
type list struct {
	head, tail *node
}

func (l *list) push(n *node) {
	n.list = l
	n.prev = l.tail
	n.next = nil
	if l.tail != nil {
		l.tail.next = n
	} else {
		l.head = n
	}
	l.tail = n
}

func (l *list) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.list, n.prev, n.next = nil, nil, nil
}

func (l *list) empty() bool {
	return l.head == nil
}

// drain empties the list and hands every node, already unlinked, to fn.
// fn may push the node into any list, including this one.
func (l *list) drain(fn func(*node)) {
	n := l.head
	l.head, l.tail = nil, nil
	for n != nil {
		next := n.next
		n.list, n.prev, n.next = nil, nil, nil
		fn(n)
		n = next
	}
}
