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

// Package timer implements a hierarchical timer wheel with a 10ms resolution.
//
// A near wheel of 256 slots covers the next 2.56s and four cascading levels of
// 64 slots each extend the range to the whole 32-bit tick counter. Buckets are
// mutated by the tick routine only; every other goroutine talks to the wheel
// through its command queue.
package timer

import (
	"math"
	"sync"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"go.uber.org/atomic"

	"github.com/tochemey/fastsu/internal/lib"
	"github.com/tochemey/fastsu/internal/ticker"
	"github.com/tochemey/fastsu/log"
)

// TickInterval is the resolution of the wheel
const TickInterval = 10 * time.Millisecond

const (
	nearShift  = 8
	nearSize   = 1 << nearShift
	nearMask   = nearSize - 1
	levelShift = 6
	levelSize  = 1 << levelShift
	levelMask  = levelSize - 1
	levelCount = 4

	cycleSpan = uint64(1) << 32
)

type opcode int

const (
	opAdd opcode = iota
	opRemove
)

type command struct {
	op   opcode
	node *node
}

// Wheel schedules callbacks on a hierarchical timer wheel.
type Wheel struct {
	near     [nearSize]list
	levels   [levelCount][levelSize]list
	overflow list
	cur      uint32

	now      *atomic.Uint32
	cycles   *atomic.Uint64
	count    *atomic.Int64
	inflight *atomic.Bool
	commands *queue.Queue

	last    time.Time
	backlog time.Duration

	mu      sync.Mutex
	running bool
	ticker  *ticker.Ticker
	stopCh  chan struct{}
	doneCh  chan struct{}

	logger log.Logger
	paused func() bool
	clock  func() time.Time
}

// New creates an instance of Wheel. The wheel does not advance until Start
// is called or Update is driven by the caller.
func New(opts ...Option) *Wheel {
	w := &Wheel{
		now:      atomic.NewUint32(0),
		cycles:   atomic.NewUint64(0),
		count:    atomic.NewInt64(0),
		inflight: atomic.NewBool(false),
		commands: queue.New(64),
		logger:   log.DefaultLogger,
		paused:   func() bool { return false },
		clock:    time.Now,
	}

	for _, opt := range opts {
		opt.Apply(w)
	}

	w.last = w.clock()
	return w
}

// AddTimeout schedules cb to fire once after due. A zero due fires on the
// next processed tick. A nil callback yields an already disposed handle.
func (w *Wheel) AddTimeout(due time.Duration, cb Callback, typ int, state any) Handle {
	n := newNode(w, cb, lib.Ceil(due, TickInterval), 0, typ, state)
	w.enqueue(command{op: opAdd, node: n})
	return n
}

// AddInterval schedules cb to fire after due and then every period until the
// handle is disposed. The period is never shorter than one tick.
func (w *Wheel) AddInterval(due, period time.Duration, cb Callback, typ int, state any) Handle {
	interval := lib.Ceil(period, TickInterval)
	if interval == 0 {
		interval = 1
	}
	n := newNode(w, cb, lib.Ceil(due, TickInterval), interval, typ, state)
	w.enqueue(command{op: opAdd, node: n})
	return n
}

// Len returns the number of timers currently held by the wheel
func (w *Wheel) Len() int {
	return int(w.count.Load())
}

// Now returns the current tick
func (w *Wheel) Now() uint32 {
	return w.now.Load()
}

// CycleCount returns the number of times the tick counter wrapped around
func (w *Wheel) CycleCount() uint64 {
	return w.cycles.Load()
}

// Start drives the wheel from a ticker firing every TickInterval.
// Calling Start on a running wheel is a no-op.
func (w *Wheel) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}

	w.running = true
	w.last = w.clock()
	w.backlog = 0
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.ticker = ticker.New(TickInterval)
	w.ticker.Start()
	go w.run(w.ticker, w.stopCh, w.doneCh)
}

// Stop halts the ticker driving the wheel. Scheduled timers are kept and
// resume firing on the next Start.
func (w *Wheel) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}

	w.running = false
	close(w.stopCh)
	<-w.doneCh
	w.ticker.Stop()
}

// Update consumes the real time elapsed since the previous update in whole
// ticks. It is called by the ticker once started and may be called directly
// by an embedder driving the wheel itself. Concurrent calls are dropped while
// one is in flight.
func (w *Wheel) Update() {
	if !w.inflight.CompareAndSwap(false, true) {
		return
	}
	defer w.inflight.Store(false)

	now := w.clock()
	w.backlog += now.Sub(w.last)
	w.last = now

	for w.backlog >= TickInterval {
		w.tick()
		if w.paused() {
			w.backlog = 0
			continue
		}
		w.backlog -= TickInterval
	}
}

func (w *Wheel) run(t *ticker.Ticker, stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	for {
		select {
		case <-t.Ticks:
			w.Update()
		case <-stopCh:
			return
		}
	}
}

func (w *Wheel) enqueue(cmd command) {
	if err := w.commands.Put(cmd); err != nil {
		w.logger.Errorf("failed to enqueue timer command: %v", err)
	}
}

// tick runs one wheel step: apply pending commands, fire the current near
// slot, then advance and cascade.
func (w *Wheel) tick() {
	w.applyCommands()
	w.near[w.cur&nearMask].drain(w.fire)
	w.shift()
}

func (w *Wheel) applyCommands() {
	size := w.commands.Len()
	if size == 0 {
		return
	}

	items, err := w.commands.Get(size)
	if err != nil {
		return
	}

	for _, item := range items {
		cmd := item.(command)
		n := cmd.node
		switch cmd.op {
		case opAdd:
			if n.callback.Load() == nil {
				continue
			}
			n.expires = uint64(w.cur) + n.delay
			w.link(n)
			w.count.Inc()
		case opRemove:
			if n.list != nil {
				n.list.remove(n)
				w.count.Dec()
			}
		}
	}
}

func (w *Wheel) fire(n *node) {
	if n.interval == 0 {
		w.count.Dec()
		if cb := n.callback.Swap(nil); cb != nil {
			w.invoke(*cb, n)
		}
		return
	}

	cb := n.callback.Load()
	if cb == nil {
		w.count.Dec()
		return
	}

	w.invoke(*cb, n)

	// disposed from within the callback
	if n.callback.Load() == nil {
		w.count.Dec()
		return
	}

	n.expires = uint64(w.cur) + n.interval
	w.link(n)
}

func (w *Wheel) invoke(cb Callback, n *node) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Errorf("timer callback (type=%d) panicked: %v", n.typ, r)
		}
	}()
	cb(n)
}

// link places a node by its absolute expiry. Expiries past the 32-bit range
// wait in the overflow list until the counter wraps.
func (w *Wheel) link(n *node) {
	if n.expires > math.MaxUint32 {
		w.overflow.push(n)
		return
	}
	w.addNode(n)
}

func (w *Wheel) addNode(n *node) {
	expires := uint32(n.expires)
	if expires|nearMask == w.cur|nearMask {
		w.near[expires&nearMask].push(n)
		return
	}

	mask := uint64(nearSize) << levelShift
	i := 0
	for ; i < levelCount-1; i++ {
		if uint64(expires)|(mask-1) == uint64(w.cur)|(mask-1) {
			break
		}
		mask <<= levelShift
	}

	idx := (expires >> (nearShift + uint(i)*levelShift)) & levelMask
	w.levels[i][idx].push(n)
}

func (w *Wheel) shift() {
	w.cur++
	w.now.Store(w.cur)

	if w.cur == 0 {
		w.levels[levelCount-1][0].drain(w.addNode)
		w.overflow.drain(func(n *node) {
			n.expires -= cycleSpan
			w.link(n)
		})
		w.cycles.Inc()
		return
	}

	mask := uint64(nearSize)
	t := w.cur >> nearShift
	for i := 0; uint64(w.cur)&(mask-1) == 0 && i < levelCount; i++ {
		if idx := t & levelMask; idx != 0 {
			w.levels[i][idx].drain(w.addNode)
			return
		}
		mask <<= levelShift
		t >>= levelShift
	}
}
