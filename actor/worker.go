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

package actor

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/zeebo/xxh3"
	"go.uber.org/multierr"

	"github.com/tochemey/fastsu/internal/queue"
	"github.com/tochemey/fastsu/internal/ticker"
	"github.com/tochemey/fastsu/internal/xsync"
	"github.com/tochemey/fastsu/log"
)

// FrameInterval is the period at which a pinned worker ticks its actors
const FrameInterval = time.Millisecond

// Worker is a dedicated goroutine hosting pinned actors. It runs their turns
// in arrival order and calls OnTick on every running pinned actor each frame.
type Worker struct {
	id       int
	logger   log.Logger
	turns    *queue.Mpsc[func()]
	wake     chan struct{}
	contexts *xsync.Map[ID, *Context]
	ticker   *ticker.Ticker

	mu      sync.Mutex
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

var _ executor = (*Worker)(nil)

func newWorker(id int, logger log.Logger) *Worker {
	return &Worker{
		id:       id,
		logger:   logger,
		turns:    queue.NewMpsc[func()](),
		wake:     make(chan struct{}, 1),
		contexts: xsync.NewMap[ID, *Context](),
		ticker:   ticker.New(FrameInterval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (w *Worker) start() {
	w.ticker.Start()
	go w.loop()
}

// stop ends the worker once its queued turns have run, or gives up when
// ctx is done. A turn still running then keeps the goroutine until it
// returns.
func (w *Worker) stop(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()

	w.ticker.Stop()
	select {
	case <-w.doneCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("pinned worker %d did not stop: %w", w.id, ctx.Err())
	}
}

func (w *Worker) schedule(turn func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return false
	}

	w.turns.Push(turn)
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

func (w *Worker) pin(c *Context) {
	w.contexts.Set(c.id, c)
}

func (w *Worker) unpin(c *Context) {
	w.contexts.Delete(c.id)
}

// Len returns the number of actors pinned to the worker
func (w *Worker) Len() int {
	return w.contexts.Len()
}

func (w *Worker) loop() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			w.turns.Drain(w.run)
			return
		case <-w.wake:
			w.turns.Drain(w.run)
		case <-w.ticker.Ticks:
			w.turns.Drain(w.run)
			w.frame()
		}
	}
}

func (w *Worker) run(turn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Errorf("pinned worker %d: turn panicked: %v", w.id, r)
		}
	}()
	turn()
}

// frame ticks every running actor whose loop is idle. Ticking happens on
// the worker goroutine, so it never overlaps a turn of the same actor.
func (w *Worker) frame() {
	for _, c := range w.contexts.Values() {
		if c.State() != StateRunning || c.stopRequested.Load() {
			continue
		}
		if !c.busy.CompareAndSwap(false, true) {
			continue
		}
		c.tick()
		c.busy.Store(false)
		if !c.work.IsEmpty() || !c.mailbox.IsEmpty() || c.stopRequested.Load() {
			c.schedule()
		}
	}
}

// WorkerGroup is a fixed set of pinned workers
type WorkerGroup struct {
	workers []*Worker
}

func newWorkerGroup(size int, logger log.Logger) *WorkerGroup {
	workers := make([]*Worker, size)
	for i := range workers {
		workers[i] = newWorker(i, logger)
	}
	return &WorkerGroup{workers: workers}
}

// Size returns the number of workers in the group
func (g *WorkerGroup) Size() int {
	return len(g.workers)
}

// Pick returns the worker hosting the given actor id
func (g *WorkerGroup) Pick(id ID) *Worker {
	if len(g.workers) == 0 {
		return nil
	}
	sum := xxh3.HashString(strconv.FormatInt(int64(id), 10))
	return g.workers[sum%uint64(len(g.workers))]
}

func (g *WorkerGroup) start() {
	for _, w := range g.workers {
		w.start()
	}
}

func (g *WorkerGroup) stop(ctx context.Context) error {
	var err error
	for _, w := range g.workers {
		err = multierr.Append(err, w.stop(ctx))
	}
	return err
}
