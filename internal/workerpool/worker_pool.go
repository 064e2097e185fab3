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

// Package workerpool provides an elastic goroutine pool. Workers are spawned
// on demand, parked when idle and passivated once idle for too long.
package workerpool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/tochemey/fastsu/internal/ticker"
)

// WorkerPool executes submitted tasks on reusable goroutines.
type WorkerPool struct {
	passivateAfter time.Duration
	maxIdle        int

	mu      sync.Mutex
	idle    []*worker
	started *atomic.Bool
	stopped *atomic.Bool
	spawned *atomic.Int64
	workers sync.WaitGroup
	cleaner *ticker.Ticker
	stopCh  chan struct{}
	doneCh  chan struct{}
}

type worker struct {
	tasks    chan func()
	lastUsed time.Time
}

// New creates a new worker pool with the given options.
func New(opts ...Option) *WorkerPool {
	wp := &WorkerPool{
		passivateAfter: time.Second,
		maxIdle:        4096,
		started:        atomic.NewBool(false),
		stopped:        atomic.NewBool(false),
		spawned:        atomic.NewInt64(0),
	}

	for _, opt := range opts {
		opt.Apply(wp)
	}
	return wp
}

// GetSpawnedWorkers returns the current count of live workers.
func (wp *WorkerPool) GetSpawnedWorkers() int {
	return int(wp.spawned.Load())
}

// Start enables task submission and begins passivating idle workers.
// It's safe to call Start multiple times.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.started.Load() || wp.stopped.Load() {
		return
	}

	wp.stopCh = make(chan struct{})
	wp.doneCh = make(chan struct{})
	wp.cleaner = ticker.New(wp.passivateAfter)
	wp.cleaner.Start()
	wp.started.Store(true)
	go wp.cleanup()
}

// Stop rejects new submissions, releases idle workers and waits for running
// tasks to complete.
func (wp *WorkerPool) Stop() {
	_ = wp.StopContext(context.Background())
}

// StopContext is Stop bounded by ctx. When ctx is done first it returns
// ctx.Err() and the running tasks keep their workers until they return.
func (wp *WorkerPool) StopContext(ctx context.Context) error {
	wp.mu.Lock()
	if !wp.started.Load() || wp.stopped.Swap(true) {
		wp.mu.Unlock()
		return nil
	}

	for i, w := range wp.idle {
		close(w.tasks)
		wp.idle[i] = nil
	}
	wp.idle = wp.idle[:0]
	wp.mu.Unlock()

	close(wp.stopCh)
	<-wp.doneCh
	wp.cleaner.Stop()

	drained := make(chan struct{})
	go func() {
		wp.workers.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitWork hands the task to an idle worker or spawns a new one.
// It returns false when the pool is not running, in which case the task is
// discarded.
func (wp *WorkerPool) SubmitWork(task func()) bool {
	wp.mu.Lock()
	if !wp.started.Load() || wp.stopped.Load() {
		wp.mu.Unlock()
		return false
	}

	if n := len(wp.idle); n > 0 {
		w := wp.idle[n-1]
		wp.idle[n-1] = nil
		wp.idle = wp.idle[:n-1]
		wp.mu.Unlock()
		w.tasks <- task
		return true
	}

	wp.workers.Add(1)
	wp.mu.Unlock()

	w := &worker{tasks: make(chan func(), 1)}
	w.tasks <- task
	wp.spawned.Inc()
	go wp.run(w)
	return true
}

func (wp *WorkerPool) run(w *worker) {
	defer func() {
		wp.spawned.Dec()
		wp.workers.Done()
	}()

	for task := range w.tasks {
		task()
		if !wp.park(w) {
			return
		}
	}
}

// park returns the worker to the idle stack. It reports false when the
// worker should exit instead.
func (wp *WorkerPool) park(w *worker) bool {
	w.lastUsed = time.Now()
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.stopped.Load() || len(wp.idle) >= wp.maxIdle {
		return false
	}
	wp.idle = append(wp.idle, w)
	return true
}

// cleanup closes workers idle for longer than passivateAfter. The idle stack
// is ordered by lastUsed so the stale workers sit at its bottom.
func (wp *WorkerPool) cleanup() {
	defer close(wp.doneCh)
	for {
		select {
		case <-wp.cleaner.Ticks:
			cutoff := time.Now().Add(-wp.passivateAfter)
			wp.mu.Lock()
			stale := 0
			for stale < len(wp.idle) && wp.idle[stale].lastUsed.Before(cutoff) {
				close(wp.idle[stale].tasks)
				stale++
			}
			if stale > 0 {
				remaining := copy(wp.idle, wp.idle[stale:])
				clear(wp.idle[remaining:])
				wp.idle = wp.idle[:remaining]
			}
			wp.mu.Unlock()
		case <-wp.stopCh:
			return
		}
	}
}
