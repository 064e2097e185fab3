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

// Package ticker delivers ticks at a fixed interval. A tick the receiver is
// not ready for is dropped so a stalled consumer never builds a backlog.
package ticker

import (
	"sync"
	"time"
)

// Ticker delivers ticks on Ticks until stopped.
type Ticker struct {
	Ticks    chan time.Time
	interval time.Duration
	mu       sync.Mutex
	stopCh   chan struct{}
	doneCh   chan struct{}
	ticking  bool
}

// New creates an instance of Ticker that ticks every interval once started.
func New(interval time.Duration) *Ticker {
	if interval <= 0 {
		panic("ticker interval must be greater than zero")
	}
	return &Ticker{
		Ticks:    make(chan time.Time),
		interval: interval,
	}
}

// Start starts the ticker. Calling Start on a running ticker is a no-op.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ticking {
		return
	}

	t.ticking = true
	t.stopCh = make(chan struct{})
	t.doneCh = make(chan struct{})
	go t.loop(t.stopCh, t.doneCh)
}

// Stop stops the ticker and waits for its goroutine to exit.
// No tick is delivered after Stop returns.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ticking {
		return
	}

	t.ticking = false
	close(t.stopCh)
	<-t.doneCh
}

// Ticking reports whether the ticker is running
func (t *Ticker) Ticking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ticking
}

func (t *Ticker) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)
	clock := time.NewTicker(t.interval)
	defer clock.Stop()

	for {
		select {
		case now := <-clock.C:
			select {
			case t.Ticks <- now:
			case <-stopCh:
				return
			default:
			}
		case <-stopCh:
			return
		}
	}
}
