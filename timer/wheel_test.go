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
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"github.com/tochemey/fastsu/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func ticks(w *Wheel, n int) {
	for range n {
		w.tick()
	}
}

func TestWheel(t *testing.T) {
	t.Run("With one-shot timer", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		var fired []uint32
		w.AddTimeout(25*time.Millisecond, func(Handle) {
			fired = append(fired, w.Now())
		}, 1, nil)

		ticks(w, 3)
		assert.Empty(t, fired)
		assert.Equal(t, 1, w.Len())

		ticks(w, 1)
		require.Len(t, fired, 1)
		assert.EqualValues(t, 3, fired[0])
		assert.Zero(t, w.Len())

		ticks(w, 300)
		assert.Len(t, fired, 1)
	})
	t.Run("With zero due time", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		count := 0
		w.AddTimeout(0, func(Handle) { count++ }, 0, nil)
		ticks(w, 1)
		assert.Equal(t, 1, count)
	})
	t.Run("With periodic timer", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		var fired []uint32
		handle := w.AddInterval(0, 100*time.Millisecond, func(Handle) {
			fired = append(fired, w.Now())
		}, 2, "state")

		assert.Equal(t, 2, handle.Type())
		assert.Equal(t, "state", handle.State())
		assert.True(t, handle.Periodic())

		ticks(w, 21)
		assert.Equal(t, []uint32{0, 10, 20}, fired)

		handle.Dispose()
		ticks(w, 50)
		assert.Len(t, fired, 3)
		assert.Zero(t, w.Len())
	})
	t.Run("With dispose after the second fire", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		count := 0
		var handle Handle
		handle = w.AddInterval(0, 100*time.Millisecond, func(Handle) {
			count++
			if count == 2 {
				handle.Dispose()
			}
		}, 0, nil)

		ticks(w, 100)
		assert.Equal(t, 2, count)
		assert.Zero(t, w.Len())
	})
	t.Run("With dispose inside its own callback", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		count := 0
		w.AddInterval(10*time.Millisecond, 10*time.Millisecond, func(h Handle) {
			count++
			h.Dispose()
		}, 0, nil)

		ticks(w, 20)
		assert.Equal(t, 1, count)
		assert.Zero(t, w.Len())
	})
	t.Run("With double dispose", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		count := 0
		handle := w.AddTimeout(50*time.Millisecond, func(Handle) { count++ }, 0, nil)
		handle.Dispose()
		handle.Dispose()
		assert.EqualValues(t, 2, w.commands.Len())

		ticks(w, 10)
		assert.Zero(t, count)
		assert.Zero(t, w.Len())
	})
	t.Run("With dispose after fire", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		count := 0
		handle := w.AddTimeout(0, func(Handle) { count++ }, 0, nil)
		ticks(w, 1)
		handle.Dispose()
		assert.Zero(t, w.commands.Len())
		assert.Equal(t, 1, count)
	})
	t.Run("With nil callback", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		w.AddTimeout(0, nil, 0, nil)
		ticks(w, 1)
		assert.Zero(t, w.Len())
	})
	t.Run("With cascading levels", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		dues := []uint32{1, 255, 256, 257, 300, 16383, 16384, 16385, 70000}
		fired := make(map[uint32][]uint32)
		for _, due := range dues {
			due := due
			w.AddTimeout(time.Duration(due)*TickInterval, func(Handle) {
				fired[due] = append(fired[due], w.Now())
			}, 0, nil)
		}

		ticks(w, 70010)
		for _, due := range dues {
			assert.Equal(t, []uint32{due}, fired[due], "due %d", due)
		}
		assert.Zero(t, w.Len())
	})
	t.Run("With timers added while the wheel is far ahead", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		ticks(w, 1000)

		var at uint32
		w.AddTimeout(20*time.Second, func(Handle) { at = w.Now() }, 0, nil)
		ticks(w, 2001)
		assert.EqualValues(t, 3000, at)
	})
	t.Run("With counter wrap around", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		w.cur = math.MaxUint32 - 2
		w.now.Store(w.cur)

		var at []uint32
		w.AddTimeout(50*time.Millisecond, func(Handle) { at = append(at, w.Now()) }, 0, nil)
		ticks(w, 1)
		assert.False(t, w.overflow.empty())

		ticks(w, 4)
		assert.Empty(t, at)
		assert.EqualValues(t, 1, w.CycleCount())
		assert.True(t, w.overflow.empty())

		ticks(w, 1)
		assert.Equal(t, []uint32{2}, at)
		assert.Zero(t, w.Len())
	})
	t.Run("With periodic timer across the wrap", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		w.cur = math.MaxUint32 - 15
		w.now.Store(w.cur)

		count := 0
		handle := w.AddInterval(0, 100*time.Millisecond, func(Handle) { count++ }, 0, nil)
		ticks(w, 41)
		assert.Equal(t, 5, count)
		assert.EqualValues(t, 1, w.CycleCount())
		handle.Dispose()
		ticks(w, 1)
		assert.Zero(t, w.Len())
	})
	t.Run("With panicking callback", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		count := 0
		w.AddTimeout(0, func(Handle) { panic("boom") }, 0, nil)
		w.AddTimeout(10*time.Millisecond, func(Handle) { count++ }, 0, nil)
		assert.NotPanics(t, func() { ticks(w, 2) })
		assert.Equal(t, 1, count)
	})
	t.Run("With timers added from a callback", func(t *testing.T) {
		w := New(WithLogger(log.DiscardLogger))
		var at uint32
		w.AddTimeout(0, func(Handle) {
			w.AddTimeout(30*time.Millisecond, func(Handle) { at = w.Now() }, 0, nil)
		}, 0, nil)
		ticks(w, 10)
		assert.EqualValues(t, 4, at)
	})
}

func TestWheelUpdate(t *testing.T) {
	t.Run("With elapsed time consumed in whole ticks", func(t *testing.T) {
		clock := newFakeClock()
		w := New(WithLogger(log.DiscardLogger), WithClock(clock.Now))

		clock.Advance(25 * time.Millisecond)
		w.Update()
		assert.EqualValues(t, 2, w.Now())

		clock.Advance(5 * time.Millisecond)
		w.Update()
		assert.EqualValues(t, 3, w.Now())

		clock.Advance(time.Second)
		w.Update()
		assert.EqualValues(t, 103, w.Now())
	})
	t.Run("With pause detected", func(t *testing.T) {
		clock := newFakeClock()
		paused := atomic.NewBool(true)
		w := New(WithLogger(log.DiscardLogger), WithClock(clock.Now), WithPauseDetector(paused.Load))

		clock.Advance(time.Second)
		w.Update()
		assert.EqualValues(t, 1, w.Now())

		paused.Store(false)
		clock.Advance(50 * time.Millisecond)
		w.Update()
		assert.EqualValues(t, 6, w.Now())
	})
	t.Run("With update in flight", func(t *testing.T) {
		clock := newFakeClock()
		w := New(WithLogger(log.DiscardLogger), WithClock(clock.Now))
		w.inflight.Store(true)
		clock.Advance(time.Second)
		w.Update()
		assert.Zero(t, w.Now())
	})
}

func TestWheelDriver(t *testing.T) {
	w := New(WithLogger(log.DiscardLogger))
	w.Start()
	w.Start()

	fired := make(chan struct{})
	w.AddTimeout(30*time.Millisecond, func(Handle) { close(fired) }, 0, nil)

	count := atomic.NewInt32(0)
	w.AddInterval(0, 10*time.Millisecond, func(Handle) { count.Inc() }, 0, nil)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}

	require.Eventually(t, func() bool { return count.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)

	w.Stop()
	w.Stop()
}
