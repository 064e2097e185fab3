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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/tochemey/fastsu/did"
	"github.com/tochemey/fastsu/log"
	"github.com/tochemey/fastsu/message"
	"github.com/tochemey/fastsu/timer"
)

type note struct {
	Text string
}

func (*note) MsgID() uint32 { return 1 }

type echoRequest struct {
	message.RequestHeader
	Text string
}

func (*echoRequest) MsgID() uint32    { return 2 }
func (*echoRequest) AckMsgID() uint32 { return 3 }

type echoResponse struct {
	message.ResponseHeader
	Text string
}

func (*echoResponse) MsgID() uint32 { return 3 }

type silentRequest struct {
	message.RequestHeader
}

func (*silentRequest) MsgID() uint32    { return 4 }
func (*silentRequest) AckMsgID() uint32 { return 3 }

type boom struct{}

func (*boom) MsgID() uint32 { return 5 }

type block struct {
	entered chan struct{}
	release chan struct{}
}

func (*block) MsgID() uint32 { return 6 }

type unhandled struct{}

func (*unhandled) MsgID() uint32 { return 7 }

func noteMsg(text string) message.Msg {
	return message.NewMsg(&note{Text: text}, 0)
}

// recorder is the actor used across the tests
type recorder struct {
	mu     sync.Mutex
	notes  []string
	timers []int

	self    *Context
	starts  *atomic.Int32
	stops   *atomic.Int32
	ticks   *atomic.Int32
	active  *atomic.Int32
	overlap *atomic.Bool

	onStart func(ctx context.Context, self *Context) error
}

var (
	_ Actor         = (*recorder)(nil)
	_ TimerReceiver = (*recorder)(nil)
)

func newRecorder() *recorder {
	return &recorder{
		starts:  atomic.NewInt32(0),
		stops:   atomic.NewInt32(0),
		ticks:   atomic.NewInt32(0),
		active:  atomic.NewInt32(0),
		overlap: atomic.NewBool(false),
	}
}

func (r *recorder) enter() {
	if r.active.Inc() > 1 {
		r.overlap.Store(true)
	}
}

func (r *recorder) leave() {
	r.active.Dec()
}

func (r *recorder) OnStart(ctx context.Context, self *Context) error {
	r.enter()
	defer r.leave()
	r.self = self
	r.starts.Inc()
	if r.onStart != nil {
		return r.onStart(ctx, self)
	}
	return nil
}

func (r *recorder) OnStop(context.Context) error {
	r.enter()
	defer r.leave()
	r.stops.Inc()
	return nil
}

func (r *recorder) OnTimer(handle timer.Handle) {
	r.enter()
	defer r.leave()
	r.mu.Lock()
	r.timers = append(r.timers, handle.Type())
	r.mu.Unlock()
}

func (r *recorder) record(text string) {
	r.enter()
	defer r.leave()
	r.mu.Lock()
	r.notes = append(r.notes, text)
	r.mu.Unlock()
}

func (r *recorder) Notes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notes...)
}

func (r *recorder) Timers() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.timers...)
}

// ticking is a recorder implementing the tick hook
type ticking struct {
	*recorder
}

var _ Ticker = (*ticking)(nil)

func (t *ticking) OnTick() {
	t.enter()
	defer t.leave()
	t.ticks.Inc()
}

func testHandlers(t *testing.T) *message.Handlers {
	handlers := message.NewHandlers(log.DiscardLogger)
	require.NoError(t, handlers.Register(
		message.HandleMessage(func(r *recorder, m *note) { r.record(m.Text) }),
		message.HandleMessage(func(r *ticking, m *note) { r.record(m.Text) }),
		message.HandleMessage(func(*recorder, *boom) { panic("boom") }),
		message.HandleMessage(func(_ *recorder, m *block) {
			if m.entered != nil {
				close(m.entered)
			}
			<-m.release
		}),
		message.HandleRequest(func(_ *recorder, q *echoRequest, reply func(*echoResponse)) {
			reply(&echoResponse{Text: q.Text})
		}),
		message.HandleRequest(func(*recorder, *silentRequest, func(*echoResponse)) {}),
	))
	return handlers
}

func testTypes(t *testing.T) *message.Types {
	types := message.NewTypes()
	require.NoError(t, types.Register(
		func() message.Message { return new(note) },
		func() message.Message { return new(echoRequest) },
		func() message.Message { return new(echoResponse) },
		func() message.Message { return new(silentRequest) },
	))
	return types
}

// newTestSystem starts a system on node 1 that is shut down when the test ends
func newTestSystem(t *testing.T, opts ...Option) *System {
	generator := did.New()
	require.NoError(t, generator.Init(1))

	defaults := []Option{
		WithIDGenerator(generator),
		WithLogger(log.DiscardLogger),
		WithHandlers(testHandlers(t)),
		WithTypes(testTypes(t)),
		WithPassivateAfter(100 * time.Millisecond),
	}

	system, err := NewSystem(append(defaults, opts...)...)
	require.NoError(t, err)
	require.NoError(t, system.Start(context.Background()))
	t.Cleanup(func() {
		_ = system.Shutdown(context.Background())
	})
	return system
}
