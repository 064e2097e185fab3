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
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/fastsu/errors"
	"github.com/tochemey/fastsu/internal/queue"
	"github.com/tochemey/fastsu/log"
	"github.com/tochemey/fastsu/message"
	"github.com/tochemey/fastsu/timer"
)

// Context is the execution context of one actor. It owns the actor's
// mailbox, work queue and timers, and schedules at most one turn at a time
// on its executor.
type Context struct {
	id       ID
	actor    Actor
	typeID   uint32
	system   *System
	executor executor
	logger   log.Logger

	state         *atomic.Int32
	busy          *atomic.Bool
	stopRequested *atomic.Bool
	mailbox       *queue.Mpsc[message.Msg]
	work          *queue.Mpsc[func()]
	timers        mapset.Set[timer.Handle]

	startCtx    context.Context
	startCancel context.CancelFunc

	// guards enqueues against a concurrent stop request
	mu       sync.RWMutex
	forceCtx context.Context
	done     chan struct{}
	doneOnce sync.Once

	// owned by the running turn
	subID int64
}

func newContext(system *System, id ID, actor Actor, exec executor) *Context {
	startCtx, startCancel := context.WithCancel(context.Background())
	return &Context{
		id:            id,
		actor:         actor,
		typeID:        message.TypeIDOf(actor),
		system:        system,
		executor:      exec,
		logger:        system.logger,
		state:         atomic.NewInt32(int32(StateNone)),
		busy:          atomic.NewBool(false),
		stopRequested: atomic.NewBool(false),
		mailbox:       queue.NewMpsc[message.Msg](),
		work:          queue.NewMpsc[func()](),
		timers:        mapset.NewSet[timer.Handle](),
		startCtx:      startCtx,
		startCancel:   startCancel,
		forceCtx:      context.Background(),
		done:          make(chan struct{}),
	}
}

// ID returns the actor identity
func (c *Context) ID() ID {
	return c.id
}

// Actor returns the actor instance
func (c *Context) Actor() Actor {
	return c.actor
}

// System returns the actor system owning the context
func (c *Context) System() *System {
	return c.system
}

// Logger returns the system logger
func (c *Context) Logger() log.Logger {
	return c.logger
}

// State returns the lifecycle state
func (c *Context) State() State {
	return State(c.state.Load())
}

// SubID returns the sub id of the message being handled. It is only
// meaningful within a message handler.
func (c *Context) SubID() int64 {
	return c.subID
}

// Done returns a channel closed once the actor is stopped
func (c *Context) Done() <-chan struct{} {
	return c.done
}

// Start runs the start hook then moves the actor to running.
// A context can only be started once.
func (c *Context) Start() error {
	if !c.state.CompareAndSwap(int32(StateNone), int32(StateStarting)) {
		return gerrors.ErrActorStarted
	}

	// the start turn holds the busy flag until the loop goes idle
	c.busy.Store(true)
	if !c.executor.schedule(c.startTurn) {
		c.busy.Store(false)
		c.terminate()
		return gerrors.ErrSystemStopped
	}
	return nil
}

// Stop requests the actor to stop. The stop hook runs under ctx, which
// bounds its cleanup. Pending messages are discarded.
func (c *Context) Stop(ctx context.Context) {
	c.mu.Lock()
	if c.stopRequested.Load() {
		c.mu.Unlock()
		return
	}
	c.forceCtx = ctx
	c.stopRequested.Store(true)
	c.mu.Unlock()

	c.startCancel()

	// never started: nothing to run
	if c.state.CompareAndSwap(int32(StateNone), int32(StateStopped)) {
		c.terminate()
		return
	}
	c.schedule()
}

// StopAsync requests the actor to stop and returns a channel closed once
// the stop hook has completed.
func (c *Context) StopAsync(ctx context.Context) <-chan struct{} {
	c.Stop(ctx)
	return c.done
}

// Receive enqueues msg into the mailbox. It returns false once a stop has
// been requested.
func (c *Context) Receive(msg message.Msg) bool {
	c.mu.RLock()
	if c.stopRequested.Load() {
		c.mu.RUnlock()
		return false
	}
	c.mailbox.Push(msg)
	c.mu.RUnlock()

	c.schedule()
	return true
}

// Post runs fn within the actor's next turn. It returns false once a stop
// has been requested.
func (c *Context) Post(fn func()) bool {
	c.mu.RLock()
	if c.stopRequested.Load() {
		c.mu.RUnlock()
		return false
	}
	c.work.Push(fn)
	c.mu.RUnlock()

	c.schedule()
	return true
}

// Send delivers msg to the actor id
func (c *Context) Send(id ID, msg Message, subID int64) bool {
	return c.system.Send(id, msg, subID)
}

// Call sends req to the actor id and waits for its response. The wait holds
// the thread running the turn: a pinned actor blocks its worker until the
// response arrives, and a call to itself or to an actor pinned on the same
// worker fails with ErrCallDeadlock. Use CallAsync from pinned actors.
func (c *Context) Call(ctx context.Context, id ID, req Request, subID int64) (Response, error) {
	if c.sharesThread(id) {
		return nil, fmt.Errorf("%w: %s calls %s", gerrors.ErrCallDeadlock, c.id, id)
	}
	return c.system.Call(ctx, id, req, subID)
}

// CallAsync sends req to the actor id without blocking the turn. The wait
// happens off the executor and then runs within a later turn of this actor
// with the response or the error. then is dropped when the actor stops
// before the response arrives.
func (c *Context) CallAsync(ctx context.Context, id ID, req Request, subID int64, then func(Response, error)) {
	go func() {
		resp, err := c.system.Call(ctx, id, req, subID)
		if !c.Post(func() { then(resp, err) }) {
			c.logger.Debugf("actor %s stopped before the response of %s arrived", c.id, id)
		}
	}()
}

// sharesThread reports whether id is this actor or an actor pinned on the
// same worker
func (c *Context) sharesThread(id ID) bool {
	if id == c.id {
		return true
	}

	if _, pinned := c.executor.(*Worker); !pinned || id.Node() != c.system.node {
		return false
	}

	target, ok := c.system.actors.Get(id)
	return ok && target.executor == c.executor
}

// AddTimeout schedules a one-shot timer delivered to OnTimer within the
// actor's turn. Timers are disposed when the actor stops.
func (c *Context) AddTimeout(due time.Duration, typ int, state any) timer.Handle {
	handle := c.system.wheel.AddTimeout(due, c.timerFired, typ, state)
	c.timers.Add(handle)
	return handle
}

// AddInterval schedules a periodic timer delivered to OnTimer within the
// actor's turn until disposed.
func (c *Context) AddInterval(due, period time.Duration, typ int, state any) timer.Handle {
	handle := c.system.wheel.AddInterval(due, period, c.timerFired, typ, state)
	c.timers.Add(handle)
	return handle
}

func (c *Context) timerFired(handle timer.Handle) {
	c.Post(func() {
		if !handle.Periodic() {
			c.timers.Remove(handle)
		}
		if receiver, ok := c.actor.(TimerReceiver); ok {
			receiver.OnTimer(handle)
		}
	})
}

func (c *Context) schedule() {
	if !c.busy.CompareAndSwap(false, true) {
		return
	}
	if !c.executor.schedule(c.turn) {
		c.busy.Store(false)
		c.logger.Warnf("actor %s: executor rejected the turn", c.id)
	}
}

func (c *Context) startTurn() {
	if err := c.safe("start hook", func() error { return c.actor.OnStart(c.startCtx, c) }); err != nil {
		c.logger.Errorf("actor %s failed to start: %v", c.id, err)
	}

	if !c.stopRequested.Load() {
		c.state.CompareAndSwap(int32(StateStarting), int32(StateRunning))
	}
	c.turn()
}

func (c *Context) turn() {
	for {
		if c.stopRequested.Load() {
			c.finish()
			return
		}

		c.drain()

		if _, pinned := c.executor.(*Worker); !pinned {
			c.tick()
		}

		c.busy.Store(false)
		if (c.stopRequested.Load() || !c.work.IsEmpty() || !c.mailbox.IsEmpty()) &&
			c.busy.CompareAndSwap(false, true) {
			continue
		}
		return
	}
}

// drain runs posted work then mailbox messages until both are empty or a
// stop is requested
func (c *Context) drain() {
	for !c.stopRequested.Load() {
		fn, ok := c.work.Pop()
		if !ok {
			break
		}
		c.runPosted(fn)
	}

	for !c.stopRequested.Load() {
		msg, ok := c.mailbox.Pop()
		if !ok {
			break
		}
		c.handle(msg)
	}
}

func (c *Context) handle(msg message.Msg) {
	defer c.recovery("message handler")
	c.subID = msg.SubID
	c.system.delivered.Inc()
	c.system.handlers.Dispatch(c.typeID, c.actor, msg.Body, msg.Reply)
}

func (c *Context) runPosted(fn func()) {
	defer c.recovery("posted callback")
	fn()
}

func (c *Context) tick() {
	if ticker, ok := c.actor.(Ticker); ok && c.State() == StateRunning {
		defer c.recovery("tick hook")
		ticker.OnTick()
	}
}

// finish runs the stop hook. The busy flag is never released afterwards so
// no further turn can be scheduled.
func (c *Context) finish() {
	c.state.Store(int32(StateStopping))

	for _, handle := range c.timers.ToSlice() {
		handle.Dispose()
	}
	c.timers.Clear()

	c.mu.RLock()
	forceCtx := c.forceCtx
	c.mu.RUnlock()

	if err := c.safe("stop hook", func() error { return c.actor.OnStop(forceCtx) }); err != nil {
		c.logger.Errorf("actor %s failed to stop: %v", c.id, err)
	}

	c.state.Store(int32(StateStopped))
	c.rejectPending()
	c.terminate()
}

// rejectPending answers the requests left in the mailbox so their callers
// do not wait for a response that will never come.
func (c *Context) rejectPending() {
	dropped := c.mailbox.Drain(func(msg message.Msg) {
		req, ok := msg.Body.(message.Request)
		if !ok || msg.Reply == nil {
			return
		}

		resp, err := c.system.types.NewResponse(req)
		if err != nil {
			c.logger.Warnf("actor %s: cannot reject request %T: %v", c.id, req, err)
			return
		}
		resp.SetErrCode(message.CodeServiceNotFound)
		resp.SetErrMsg(fmt.Sprintf("actor %s stopped", c.id))
		msg.Reply(resp)
	})
	c.work.Drain(func(func()) {})

	if dropped > 0 {
		c.logger.Debugf("actor %s stopped with %d pending messages", c.id, dropped)
	}
}

func (c *Context) terminate() {
	c.doneOnce.Do(func() {
		c.startCancel()
		c.system.unpin(c)
		close(c.done)
	})
}

// safe runs a lifecycle hook, turning a panic into an error
func (c *Context) safe(what string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if internal, ok := r.(*gerrors.InternalError); ok {
				panic(internal)
			}
			err = gerrors.NewPanicError(fmt.Errorf("%s: %v", what, r))
		}
	}()
	return fn()
}

// recovery isolates a panicking turn step. Internal errors are not
// recoverable and are raised again.
func (c *Context) recovery(what string) {
	if r := recover(); r != nil {
		if internal, ok := r.(*gerrors.InternalError); ok {
			panic(internal)
		}
		c.logger.Errorf("actor %s: %s panicked: %v", c.id, what, r)
	}
}
