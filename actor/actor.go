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

// Package actor implements the actor runtime: per-actor execution contexts
// guaranteeing a single active turn, the registry owning them and the
// executors running their turns.
package actor

import (
	"context"

	"github.com/tochemey/fastsu/timer"
)

// Actor is a logical unit processing one turn at a time. Messages reach it
// through the handlers registered for its type.
type Actor interface {
	// OnStart runs when the actor starts. ctx is cancelled when a stop is
	// requested while the hook is still running.
	OnStart(ctx context.Context, self *Context) error
	// OnStop runs once when the actor stops. ctx is the deadline supplied
	// by the caller requesting the stop.
	OnStop(ctx context.Context) error
}

// Ticker is implemented by actors needing a tick hook. Only pinned actors
// tick periodically, once per worker frame (FrameInterval). Actors on the
// shared pool tick once at the end of each turn, so an idle pool actor never
// ticks; create the actor WithPinned when it needs a steady tick.
type Ticker interface {
	OnTick()
}

// TimerReceiver is implemented by actors scheduling timers through their
// Context. OnTimer runs within the actor's own turn.
type TimerReceiver interface {
	OnTimer(handle timer.Handle)
}

// Router delivers traffic addressed to actors living on other nodes
type Router interface {
	Send(id ID, msg Message, subID int64) bool
	Call(ctx context.Context, id ID, req Request, subID int64) (Response, error)
}
