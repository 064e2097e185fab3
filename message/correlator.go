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

package message

import (
	"context"
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/fastsu/errors"
	"github.com/tochemey/fastsu/internal/future"
	"github.com/tochemey/fastsu/internal/xsync"
)

// Pending is a call awaiting its response
type Pending struct {
	RpcID    uint32
	future   *future.Future[Response]
	node     uint16
	remote   bool
	resolved *atomic.Bool
}

// Correlator matches responses to pending calls. Every registered call must
// be resolved exactly once; anything else signals protocol corruption and
// panics with an internal error.
type Correlator struct {
	next    *atomic.Uint32
	pending *xsync.Map[uint32, *Pending]
	byNode  *xsync.Map[uint16, mapset.Set[uint32]]
	futures *future.Pool[Response]
}

// NewCorrelator creates an instance of Correlator
func NewCorrelator() *Correlator {
	return &Correlator{
		next:    atomic.NewUint32(0),
		pending: xsync.NewMap[uint32, *Pending](),
		byNode:  xsync.NewMap[uint16, mapset.Set[uint32]](),
		futures: future.NewPool[Response](),
	}
}

// Register creates a pending call answered in-process
func (c *Correlator) Register() (*Pending, error) {
	return c.register(&Pending{})
}

// RegisterRemote creates a pending call answered by node. It is failed by
// FailNode when the connection to node is lost.
func (c *Correlator) RegisterRemote(node uint16) (*Pending, error) {
	p, err := c.register(&Pending{node: node, remote: true})
	if err != nil {
		return nil, err
	}

	set, ok := c.byNode.Get(node)
	if !ok {
		fresh := mapset.NewSet[uint32]()
		if c.byNode.SetIfAbsent(node, fresh) {
			set = fresh
		} else {
			set, _ = c.byNode.Get(node)
		}
	}
	set.Add(p.RpcID)
	return p, nil
}

func (c *Correlator) register(p *Pending) (*Pending, error) {
	id := c.next.Inc()
	if id == 0 {
		id = c.next.Inc()
	}

	p.RpcID = id
	p.future = c.futures.Get()
	p.resolved = atomic.NewBool(false)
	if !c.pending.SetIfAbsent(id, p) {
		return nil, fmt.Errorf("%w: %d", gerrors.ErrDuplicateRpcID, id)
	}
	return p, nil
}

// Resolve completes the call registered under rpcID. An unknown rpc id
// panics with an internal error.
func (c *Correlator) Resolve(rpcID uint32, resp Response, err error) {
	if !c.TryResolve(rpcID, resp, err) {
		panic(gerrors.NewInternalError(fmt.Errorf("%w: %d", gerrors.ErrUnknownRpcID, rpcID)))
	}
}

// TryResolve completes the call registered under rpcID and reports whether
// it was pending. It is used for input that may legitimately be stale, such
// as responses read from the wire after a local failure.
func (c *Correlator) TryResolve(rpcID uint32, resp Response, err error) bool {
	p, ok := c.pending.Get(rpcID)
	if !ok || !p.resolved.CompareAndSwap(false, true) {
		return false
	}

	c.forget(p)
	p.future.Resolve(resp, err)
	return true
}

// Complete resolves p directly, whether or not its caller still waits. A
// call abandoned by its caller is already out of the table, so a late
// response is absorbed here. Completing a call twice panics with an
// internal error.
func (c *Correlator) Complete(p *Pending, resp Response, err error) {
	if !p.resolved.CompareAndSwap(false, true) {
		panic(gerrors.NewInternalError(fmt.Errorf("%w: rpc %d", gerrors.ErrFutureResolved, p.RpcID)))
	}

	c.forget(p)
	p.future.Resolve(resp, err)
}

// forget removes p from the table
func (c *Correlator) forget(p *Pending) {
	if current, ok := c.pending.Get(p.RpcID); ok && current == p {
		c.pending.Delete(p.RpcID)
	}
	if p.remote {
		if set, ok := c.byNode.Get(p.node); ok {
			set.Remove(p.RpcID)
		}
	}
}

// FailNode resolves every call pending on node with err and returns how many
// calls were failed.
func (c *Correlator) FailNode(node uint16, err error) int {
	set, ok := c.byNode.Get(node)
	if !ok {
		return 0
	}

	failed := 0
	for _, rpcID := range set.ToSlice() {
		if c.TryResolve(rpcID, nil, err) {
			failed++
		}
	}
	return failed
}

// Await blocks until the call is resolved or ctx is done. A call abandoned
// on ctx leaves the table: a late response by rpc id is then unknown, and
// one delivered through Complete is dropped.
func (c *Correlator) Await(ctx context.Context, p *Pending) (Response, error) {
	resp, err := p.future.Await(ctx)
	if err != nil {
		if ctx.Err() != nil {
			c.forget(p)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: rpc %d", gerrors.ErrRequestTimeout, p.RpcID)
		}
		return nil, err
	}
	return resp, CheckResponse(resp)
}

// Len returns the number of pending calls
func (c *Correlator) Len() int {
	return c.pending.Len()
}
