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

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/fastsu/did"
	gerrors "github.com/tochemey/fastsu/errors"
	"github.com/tochemey/fastsu/internal/chain"
	"github.com/tochemey/fastsu/internal/metric"
	"github.com/tochemey/fastsu/internal/workerpool"
	"github.com/tochemey/fastsu/internal/xsync"
	"github.com/tochemey/fastsu/log"
	"github.com/tochemey/fastsu/message"
	"github.com/tochemey/fastsu/timer"
)

// System is the registry of the actors living in this process. It hosts
// their turns, drives their timers and correlates calls made between them.
type System struct {
	logger    log.Logger
	generator *did.Generator
	node      uint16

	handlers   *message.Handlers
	types      *message.Types
	correlator *message.Correlator

	actors *xsync.Map[ID, *Context]
	// serializes registration against shutdown
	mu sync.RWMutex

	pool           *workerpool.WorkerPool
	passivateAfter time.Duration
	workers        *WorkerGroup
	pinnedWorkers  int
	wheel          *timer.Wheel
	timerOptions   []timer.Option

	router   Router
	routerMu sync.RWMutex

	meterProvider otelmetric.MeterProvider
	registration  otelmetric.Registration
	delivered     *atomic.Int64

	started *atomic.Bool
	stopped *atomic.Bool
}

// NewSystem creates an instance of System. The identifier generator must be
// initialized since its node becomes the system node.
func NewSystem(opts ...Option) (*System, error) {
	system := &System{
		logger:         log.DefaultLogger,
		generator:      did.Default(),
		correlator:     message.NewCorrelator(),
		actors:         xsync.NewMap[ID, *Context](),
		passivateAfter: time.Second,
		delivered:      atomic.NewInt64(0),
		started:        atomic.NewBool(false),
		stopped:        atomic.NewBool(false),
	}

	for _, opt := range opts {
		opt.Apply(system)
	}

	node, err := system.generator.Node()
	if err != nil {
		return nil, err
	}

	system.node = node
	if system.handlers == nil {
		system.handlers = message.NewHandlers(system.logger)
	}

	if system.types == nil {
		system.types = message.NewTypes()
	}

	system.pool = workerpool.New(workerpool.WithPassivateAfter(system.passivateAfter))
	system.workers = newWorkerGroup(system.pinnedWorkers, system.logger)
	system.wheel = timer.New(append([]timer.Option{timer.WithLogger(system.logger)}, system.timerOptions...)...)
	return system, nil
}

// Start starts the worker pool, the pinned workers and the timer wheel
func (x *System) Start(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.stopped.Load() {
		return gerrors.ErrSystemStopped
	}

	if x.started.Load() {
		return nil
	}

	if err := chain.New(ctx).
		AddIf(x.meterProvider != nil, "actor system metrics", func(context.Context) error {
			return x.registerMetrics()
		}, nil).
		Add("worker pool", func(context.Context) error {
			x.pool.Start()
			return nil
		}, nil).
		Add("pinned workers", func(context.Context) error {
			x.workers.start()
			return nil
		}, nil).
		Add("timer wheel", func(context.Context) error {
			x.wheel.Start()
			return nil
		}, nil).
		Run(); err != nil {
		return fmt.Errorf("failed to start actor system: %w", err)
	}

	x.started.Store(true)
	x.logger.Infof("actor system started on node %d", x.node)
	return nil
}

// Shutdown stops every actor in parallel and waits for their stop hooks to
// complete or ctx to be done. It returns once ctx is done even when a stop
// hook hangs; the hook keeps its goroutine until it returns. The system
// cannot be restarted.
func (x *System) Shutdown(ctx context.Context) error {
	x.mu.Lock()
	if !x.started.Load() || x.stopped.Swap(true) {
		x.mu.Unlock()
		return nil
	}
	contexts := x.actors.TakeAll()
	x.mu.Unlock()

	x.logger.Infof("shutting down actor system on node %d (%d actors)", x.node, len(contexts))

	eg, egCtx := errgroup.WithContext(ctx)
	for _, c := range contexts {
		eg.Go(func() error {
			select {
			case <-c.StopAsync(ctx):
				return nil
			case <-egCtx.Done():
				return fmt.Errorf("actor %s did not stop: %w", c.ID(), egCtx.Err())
			}
		})
	}
	err := eg.Wait()

	x.wheel.Stop()
	// hooks still running once ctx is done are left to return on their own
	if stopErr := multierr.Combine(x.workers.stop(ctx), x.pool.StopContext(ctx)); err == nil {
		err = stopErr
	}

	if x.registration != nil {
		err = multierr.Append(err, x.registration.Unregister())
	}

	x.started.Store(false)
	return err
}

// Create registers actor and starts it. The start hook runs outside the
// registry lock, after the actor is visible to senders. An explicit id set
// with WithID must be non-zero and carry the system node.
func (x *System) Create(actor Actor, opts ...CreateOption) (ID, error) {
	config := &createConfig{}
	for _, opt := range opts {
		opt.Apply(config)
	}

	id := config.id
	switch {
	case !config.hasID:
		next, err := x.generator.Next()
		if err != nil {
			return 0, err
		}
		id = next
	case id == 0:
		return 0, fmt.Errorf("%w: actor id must not be 0", gerrors.ErrInvalidNodeID)
	case id.Node() != x.node:
		return 0, fmt.Errorf("%w: actor id %s belongs to node %d, not %d", gerrors.ErrInvalidNodeID, id, id.Node(), x.node)
	}

	x.mu.RLock()
	if !x.started.Load() {
		x.mu.RUnlock()
		if x.stopped.Load() {
			return 0, gerrors.ErrSystemStopped
		}
		return 0, gerrors.ErrSystemNotStarted
	}

	var exec executor = &poolExecutor{pool: x.pool}
	var worker *Worker
	if config.pinned {
		if worker = x.workers.Pick(id); worker == nil {
			x.mu.RUnlock()
			return 0, gerrors.ErrNoPinnedWorker
		}
		exec = worker
	}

	c := newContext(x, id, actor, exec)
	if !x.actors.SetIfAbsent(id, c) {
		x.mu.RUnlock()
		return 0, fmt.Errorf("%w: %s", gerrors.ErrDuplicateID, id)
	}

	if worker != nil {
		worker.pin(c)
	}
	x.mu.RUnlock()

	if err := c.Start(); err != nil {
		x.actors.Delete(id)
		return 0, err
	}
	return id, nil
}

// Destroy removes the actor from the registry and waits for its stop hook,
// which runs under ctx.
func (x *System) Destroy(ctx context.Context, id ID) error {
	c, ok := x.actors.Take(id)
	if !ok {
		return fmt.Errorf("%w: %s", gerrors.ErrServiceNotFound, id)
	}

	select {
	case <-c.StopAsync(ctx):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send delivers msg to id without waiting for any response. Ids living on
// another node are handed to the router. It returns false when the target
// is unknown.
func (x *System) Send(id ID, msg Message, subID int64) bool {
	if id.Node() != x.node {
		if router := x.Router(); router != nil {
			return router.Send(id, msg, subID)
		}
		return false
	}
	return x.Post(id, message.NewMsg(msg, subID))
}

// Post delivers a raw envelope to a local actor
func (x *System) Post(id ID, msg message.Msg) bool {
	c, ok := x.actors.Get(id)
	if !ok {
		return false
	}
	return c.Receive(msg)
}

// Call sends req to id and waits for the response or ctx to be done. An
// unknown target fails immediately with ErrServiceNotFound.
func (x *System) Call(ctx context.Context, id ID, req Request, subID int64) (Response, error) {
	if id.Node() != x.node {
		if router := x.Router(); router != nil {
			return router.Call(ctx, id, req, subID)
		}
		return nil, fmt.Errorf("%w: %s", gerrors.ErrNodeNotFound, id)
	}

	c, ok := x.actors.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", gerrors.ErrServiceNotFound, id)
	}

	pending, err := x.correlator.Register()
	if err != nil {
		return nil, err
	}

	req.SetRpcID(pending.RpcID)
	msg := message.NewMsg(req, subID)
	msg.Reply = func(resp Response) {
		x.correlator.Complete(pending, resp, nil)
	}
	if !c.Receive(msg) {
		x.correlator.Complete(pending, nil, fmt.Errorf("%w: %s", gerrors.ErrServiceNotFound, id))
	}
	return x.correlator.Await(ctx, pending)
}

// Reply resolves the call the response belongs to. A response whose rpc id
// is not pending is a broken invariant and panics. Calls abandoned by their
// caller are no longer pending; handlers reply through the function bound to
// the request, which absorbs late responses.
func (x *System) Reply(resp Response) {
	x.correlator.Resolve(resp.RpcID(), resp, nil)
}

// Get returns the context of a local actor
func (x *System) Get(id ID) (*Context, bool) {
	return x.actors.Get(id)
}

// Actors returns the number of registered actors
func (x *System) Actors() int {
	return x.actors.Len()
}

// Node returns the node id of the system
func (x *System) Node() uint16 {
	return x.node
}

// Logger returns the system logger
func (x *System) Logger() log.Logger {
	return x.logger
}

// Handlers returns the handler registry
func (x *System) Handlers() *message.Handlers {
	return x.handlers
}

// Types returns the message type table
func (x *System) Types() *message.Types {
	return x.types
}

// Correlator returns the table of calls awaiting a local response
func (x *System) Correlator() *message.Correlator {
	return x.correlator
}

// Wheel returns the timer wheel
func (x *System) Wheel() *timer.Wheel {
	return x.wheel
}

// IDGenerator returns the identifier generator
func (x *System) IDGenerator() *did.Generator {
	return x.generator
}

// SetRouter sets the router handling ids of other nodes
func (x *System) SetRouter(router Router) {
	x.routerMu.Lock()
	x.router = router
	x.routerMu.Unlock()
}

// Router returns the router handling ids of other nodes, if any
func (x *System) Router() Router {
	x.routerMu.RLock()
	defer x.routerMu.RUnlock()
	return x.router
}

func (x *System) unpin(c *Context) {
	if worker, ok := c.executor.(*Worker); ok {
		worker.unpin(c)
	}
}

func (x *System) registerMetrics() error {
	provider := metric.NewProvider(metric.WithMeterProvider(x.meterProvider))
	meter := provider.Meter()

	instruments, err := metric.NewSystemMetric(meter)
	if err != nil {
		return err
	}

	attrs := otelmetric.WithAttributes(attribute.Int("actor.system.node", int(x.node)))
	x.registration, err = meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		observer.ObserveInt64(instruments.ActorsCount(), int64(x.actors.Len()), attrs)
		observer.ObserveInt64(instruments.PendingCalls(), int64(x.correlator.Len()), attrs)
		observer.ObserveInt64(instruments.TimersCount(), int64(x.wheel.Len()), attrs)
		observer.ObserveInt64(instruments.MessagesCount(), x.delivered.Load(), attrs)
		return nil
	},
		instruments.ActorsCount(),
		instruments.PendingCalls(),
		instruments.TimersCount(),
		instruments.MessagesCount(),
	)
	return err
}
