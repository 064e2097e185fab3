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

package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/tochemey/fastsu/actor"
	"github.com/tochemey/fastsu/did"
	gerrors "github.com/tochemey/fastsu/errors"
	"github.com/tochemey/fastsu/internal/bufferpool"
	"github.com/tochemey/fastsu/internal/chain"
	"github.com/tochemey/fastsu/internal/errorschain"
	"github.com/tochemey/fastsu/internal/metric"
	"github.com/tochemey/fastsu/internal/tcp"
	"github.com/tochemey/fastsu/log"
	"github.com/tochemey/fastsu/message"
)

// Transport connects the actor system of this process to the systems of
// other nodes. It routes traffic addressed to remote actor ids over one
// outbound connection per node and delivers inbound frames locally.
type Transport struct {
	config     *Config
	system     *actor.System
	types      *message.Types
	correlator *message.Correlator
	logger     log.Logger
	node       uint16
	wrapper    tcp.ConnWrapper
	buffers    *bufferpool.Pool

	mu        sync.RWMutex
	addresses map[uint16]string
	senders   map[uint16]*sender
	// every running sender, including the draining ones
	live mapset.Set[*sender]

	server   *tcp.Server
	ctx      context.Context
	cancel   context.CancelFunc
	senderWg sync.WaitGroup
	inflight sync.WaitGroup

	dropped    *atomic.Int64
	started    *atomic.Bool
	stopped    *atomic.Bool
	advertised *atomic.String

	meterProvider otelmetric.MeterProvider
	registration  otelmetric.Registration
}

var _ actor.Router = (*Transport)(nil)

// TransportOption configures a Transport
type TransportOption func(*Transport)

// WithMetricProvider enables OpenTelemetry metrics using the given meter provider
func WithMetricProvider(provider otelmetric.MeterProvider) TransportOption {
	return func(t *Transport) {
		t.meterProvider = provider
	}
}

// NewTransport creates the transport of system and installs it as the
// system router
func NewTransport(system *actor.System, config *Config, opts ...TransportOption) (*Transport, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid transport config: %w", err)
	}

	if config.Node() != system.Node() {
		return nil, fmt.Errorf("%w: config node %d does not match system node %d", gerrors.ErrInvalidNodeID, config.Node(), system.Node())
	}

	wrapper, err := tcp.NewConnWrapper(config.Compression())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{
		config:     config,
		system:     system,
		types:      system.Types(),
		correlator: message.NewCorrelator(),
		logger:     config.Logger(),
		node:       config.Node(),
		wrapper:    wrapper,
		buffers:    bufferpool.New(int(min(config.MaxFrameSize(), bufferpool.DefaultMaxRetained))),
		addresses:  make(map[uint16]string),
		senders:    make(map[uint16]*sender),
		live:       mapset.NewSet[*sender](),
		ctx:        ctx,
		cancel:     cancel,
		dropped:    atomic.NewInt64(0),
		started:    atomic.NewBool(false),
		stopped:    atomic.NewBool(false),
		advertised: atomic.NewString(""),
	}

	for _, opt := range opts {
		opt(t)
	}

	system.SetRouter(t)
	return t, nil
}

// Start listens for inbound connections
func (t *Transport) Start(ctx context.Context) error {
	if t.stopped.Load() {
		return gerrors.ErrTransportStopped
	}

	if !t.started.CompareAndSwap(false, true) {
		return nil
	}

	t.server = tcp.NewServer(t.config.BindAddr(), t.serveConn,
		tcp.WithLoops(t.config.AcceptLoops()),
		tcp.WithConnWrapper(t.wrapper),
		tcp.WithServerLogger(t.logger),
	)

	if err := chain.New(ctx).
		AddIf(t.meterProvider != nil, "transport metrics", func(context.Context) error {
			return t.registerMetrics()
		}, func() error {
			registration := t.registration
			t.registration = nil
			return registration.Unregister()
		}).
		Add("listener on "+t.config.BindAddr(), t.server.Start, nil).
		Run(); err != nil {
		t.started.Store(false)
		return fmt.Errorf("failed to start transport: %w", err)
	}

	listen := t.server.Addr().String()
	advertised, err := tcp.AdvertisedAddress(listen)
	if err != nil {
		t.logger.Warnf("transport of node %d: no interface address to advertise for %s: %v", t.node, listen, err)
		advertised = listen
	}
	t.advertised.Store(advertised)

	t.logger.Infof("transport of node %d listening on %s (advertised as %s)", t.node, listen, advertised)
	return nil
}

// AdvertisedAddr returns the address peers should register for this node,
// or an empty string before Start. A transport bound to an unspecified host
// advertises an interface address with the bound port.
func (t *Transport) AdvertisedAddr() string {
	return t.advertised.Load()
}

// Addr returns the address the transport listens on, or nil before Start
func (t *Transport) Addr() net.Addr {
	if t.server == nil {
		return nil
	}
	if addr := t.server.Addr(); addr != nil {
		return addr
	}
	return nil
}

// Stop closes the listener and the senders. Queued frames are flushed
// until ctx is done. Calls still waiting on a remote node fail with
// ErrDisconnected.
func (t *Transport) Stop(ctx context.Context) error {
	if !t.stopped.CompareAndSwap(false, true) {
		return nil
	}

	t.mu.Lock()
	senders := t.live.ToSlice()
	t.senders = make(map[uint16]*sender)
	nodes := make([]uint16, 0, len(t.addresses))
	for node := range t.addresses {
		nodes = append(nodes, node)
	}
	t.addresses = make(map[uint16]string)
	t.mu.Unlock()

	errs := errorschain.New(errorschain.ReturnAll())
	if t.server != nil {
		errs.AddError(t.server.Stop())
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, s := range senders {
		s.close()
		eg.Go(func() error {
			select {
			case <-s.done:
				return nil
			case <-egCtx.Done():
				return fmt.Errorf("sender to node %d did not drain: %w", s.node, egCtx.Err())
			}
		})
	}
	errs.AddError(eg.Wait())

	// unblock the senders still connecting or writing
	t.cancel()
	for _, s := range senders {
		s.abort()
	}
	t.senderWg.Wait()
	t.inflight.Wait()

	for _, node := range nodes {
		t.correlator.FailNode(node, fmt.Errorf("%w: node %d", gerrors.ErrDisconnected, node))
	}

	if t.registration != nil {
		errs.AddError(t.registration.Unregister())
	}
	return errs.Error()
}

// Register records the address of node. Connections are opened lazily on
// the first frame sent to the node.
func (t *Transport) Register(node uint16, address string) error {
	if node == t.node {
		return fmt.Errorf("%w: node %d is the local node", gerrors.ErrInvalidNodeID, node)
	}

	if int(node) > did.MaxNode {
		return fmt.Errorf("%w: %d", gerrors.ErrInvalidNodeID, node)
	}

	t.mu.Lock()
	t.addresses[node] = address
	t.mu.Unlock()
	return nil
}

// Unregister forgets node. Frames already queued for it are still written
// before its connection is released. It does not wait for that to happen.
func (t *Transport) Unregister(node uint16) {
	t.mu.Lock()
	delete(t.addresses, node)
	s, ok := t.senders[node]
	if ok {
		delete(t.senders, node)
	}
	t.mu.Unlock()

	if ok {
		s.close()
	}
}

// Nodes returns the number of registered nodes
func (t *Transport) Nodes() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.addresses)
}

// Senders returns the number of live senders
func (t *Transport) Senders() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.senders)
}

// Dropped returns the number of fire and forget frames dropped on
// connection loss
func (t *Transport) Dropped() int64 {
	return t.dropped.Load()
}

// Correlator returns the table of calls awaiting a remote response
func (t *Transport) Correlator() *message.Correlator {
	return t.correlator
}

// Send delivers msg to id. Local ids are handed to the actor system.
func (t *Transport) Send(id actor.ID, msg actor.Message, subID int64) bool {
	if id.Node() == t.node {
		return t.system.Send(id, msg, subID)
	}

	if err := t.send(id, msg, subID, false); err != nil {
		t.logger.Debugf("send to %s failed: %v", id, err)
		return false
	}
	return true
}

// Call sends req to id and waits for its response. Local ids are handed to
// the actor system.
func (t *Transport) Call(ctx context.Context, id actor.ID, req actor.Request, subID int64) (actor.Response, error) {
	if id.Node() == t.node {
		return t.system.Call(ctx, id, req, subID)
	}

	if _, err := t.senderFor(id.Node()); err != nil {
		return nil, err
	}

	pending, err := t.correlator.RegisterRemote(id.Node())
	if err != nil {
		return nil, err
	}

	req.SetRpcID(pending.RpcID)
	if err := t.send(id, req, subID, true); err != nil {
		t.correlator.TryResolve(pending.RpcID, nil, err)
	}
	return t.correlator.Await(ctx, pending)
}

func (t *Transport) send(id did.ID, msg message.Message, subID int64, request bool) error {
	s, err := t.senderFor(id.Node())
	if err != nil {
		return err
	}

	frame, err := t.encode(id, msg, subID)
	if err != nil {
		return err
	}

	if err := s.enqueue(outbound{frame: frame, request: request}); err != nil {
		t.buffers.Put(frame)
		return err
	}
	return nil
}

// encode builds the frame of msg into a pooled buffer. The id node is
// replaced by the local node so that the receiver knows where the frame
// comes from.
func (t *Transport) encode(id did.ID, msg message.Message, subID int64) (*bytes.Buffer, error) {
	var header [MinFrameSize]byte
	buf := t.buffers.Get()
	buf.Write(header[:])
	if err := t.config.Serializer().Serialize(msg, buf); err != nil {
		t.buffers.Put(buf)
		return nil, err
	}

	frame := buf.Bytes()
	bodyLen := len(frame) - MinFrameSize
	if uint32(bodyLen) > t.config.MaxFrameSize() {
		t.buffers.Put(buf)
		return nil, fmt.Errorf("%w: message %T is %d bytes", gerrors.ErrFrameTooLarge, msg, bodyLen)
	}

	putHeader(frame, uint32(bodyLen), id.WithNode(t.node), subID, msg.MsgID())
	return buf, nil
}

// senderFor returns the sender of node, creating it on first use
func (t *Transport) senderFor(node uint16) (*sender, error) {
	if t.stopped.Load() {
		return nil, gerrors.ErrTransportStopped
	}

	t.mu.RLock()
	s, ok := t.senders[node]
	t.mu.RUnlock()
	if ok {
		return s, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.senders[node]; ok {
		return s, nil
	}

	address, ok := t.addresses[node]
	if !ok {
		return nil, fmt.Errorf("%w: %d", gerrors.ErrNodeNotFound, node)
	}

	if t.stopped.Load() {
		return nil, gerrors.ErrTransportStopped
	}

	s = newSender(t, node, address)
	t.senders[node] = s
	t.live.Add(s)
	t.senderWg.Add(1)
	go func() {
		defer t.senderWg.Done()
		defer t.live.Remove(s)
		s.run(t.ctx)
	}()
	return s, nil
}

func (t *Transport) removeSender(s *sender) {
	t.mu.Lock()
	if current, ok := t.senders[s.node]; ok && current == s {
		delete(t.senders, s.node)
	}
	t.mu.Unlock()
}

// serveConn reads frames from an inbound connection until it fails
func (t *Transport) serveConn(ctx context.Context, conn net.Conn) {
	decoder := NewDecoder(conn, t.config.MaxFrameSize())
	for {
		frame, err := decoder.Next()
		if err != nil {
			switch {
			case errors.Is(err, gerrors.ErrFrameTooLarge):
				t.logger.Warnf("closing connection from %s: %v", conn.RemoteAddr(), err)
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), ctx.Err() != nil:
			default:
				t.logger.Debugf("connection from %s closed: %v", conn.RemoteAddr(), err)
			}
			return
		}
		t.handleFrame(ctx, frame)
	}
}

// handleFrame delivers one inbound frame. The frame body is only valid for
// the duration of the call.
func (t *Transport) handleFrame(ctx context.Context, frame Frame) {
	msg, err := t.types.New(frame.MsgID)
	if err != nil {
		t.logger.Warnf("discarding frame from node %d: %v", frame.ID.Node(), err)
		return
	}

	if err := t.config.Serializer().Deserialize(msg, frame.Body); err != nil {
		t.logger.Warnf("discarding frame %d from node %d: %v", frame.MsgID, frame.ID.Node(), err)
		return
	}

	source := frame.ID.Node()
	target := frame.ID.WithNode(t.node)

	switch m := msg.(type) {
	case message.Response:
		if !t.correlator.TryResolve(m.RpcID(), m, nil) {
			t.logger.Debugf("no pending call for response %d from node %d", m.RpcID(), source)
		}
	case message.Request:
		t.serveRequest(ctx, source, target, m, frame.SubID)
	default:
		if !t.system.Send(target, msg, frame.SubID) {
			t.logger.Debugf("message %d from node %d: actor %s not found", frame.MsgID, source, target)
		}
	}
}

// serveRequest calls the local actor and sends the response back to the
// source node under the caller's rpc id
func (t *Transport) serveRequest(ctx context.Context, source uint16, target did.ID, req message.Request, subID int64) {
	rpcID := req.RpcID()
	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()

		callCtx, cancel := context.WithTimeout(ctx, t.config.RequestTimeout())
		defer cancel()

		resp, err := t.system.Call(callCtx, target, req, subID)
		if resp == nil {
			if resp, err = t.errorResponse(req, err); err != nil {
				t.logger.Warnf("cannot answer request %d from node %d: %v", rpcID, source, err)
				return
			}
		}

		resp.SetRpcID(rpcID)
		if err := t.send(did.ID(0).WithNode(source), resp, 0, false); err != nil {
			t.logger.Warnf("cannot answer request %d to node %d: %v", rpcID, source, err)
		}
	}()
}

func (t *Transport) errorResponse(req message.Request, cause error) (message.Response, error) {
	resp, err := t.types.NewResponse(req)
	if err != nil {
		return nil, err
	}

	code := message.CodeOf(cause)
	if code == message.CodeSuccess {
		code = message.CodeException
	}

	resp.SetErrCode(code)
	if cause != nil {
		resp.SetErrMsg(cause.Error())
	}
	return resp, nil
}

func (t *Transport) registerMetrics() error {
	provider := metric.NewProvider(metric.WithMeterProvider(t.meterProvider))
	meter := provider.Meter()

	instruments, err := metric.NewTransportMetric(meter)
	if err != nil {
		return err
	}

	attrs := otelmetric.WithAttributes(attribute.Int("transport.node", int(t.node)))
	t.registration, err = meter.RegisterCallback(func(_ context.Context, observer otelmetric.Observer) error {
		observer.ObserveInt64(instruments.NodesCount(), int64(t.Nodes()), attrs)
		observer.ObserveInt64(instruments.SendersCount(), int64(t.Senders()), attrs)
		observer.ObserveInt64(instruments.DroppedFrames(), t.Dropped(), attrs)
		return nil
	},
		instruments.NodesCount(),
		instruments.SendersCount(),
		instruments.DroppedFrames(),
	)
	return err
}
