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
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/flowchartsman/retry"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"
	"go.uber.org/goleak"

	"github.com/tochemey/fastsu/actor"
	"github.com/tochemey/fastsu/did"
	"github.com/tochemey/fastsu/log"
	"github.com/tochemey/fastsu/message"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type note struct {
	Text string `cbor:"text"`
}

func (*note) MsgID() uint32 { return 1 }

type echoRequest struct {
	message.RequestHeader
	Text string `cbor:"text"`
}

func (*echoRequest) MsgID() uint32    { return 2 }
func (*echoRequest) AckMsgID() uint32 { return 3 }

type echoResponse struct {
	message.ResponseHeader
	Text string `cbor:"text"`
	Node uint16 `cbor:"node"`
}

func (*echoResponse) MsgID() uint32 { return 3 }

type silentRequest struct {
	message.RequestHeader
}

func (*silentRequest) MsgID() uint32    { return 4 }
func (*silentRequest) AckMsgID() uint32 { return 3 }

// service is the actor hosted by every test node
type service struct {
	mu    sync.Mutex
	node  uint16
	notes []string
}

var _ actor.Actor = (*service)(nil)

func (s *service) OnStart(_ context.Context, self *actor.Context) error {
	s.node = self.System().Node()
	return nil
}

func (s *service) OnStop(context.Context) error {
	return nil
}

func (s *service) Notes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.notes...)
}

func testHandlers(t *testing.T) *message.Handlers {
	handlers := message.NewHandlers(log.DiscardLogger)
	require.NoError(t, handlers.Register(
		message.HandleMessage(func(s *service, m *note) {
			s.mu.Lock()
			s.notes = append(s.notes, m.Text)
			s.mu.Unlock()
		}),
		message.HandleRequest(func(s *service, q *echoRequest, reply func(*echoResponse)) {
			reply(&echoResponse{Text: q.Text, Node: s.node})
		}),
		message.HandleRequest(func(*service, *silentRequest, func(*echoResponse)) {}),
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

// testNode is an actor system with its transport and one service actor
type testNode struct {
	system    *actor.System
	transport *Transport
	service   *service
	serviceID actor.ID
}

func (n *testNode) address() string {
	return n.transport.Addr().String()
}

// newTestNode starts a node listening on a free local port. It is stopped
// when the test ends.
func newTestNode(t *testing.T, node uint16, opts ...Option) *testNode {
	generator := did.New()
	require.NoError(t, generator.Init(node))

	system, err := actor.NewSystem(
		actor.WithIDGenerator(generator),
		actor.WithLogger(log.DiscardLogger),
		actor.WithHandlers(testHandlers(t)),
		actor.WithTypes(testTypes(t)),
	)
	require.NoError(t, err)
	require.NoError(t, system.Start(context.Background()))

	ports := dynaport.Get(1)
	defaults := []Option{
		WithLogger(log.DiscardLogger),
		WithDialTimeout(time.Second),
	}
	config := NewConfig(node, fmt.Sprintf("127.0.0.1:%d", ports[0]), append(defaults, opts...)...)

	transport, err := NewTransport(system, config)
	require.NoError(t, err)
	require.NoError(t, transport.Start(context.Background()))

	t.Cleanup(func() {
		_ = transport.Stop(context.Background())
		_ = system.Shutdown(context.Background())
	})

	svc := new(service)
	id, err := system.Create(svc)
	require.NoError(t, err)

	return &testNode{
		system:    system,
		transport: transport,
		service:   svc,
		serviceID: id,
	}
}

// connect registers both nodes with each other
func connect(t *testing.T, a, b *testNode) {
	require.NoError(t, a.transport.Register(b.system.Node(), b.address()))
	require.NoError(t, b.transport.Register(a.system.Node(), a.address()))
}

// unusedAddress returns a local address nobody listens on
func unusedAddress() string {
	return fmt.Sprintf("127.0.0.1:%d", dynaport.Get(1)[0])
}

// dialRaw opens a plain connection to address, retrying while the listener
// comes up
func dialRaw(t *testing.T, address string) net.Conn {
	var conn net.Conn
	retrier := retry.NewRetrier(5, 50*time.Millisecond, time.Second)
	err := retrier.Run(func() error {
		var err error
		conn, err = net.DialTimeout("tcp", address, time.Second)
		return err
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
