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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/fastsu/errors"
	"github.com/tochemey/fastsu/internal/queue"
	"github.com/tochemey/fastsu/internal/tcp"
)

// outbound is a queued frame. Requests are tracked by the correlator, so
// losing them is reported through their pending call rather than counted.
type outbound struct {
	frame   *bytes.Buffer
	request bool
}

// sender owns the single outbound connection to a node. Producers enqueue
// frames without blocking; one goroutine connects once and writes them in
// order through a buffered writer.
type sender struct {
	node      uint16
	address   string
	transport *Transport

	queue *queue.Mpsc[outbound]
	wake  chan struct{}

	// guards enqueues against teardown
	mu      sync.RWMutex
	closed  bool
	closing *atomic.Bool

	conn net.Conn
	done chan struct{}
}

func newSender(t *Transport, node uint16, address string) *sender {
	return &sender{
		node:      node,
		address:   address,
		transport: t,
		queue:     queue.NewMpsc[outbound](),
		wake:      make(chan struct{}, 1),
		closing:   atomic.NewBool(false),
		done:      make(chan struct{}),
	}
}

// enqueue queues a frame. It fails once the sender is torn down.
func (s *sender) enqueue(item outbound) error {
	s.mu.RLock()
	if s.closed || s.closing.Load() {
		s.mu.RUnlock()
		return fmt.Errorf("%w: node %d", gerrors.ErrDisconnected, s.node)
	}
	s.queue.Push(item)
	s.mu.RUnlock()

	s.signal()
	return nil
}

// close asks the sender to flush the queued frames then release the
// connection. It does not wait.
func (s *sender) close() {
	s.mu.Lock()
	s.closing.Store(true)
	s.mu.Unlock()
	s.signal()
}

func (s *sender) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *sender) run(ctx context.Context) {
	defer close(s.done)

	config := s.transport.config
	conn, err := tcp.Dial(ctx, s.address, tcp.DialConfig{
		Timeout:   config.DialTimeout(),
		KeepAlive: config.KeepAlive(),
		NoDelay:   true,
		Wrappers:  []tcp.ConnWrapper{s.transport.wrapper},
	})
	if err != nil {
		s.fail(fmt.Errorf("connect to node %d at %s: %w", s.node, s.address, err))
		return
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	writer := bufio.NewWriterSize(conn, config.WriteBufferSize())
	for {
		var writeErr error
		s.queue.Drain(func(item outbound) {
			if writeErr != nil {
				s.discard(item)
				return
			}
			_, writeErr = writer.Write(item.frame.Bytes())
			s.transport.buffers.Put(item.frame)
		})

		if writeErr == nil {
			writeErr = writer.Flush()
		}

		if writeErr != nil {
			s.fail(fmt.Errorf("write to node %d: %w", s.node, writeErr))
			return
		}

		if s.closing.Load() && s.queue.IsEmpty() {
			s.teardown()
			return
		}

		select {
		case <-s.wake:
		case <-ctx.Done():
			s.fail(ctx.Err())
			return
		}
	}
}

// teardown releases the connection once the queue is flushed
func (s *sender) teardown() {
	s.shutdown()
	s.transport.removeSender(s)
}

// shutdown rejects further frames and closes the connection
func (s *sender) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// abort closes the connection to unblock a pending write
func (s *sender) abort() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
}

// fail tears the sender down after a connection loss. Queued fire and forget
// frames are dropped and counted; pending calls to the node fail with
// ErrDisconnected whether their frame was written or still queued.
func (s *sender) fail(cause error) {
	s.shutdown()
	s.transport.removeSender(s)

	dropped := 0
	s.queue.Drain(func(item outbound) {
		if s.discard(item) {
			dropped++
		}
	})

	failed := s.transport.correlator.FailNode(s.node, fmt.Errorf("%w: node %d", gerrors.ErrDisconnected, s.node))
	s.transport.logger.Warnf("connection to node %d lost (%v): %d frames dropped, %d calls failed", s.node, cause, dropped, failed)
}

// discard drops a frame that will not be written and reports whether it was
// counted as dropped
func (s *sender) discard(item outbound) bool {
	s.transport.buffers.Put(item.frame)
	if item.request {
		return false
	}
	s.transport.dropped.Inc()
	return true
}
