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

package tcp

import (
	"context"
	"errors"
	"net"
	"sync"

	"go.uber.org/atomic"

	"github.com/tochemey/fastsu/log"
)

// Handler serves one accepted connection. The connection is closed once the
// handler returns.
type Handler func(ctx context.Context, conn net.Conn)

// ServerOption configures a Server
type ServerOption func(*Server)

// WithLoops sets the number of accept loops. Values below 1 are ignored.
func WithLoops(loops int) ServerOption {
	return func(s *Server) {
		if loops > 0 {
			s.loops = loops
		}
	}
}

// WithListenConfig sets the socket options of the listener
func WithListenConfig(config ListenConfig) ServerOption {
	return func(s *Server) {
		s.listenConfig = config
	}
}

// WithConnWrapper appends a wrapper applied to every accepted connection
func WithConnWrapper(wrapper ConnWrapper) ServerOption {
	return func(s *Server) {
		if wrapper != nil {
			s.wrappers = append(s.wrappers, wrapper)
		}
	}
}

// WithServerLogger sets the server logger
func WithServerLogger(logger log.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// Server accepts TCP connections on several accept loops sharing one
// listener and serves each connection on its own goroutine.
type Server struct {
	address      string
	handler      Handler
	loops        int
	listenConfig ListenConfig
	wrappers     []ConnWrapper
	logger       log.Logger

	listener *net.TCPListener
	ctx      context.Context
	cancel   context.CancelFunc

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	loopsWg sync.WaitGroup
	connsWg sync.WaitGroup

	started  *atomic.Bool
	stopped  *atomic.Bool
	accepted *atomic.Int64
}

// NewServer creates a Server listening on address once started
func NewServer(address string, handler Handler, opts ...ServerOption) *Server {
	s := &Server{
		address:      address,
		handler:      handler,
		loops:        2,
		listenConfig: ListenConfig{ReusePort: true},
		logger:       log.DefaultLogger,
		conns:        make(map[net.Conn]struct{}),
		started:      atomic.NewBool(false),
		stopped:      atomic.NewBool(false),
		accepted:     atomic.NewInt64(0),
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the listener and launches the accept loops
func (s *Server) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	listener, err := Listen(ctx, s.address, s.listenConfig)
	if err != nil {
		s.started.Store(false)
		return err
	}

	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	for range s.loops {
		s.loopsWg.Add(1)
		go s.acceptLoop()
	}
	return nil
}

// Addr returns the address the server listens on, or nil before Start
func (s *Server) Addr() *net.TCPAddr {
	if s.listener == nil {
		return nil
	}
	addr, _ := s.listener.Addr().(*net.TCPAddr)
	return addr
}

// Accepted returns the number of connections accepted so far
func (s *Server) Accepted() int64 {
	return s.accepted.Load()
}

// ActiveConnections returns the number of connections being served
func (s *Server) ActiveConnections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Stop closes the listener and every active connection, then waits for the
// handlers to return
func (s *Server) Stop() error {
	if !s.started.Load() || !s.stopped.CompareAndSwap(false, true) {
		return nil
	}

	s.cancel()
	err := s.listener.Close()
	s.loopsWg.Wait()

	s.mu.Lock()
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	s.connsWg.Wait()
	return err
}

func (s *Server) acceptLoop() {
	defer s.loopsWg.Done()
	for {
		conn, err := s.listener.AcceptTCP()
		if err != nil {
			if s.stopped.Load() || errors.Is(err, net.ErrClosed) {
				return
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}

			s.logger.Errorf("accept on %s failed: %v", s.address, err)
			return
		}

		s.accepted.Inc()
		if !s.track(conn) {
			_ = conn.Close()
			return
		}

		go s.serve(conn)
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	s.connsWg.Add(1)
	return true
}

func (s *Server) serve(raw *net.TCPConn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, raw)
		s.mu.Unlock()
		s.connsWg.Done()
	}()

	conn, err := Wrap(raw, s.wrappers...)
	if err != nil {
		s.logger.Warnf("failed to wrap connection from %s: %v", raw.RemoteAddr(), err)
		return
	}

	defer func() {
		_ = conn.Close()
	}()
	s.handler(s.ctx, conn)
}
