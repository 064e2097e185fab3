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
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"
	"go.uber.org/goleak"

	"github.com/tochemey/fastsu/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// echo writes every line it reads back to the peer
func echo(_ context.Context, conn net.Conn) {
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		if _, err := io.WriteString(conn, line); err != nil {
			return
		}
	}
}

func startServer(t *testing.T, handler Handler, opts ...ServerOption) *Server {
	port := dynaport.Get(1)[0]
	opts = append([]ServerOption{WithServerLogger(log.DiscardLogger)}, opts...)
	server := NewServer(fmt.Sprintf("127.0.0.1:%d", port), handler, opts...)
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(func() {
		_ = server.Stop()
	})
	return server
}

func roundTrip(t *testing.T, server *Server, wrappers ...ConnWrapper) {
	conn, err := Dial(context.Background(), server.Addr().String(), DialConfig{
		Timeout:  time.Second,
		NoDelay:  true,
		Wrappers: wrappers,
	})
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
	}()

	reader := bufio.NewReader(conn)
	for i := range 10 {
		text := fmt.Sprintf("line %d\n", i)
		_, err := io.WriteString(conn, text)
		require.NoError(t, err)

		got, err := reader.ReadString('\n')
		require.NoError(t, err)
		assert.Equal(t, text, got)
	}
}

func TestServer(t *testing.T) {
	t.Run("With plain connections", func(t *testing.T) {
		server := startServer(t, echo, WithLoops(4))
		require.NotNil(t, server.Addr())
		roundTrip(t, server)
		assert.EqualValues(t, 1, server.Accepted())
	})
	t.Run("With zstd compression", func(t *testing.T) {
		wrapper, err := NewZstdWrapper()
		require.NoError(t, err)
		server := startServer(t, echo, WithConnWrapper(wrapper))
		roundTrip(t, server, wrapper)
	})
	t.Run("With brotli compression", func(t *testing.T) {
		wrapper := NewBrotliWrapper(WithBrotliLevel(5))
		server := startServer(t, echo, WithConnWrapper(wrapper))
		roundTrip(t, server, wrapper)
	})
	t.Run("With stop closing active connections", func(t *testing.T) {
		server := startServer(t, echo)
		conn, err := Dial(context.Background(), server.Addr().String(), DialConfig{Timeout: time.Second})
		require.NoError(t, err)
		defer func() {
			_ = conn.Close()
		}()

		require.Eventually(t, func() bool { return server.ActiveConnections() == 1 }, time.Second, 5*time.Millisecond)
		require.NoError(t, server.Stop())
		assert.Zero(t, server.ActiveConnections())

		_, err = conn.Read(make([]byte, 1))
		assert.Error(t, err)
		assert.NoError(t, server.Stop())
	})
	t.Run("With address already in use", func(t *testing.T) {
		server := startServer(t, echo, WithListenConfig(ListenConfig{}))
		other := NewServer(server.Addr().String(), echo, WithListenConfig(ListenConfig{}), WithServerLogger(log.DiscardLogger))
		assert.Error(t, other.Start(context.Background()))
		assert.NoError(t, other.Stop())
	})
	t.Run("With unreachable peer", func(t *testing.T) {
		port := dynaport.Get(1)[0]
		_, err := Dial(context.Background(), fmt.Sprintf("127.0.0.1:%d", port), DialConfig{Timeout: time.Second})
		assert.Error(t, err)
	})
}

func TestConnWrapper(t *testing.T) {
	wrapper, err := NewConnWrapper(NoCompression)
	require.NoError(t, err)
	assert.Nil(t, wrapper)

	wrapper, err = NewConnWrapper(ZstdCompression)
	require.NoError(t, err)
	assert.IsType(t, &ZstdWrapper{}, wrapper)

	wrapper, err = NewConnWrapper(BrotliCompression)
	require.NoError(t, err)
	assert.IsType(t, &BrotliWrapper{}, wrapper)

	_, err = NewConnWrapper(Compression(42))
	assert.Error(t, err)

	assert.Equal(t, "zstd", ZstdCompression.String())
	assert.Equal(t, "unknown", Compression(42).String())
}

func TestGetBindIP(t *testing.T) {
	t.Run("With explicit host", func(t *testing.T) {
		ip, err := GetBindIP("127.0.0.1:9000")
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", ip)

		addr, err := AdvertisedAddress("127.0.0.1:9000")
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9000", addr)
	})
	t.Run("With invalid address", func(t *testing.T) {
		_, err := GetBindIP("not an address")
		assert.Error(t, err)
	})
	t.Run("With host and port", func(t *testing.T) {
		host, port, err := GetHostPort("127.0.0.1:4000")
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1", host)
		assert.Equal(t, 4000, port)
	})
}
