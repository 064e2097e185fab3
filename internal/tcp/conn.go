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
	"errors"
	"io"
	"net"
	"time"
)

// Compression identifies the stream compression applied to a connection
type Compression int

const (
	// NoCompression leaves the stream untouched
	NoCompression Compression = iota
	// ZstdCompression compresses the stream with Zstandard
	ZstdCompression
	// BrotliCompression compresses the stream with Brotli
	BrotliCompression
)

// String returns the name of the compression
func (c Compression) String() string {
	switch c {
	case NoCompression:
		return "none"
	case ZstdCompression:
		return "zstd"
	case BrotliCompression:
		return "brotli"
	default:
		return "unknown"
	}
}

// ConnWrapper transforms a net.Conn, typically by adding a compression layer.
// Implementations must be safe for concurrent use.
type ConnWrapper interface {
	Wrap(conn net.Conn) (net.Conn, error)
}

// NewConnWrapper returns the wrapper implementing the given compression.
// NoCompression yields a nil wrapper.
func NewConnWrapper(compression Compression) (ConnWrapper, error) {
	switch compression {
	case NoCompression:
		return nil, nil
	case ZstdCompression:
		return NewZstdWrapper()
	case BrotliCompression:
		return NewBrotliWrapper(), nil
	default:
		return nil, errors.New("unsupported compression")
	}
}

type flushWriter interface {
	io.Writer
	Flush() error
}

// compressedConn flushes the compressor after every write so that each
// write reaches the peer as a decodable block. The codecs run synchronously
// and own no goroutine, so closing only releases the raw connection.
type compressedConn struct {
	raw    net.Conn
	reader io.Reader
	writer flushWriter
}

var _ net.Conn = (*compressedConn)(nil)

func (c *compressedConn) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

func (c *compressedConn) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	if err != nil {
		return n, err
	}
	return n, c.writer.Flush()
}

func (c *compressedConn) Close() error {
	return c.raw.Close()
}

func (c *compressedConn) LocalAddr() net.Addr                { return c.raw.LocalAddr() }
func (c *compressedConn) RemoteAddr() net.Addr               { return c.raw.RemoteAddr() }
func (c *compressedConn) SetDeadline(t time.Time) error      { return c.raw.SetDeadline(t) }
func (c *compressedConn) SetReadDeadline(t time.Time) error  { return c.raw.SetReadDeadline(t) }
func (c *compressedConn) SetWriteDeadline(t time.Time) error { return c.raw.SetWriteDeadline(t) }

// Wrap applies the wrappers to conn in order. On failure conn is closed.
func Wrap(conn net.Conn, wrappers ...ConnWrapper) (net.Conn, error) {
	for _, wrapper := range wrappers {
		if wrapper == nil {
			continue
		}
		wrapped, err := wrapper.Wrap(conn)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		conn = wrapped
	}
	return conn, nil
}
