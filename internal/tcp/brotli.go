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
	"net"

	"github.com/andybalholm/brotli"
)

// BrotliWrapper wraps connections with Brotli stream compression
type BrotliWrapper struct {
	level int
}

var _ ConnWrapper = (*BrotliWrapper)(nil)

// BrotliOption configures a BrotliWrapper
type BrotliOption func(*BrotliWrapper)

// WithBrotliLevel sets the compression level
func WithBrotliLevel(level int) BrotliOption {
	return func(b *BrotliWrapper) {
		if level >= brotli.BestSpeed && level <= brotli.BestCompression {
			b.level = level
		}
	}
}

// NewBrotliWrapper creates a BrotliWrapper
func NewBrotliWrapper(opts ...BrotliOption) *BrotliWrapper {
	b := &BrotliWrapper{level: brotli.BestSpeed}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Wrap applies Brotli compression to conn
func (b *BrotliWrapper) Wrap(conn net.Conn) (net.Conn, error) {
	return &compressedConn{
		raw:    conn,
		reader: brotli.NewReader(conn),
		writer: brotli.NewWriterLevel(conn, b.level),
	}, nil
}
