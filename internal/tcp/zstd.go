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
	"fmt"
	"net"

	"github.com/klauspost/compress/zstd"
)

// ZstdWrapper wraps connections with Zstandard stream compression
type ZstdWrapper struct {
	encoderOpts []zstd.EOption
	decoderOpts []zstd.DOption
}

var _ ConnWrapper = (*ZstdWrapper)(nil)

// ZstdOption configures a ZstdWrapper
type ZstdOption func(*ZstdWrapper)

// WithZstdLevel sets the encoder level
func WithZstdLevel(level zstd.EncoderLevel) ZstdOption {
	return func(z *ZstdWrapper) {
		z.encoderOpts = append(z.encoderOpts, zstd.WithEncoderLevel(level))
	}
}

// NewZstdWrapper creates a ZstdWrapper. The options are validated eagerly.
func NewZstdWrapper(opts ...ZstdOption) (*ZstdWrapper, error) {
	z := &ZstdWrapper{
		encoderOpts: []zstd.EOption{
			zstd.WithEncoderLevel(zstd.SpeedFastest),
			zstd.WithWindowSize(512 << 10),
			zstd.WithEncoderConcurrency(1),
			zstd.WithLowerEncoderMem(true),
		},
		decoderOpts: []zstd.DOption{
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(true),
			zstd.WithDecoderMaxMemory(64 << 20),
		},
	}

	for _, opt := range opts {
		opt(z)
	}

	enc, err := zstd.NewWriter(nil, z.encoderOpts...)
	if err != nil {
		return nil, fmt.Errorf("invalid zstd encoder options: %w", err)
	}
	_ = enc.Close()

	dec, err := zstd.NewReader(nil, z.decoderOpts...)
	if err != nil {
		return nil, fmt.Errorf("invalid zstd decoder options: %w", err)
	}
	dec.Close()
	return z, nil
}

// Wrap applies Zstandard compression to conn
func (z *ZstdWrapper) Wrap(conn net.Conn) (net.Conn, error) {
	enc, err := zstd.NewWriter(conn, z.encoderOpts...)
	if err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(conn, z.decoderOpts...)
	if err != nil {
		_ = enc.Close()
		return nil, err
	}

	return &compressedConn{
		raw:    conn,
		reader: dec,
		writer: enc,
	}, nil
}
