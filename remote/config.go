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
	"time"

	"github.com/tochemey/fastsu/internal/tcp"
	"github.com/tochemey/fastsu/internal/validation"
	"github.com/tochemey/fastsu/log"
)

const (
	// DefaultMaxFrameSize is the default largest frame body accepted
	DefaultMaxFrameSize uint32 = 16 << 20
	minFrameBodyLimit   uint32 = 1 << 10
)

// Compression aliases the stream compression applied to connections
type Compression = tcp.Compression

// Supported stream compressions
const (
	NoCompression     = tcp.NoCompression
	ZstdCompression   = tcp.ZstdCompression
	BrotliCompression = tcp.BrotliCompression
)

// Config holds the transport settings
type Config struct {
	node            uint16
	bindAddr        string
	dialTimeout     time.Duration
	keepAlive       time.Duration
	writeBufferSize int
	maxFrameSize    uint32
	compression     Compression
	acceptLoops     int
	requestTimeout  time.Duration
	serializer      Serializer
	logger          log.Logger
}

var _ validation.Validator = (*Config)(nil)

// NewConfig creates the configuration of the transport of node listening on
// bindAddr (host:port, port 0 picks a free port).
func NewConfig(node uint16, bindAddr string, opts ...Option) *Config {
	config := &Config{
		node:            node,
		bindAddr:        bindAddr,
		dialTimeout:     5 * time.Second,
		keepAlive:       15 * time.Second,
		writeBufferSize: 32 << 10,
		maxFrameSize:    DefaultMaxFrameSize,
		compression:     NoCompression,
		acceptLoops:     2,
		requestTimeout:  30 * time.Second,
		serializer:      NewCBORSerializer(),
		logger:          log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(config)
	}
	return config
}

// Node returns the local node id
func (x *Config) Node() uint16 {
	return x.node
}

// BindAddr returns the listen address
func (x *Config) BindAddr() string {
	return x.bindAddr
}

// DialTimeout returns the connect timeout of outbound connections
func (x *Config) DialTimeout() time.Duration {
	return x.dialTimeout
}

// KeepAlive returns the TCP keep alive period
func (x *Config) KeepAlive() time.Duration {
	return x.keepAlive
}

// WriteBufferSize returns the size of the buffered writer batching frames
func (x *Config) WriteBufferSize() int {
	return x.writeBufferSize
}

// MaxFrameSize returns the largest frame body accepted
func (x *Config) MaxFrameSize() uint32 {
	return x.maxFrameSize
}

// Compression returns the stream compression
func (x *Config) Compression() Compression {
	return x.compression
}

// AcceptLoops returns the number of accept loops
func (x *Config) AcceptLoops() int {
	return x.acceptLoops
}

// RequestTimeout returns how long an inbound request may wait for the local
// actor's response
func (x *Config) RequestTimeout() time.Duration {
	return x.requestTimeout
}

// Serializer returns the body serializer
func (x *Config) Serializer() Serializer {
	return x.serializer
}

// Logger returns the transport logger
func (x *Config) Logger() log.Logger {
	return x.logger
}

// Validate implements validation.Validator
func (x *Config) Validate() error {
	return validation.New().
		AddValidator(validation.NewNodeValidator(int(x.node))).
		AddValidator(validation.NewAddressValidator(x.bindAddr)).
		AddAssertion(x.dialTimeout > 0, "dialTimeout must be greater than 0").
		AddAssertion(x.keepAlive >= 0, "keepAlive must not be negative").
		AddAssertion(x.writeBufferSize > 0, "writeBufferSize must be greater than 0").
		AddAssertion(x.maxFrameSize >= minFrameBodyLimit, "maxFrameSize must be at least 1KB").
		AddAssertion(x.compression >= NoCompression && x.compression <= BrotliCompression, "unsupported compression").
		AddAssertion(x.acceptLoops > 0, "acceptLoops must be greater than 0").
		AddAssertion(x.requestTimeout > 0, "requestTimeout must be greater than 0").
		AddAssertion(x.serializer != nil, "a serializer is required").
		AddAssertion(x.logger != nil, "a logger is required").
		Validate()
}
