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

	"github.com/tochemey/fastsu/log"
)

// Option is the interface that applies a Config option.
type Option interface {
	// Apply sets the Option value of a Config.
	Apply(config *Config)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(config *Config)

// Apply applies the Config's option
func (f OptionFunc) Apply(config *Config) {
	f(config)
}

// WithDialTimeout sets the connect timeout of outbound connections
func WithDialTimeout(timeout time.Duration) Option {
	return OptionFunc(func(config *Config) {
		config.dialTimeout = timeout
	})
}

// WithKeepAlive sets the TCP keep alive period
func WithKeepAlive(keepAlive time.Duration) Option {
	return OptionFunc(func(config *Config) {
		config.keepAlive = keepAlive
	})
}

// WithWriteBufferSize sets the size of the buffered writer batching frames
func WithWriteBufferSize(size int) Option {
	return OptionFunc(func(config *Config) {
		config.writeBufferSize = size
	})
}

// WithMaxFrameSize sets the largest frame body accepted. Connections
// announcing a larger frame are closed.
func WithMaxFrameSize(size uint32) Option {
	return OptionFunc(func(config *Config) {
		config.maxFrameSize = size
	})
}

// WithCompression sets the stream compression. Both ends of a connection
// must use the same compression.
func WithCompression(compression Compression) Option {
	return OptionFunc(func(config *Config) {
		config.compression = compression
	})
}

// WithAcceptLoops sets the number of accept loops
func WithAcceptLoops(loops int) Option {
	return OptionFunc(func(config *Config) {
		config.acceptLoops = loops
	})
}

// WithRequestTimeout bounds how long an inbound request waits for the local
// actor's response
func WithRequestTimeout(timeout time.Duration) Option {
	return OptionFunc(func(config *Config) {
		config.requestTimeout = timeout
	})
}

// WithSerializer sets the body serializer
func WithSerializer(serializer Serializer) Option {
	return OptionFunc(func(config *Config) {
		config.serializer = serializer
	})
}

// WithLogger sets the transport logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(config *Config) {
		config.logger = logger
	})
}
