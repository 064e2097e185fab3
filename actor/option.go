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

package actor

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/fastsu/did"
	"github.com/tochemey/fastsu/log"
	"github.com/tochemey/fastsu/message"
	"github.com/tochemey/fastsu/timer"
)

// Option is the interface that applies a System option.
type Option interface {
	// Apply sets the Option value of a System.
	Apply(system *System)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(system *System)

// Apply applies the System's option
func (f OptionFunc) Apply(system *System) {
	f(system)
}

// WithLogger sets the system logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(system *System) {
		system.logger = logger
	})
}

// WithIDGenerator sets the identifier generator. It must be initialized
// before the system is created.
func WithIDGenerator(generator *did.Generator) Option {
	return OptionFunc(func(system *System) {
		system.generator = generator
	})
}

// WithHandlers sets the handler registry used to dispatch messages
func WithHandlers(handlers *message.Handlers) Option {
	return OptionFunc(func(system *System) {
		system.handlers = handlers
	})
}

// WithTypes sets the message type table
func WithTypes(types *message.Types) Option {
	return OptionFunc(func(system *System) {
		system.types = types
	})
}

// WithPinnedWorkers sets the number of dedicated workers hosting pinned actors
func WithPinnedWorkers(size int) Option {
	return OptionFunc(func(system *System) {
		if size > 0 {
			system.pinnedWorkers = size
		}
	})
}

// WithPassivateAfter sets how long an idle pool goroutine lingers before exiting
func WithPassivateAfter(d time.Duration) Option {
	return OptionFunc(func(system *System) {
		system.passivateAfter = d
	})
}

// WithTimerOptions sets the options of the system timer wheel
func WithTimerOptions(opts ...timer.Option) Option {
	return OptionFunc(func(system *System) {
		system.timerOptions = append(system.timerOptions, opts...)
	})
}

// WithMetricProvider enables OpenTelemetry metrics using the given meter provider
func WithMetricProvider(provider metric.MeterProvider) Option {
	return OptionFunc(func(system *System) {
		system.meterProvider = provider
	})
}

// CreateOption configures the creation of an actor
type CreateOption interface {
	// Apply sets the CreateOption value of a creation config.
	Apply(config *createConfig)
}

var _ CreateOption = CreateOptionFunc(nil)

// CreateOptionFunc implements the CreateOption interface.
type CreateOptionFunc func(config *createConfig)

// Apply applies the creation option
func (f CreateOptionFunc) Apply(config *createConfig) {
	f(config)
}

type createConfig struct {
	id     ID
	hasID  bool
	pinned bool
}

// WithID creates the actor under an explicit identity, typically a named id
// built with did.Make. The id must belong to the system node.
func WithID(id ID) CreateOption {
	return CreateOptionFunc(func(config *createConfig) {
		config.id = id
		config.hasID = true
	})
}

// WithPinned hosts the actor on a dedicated worker ticking every FrameInterval
func WithPinned() CreateOption {
	return CreateOptionFunc(func(config *createConfig) {
		config.pinned = true
	})
}
