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

package timer

import (
	"time"

	"github.com/tochemey/fastsu/log"
)

// Option is the interface that applies a Wheel option.
type Option interface {
	// Apply sets the Option value of a Wheel.
	Apply(*Wheel)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(*Wheel)

// Apply applies the Wheel's option
func (f OptionFunc) Apply(w *Wheel) {
	f(w)
}

// WithLogger sets the logger used to report callback panics
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(w *Wheel) {
		w.logger = logger
	})
}

// WithPauseDetector sets a probe reporting whether the process is paused,
// for instance under a debugger. While it returns true the wheel processes
// at most one tick per trigger and discards the accumulated backlog.
func WithPauseDetector(paused func() bool) Option {
	return OptionFunc(func(w *Wheel) {
		w.paused = paused
	})
}

// WithClock overrides the monotonic clock measuring elapsed time
func WithClock(clock func() time.Time) Option {
	return OptionFunc(func(w *Wheel) {
		w.clock = clock
	})
}
