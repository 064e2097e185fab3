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

// Package future provides a pooled, single-use future completed by exactly
// one resolver and consumed by exactly one awaiter.
package future

import (
	"context"
	"sync"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/fastsu/errors"
)

const (
	waiting uint32 = iota
	resolving
	resolved
	abandoned
)

// Future holds the eventual result of a call. A Future comes from a Pool and
// returns to it once its result has been consumed.
type Future[T any] struct {
	state *atomic.Uint32
	done  chan struct{}
	value T
	err   error
	pool  *Pool[T]
}

// Resolve completes the future. Resolving a future twice panics with an
// internal error. When the awaiter has already given up the future is
// recycled here instead.
func (f *Future[T]) Resolve(value T, err error) {
	if f.state.CompareAndSwap(waiting, resolving) {
		f.value = value
		f.err = err
		f.state.Store(resolved)
		f.done <- struct{}{}
		return
	}

	if f.state.CompareAndSwap(abandoned, resolved) {
		f.release()
		return
	}

	panic(gerrors.NewInternalError(gerrors.ErrFutureResolved))
}

// Await blocks until the future is resolved or ctx is done. A resolved
// future is recycled before Await returns, so Await must be called once.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.consume()
	case <-ctx.Done():
		if f.state.CompareAndSwap(waiting, abandoned) {
			var zero T
			return zero, ctx.Err()
		}
		// a resolver won the race
		<-f.done
		return f.consume()
	}
}

// Resolved reports whether a result has been stored
func (f *Future[T]) Resolved() bool {
	return f.state.Load() == resolved
}

func (f *Future[T]) consume() (T, error) {
	value, err := f.value, f.err
	f.release()
	return value, err
}

func (f *Future[T]) release() {
	var zero T
	f.value = zero
	f.err = nil
	if f.pool != nil {
		f.pool.put(f)
	}
}

// Pool recycles futures
type Pool[T any] struct {
	futures sync.Pool
}

// NewPool creates an instance of Pool
func NewPool[T any]() *Pool[T] {
	p := new(Pool[T])
	p.futures.New = func() any {
		return &Future[T]{
			state: atomic.NewUint32(waiting),
			done:  make(chan struct{}, 1),
			pool:  p,
		}
	}
	return p
}

// Get returns a future ready to be resolved
func (p *Pool[T]) Get() *Future[T] {
	f := p.futures.Get().(*Future[T])
	f.state.Store(waiting)
	return f
}

func (p *Pool[T]) put(f *Future[T]) {
	p.futures.Put(f)
}
