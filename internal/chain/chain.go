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

// Package chain runs startup sequences. Steps run in insertion order and
// the first failure stops the sequence; the undo functions of the steps
// already completed then run in reverse order.
package chain

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

type step struct {
	name string
	run  func(ctx context.Context) error
	undo func() error
}

// Chain is a startup sequence
type Chain struct {
	ctx   context.Context
	steps []step
}

// New creates an empty sequence whose steps receive ctx
func New(ctx context.Context) *Chain {
	return &Chain{ctx: ctx}
}

// Add appends a step. undo may be nil when the step leaves nothing to release.
func (c *Chain) Add(name string, run func(ctx context.Context) error, undo func() error) *Chain {
	c.steps = append(c.steps, step{name: name, run: run, undo: undo})
	return c
}

// AddIf appends the step when condition is true
func (c *Chain) AddIf(condition bool, name string, run func(ctx context.Context) error, undo func() error) *Chain {
	if condition {
		return c.Add(name, run, undo)
	}
	return c
}

// Run executes the sequence. The returned error combines the failure with
// the errors raised while undoing.
func (c *Chain) Run() error {
	for i, s := range c.steps {
		err := s.run(c.ctx)
		if err == nil {
			continue
		}

		err = fmt.Errorf("%s: %w", s.name, err)
		for j := i - 1; j >= 0; j-- {
			if undo := c.steps[j].undo; undo != nil {
				if undoErr := undo(); undoErr != nil {
					err = multierr.Append(err, fmt.Errorf("undo %s: %w", c.steps[j].name, undoErr))
				}
			}
		}
		return err
	}
	return nil
}
