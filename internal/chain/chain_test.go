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

package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contextKey struct{}

func TestChain(t *testing.T) {
	t.Run("With every step succeeding", func(t *testing.T) {
		var order []string
		ctx := context.WithValue(context.Background(), contextKey{}, "value")

		err := New(ctx).
			Add("first", func(ctx context.Context) error {
				order = append(order, ctx.Value(contextKey{}).(string))
				return nil
			}, func() error {
				order = append(order, "undo first")
				return nil
			}).
			Add("second", func(context.Context) error {
				order = append(order, "second")
				return nil
			}, nil).
			Run()

		require.NoError(t, err)
		assert.Equal(t, []string{"value", "second"}, order)
	})
	t.Run("With failing step", func(t *testing.T) {
		var order []string
		failure := errors.New("failed")

		err := New(context.Background()).
			Add("first", func(context.Context) error {
				order = append(order, "first")
				return nil
			}, func() error {
				order = append(order, "undo first")
				return nil
			}).
			Add("second", func(context.Context) error {
				order = append(order, "second")
				return nil
			}, func() error {
				order = append(order, "undo second")
				return nil
			}).
			Add("third", func(context.Context) error {
				return failure
			}, func() error {
				order = append(order, "undo third")
				return nil
			}).
			Add("fourth", func(context.Context) error {
				order = append(order, "fourth")
				return nil
			}, nil).
			Run()

		require.ErrorIs(t, err, failure)
		assert.Contains(t, err.Error(), "third")
		assert.Equal(t, []string{"first", "second", "undo second", "undo first"}, order)
	})
	t.Run("With failing undo", func(t *testing.T) {
		failure := errors.New("failed")
		undoFailure := errors.New("undo failed")

		err := New(context.Background()).
			Add("first", func(context.Context) error { return nil }, func() error { return undoFailure }).
			Add("second", func(context.Context) error { return failure }, nil).
			Run()

		require.ErrorIs(t, err, failure)
		require.ErrorIs(t, err, undoFailure)
	})
	t.Run("With conditional step", func(t *testing.T) {
		called := false
		err := New(context.Background()).
			AddIf(false, "skipped", func(context.Context) error {
				called = true
				return errors.New("skipped")
			}, nil).
			Run()

		require.NoError(t, err)
		assert.False(t, called)
	})
}
