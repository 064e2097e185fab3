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

package errorschain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestChain(t *testing.T) {
	t.Run("With ReturnFirst", func(t *testing.T) {
		e1, e2 := errors.New("err1"), errors.New("err2")
		err := New(ReturnFirst()).AddError(nil).AddError(e1).AddError(e2).Error()
		assert.ErrorIs(t, err, e1)
		assert.NotErrorIs(t, err, e2)
	})
	t.Run("With ReturnAll", func(t *testing.T) {
		e1, e2 := errors.New("err1"), errors.New("err2")
		err := New(ReturnAll()).AddErrors(e1, nil, e2).Error()
		require.Error(t, err)
		assert.Len(t, multierr.Errors(err), 2)
		assert.ErrorIs(t, err, e1)
		assert.ErrorIs(t, err, e2)
	})
	t.Run("With no error", func(t *testing.T) {
		assert.NoError(t, New().AddError(nil).Error())
	})
	t.Run("With deferred steps", func(t *testing.T) {
		var calls []string
		step := func(name string, err error) func() error {
			return func() error {
				calls = append(calls, name)
				return err
			}
		}

		err := New(ReturnFirst()).
			AddErrorFn(step("a", nil)).
			AddErrorFn(step("b", errors.New("b failed"))).
			AddErrorFn(step("c", nil)).
			Error()
		assert.EqualError(t, err, "b failed")
		assert.Equal(t, []string{"a", "b"}, calls)

		calls = nil
		err = New().
			AddErrorFn(step("a", errors.New("a failed"))).
			AddErrorFn(step("b", nil)).
			Error()
		assert.EqualError(t, err, "a failed")
		assert.Equal(t, []string{"a", "b"}, calls)
	})
}
