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

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestChain(t *testing.T) {
	t.Run("With all errors", func(t *testing.T) {
		err := New().
			AddAssertion(false, "first").
			AddAssertion(true, "skipped").
			AddValidator(NewNodeValidator(5000)).
			Validate()
		require.Error(t, err)
		assert.Len(t, multierr.Errors(err), 2)
		assert.Contains(t, err.Error(), "first")
	})
	t.Run("With fail fast", func(t *testing.T) {
		err := New(FailFast()).
			AddAssertion(false, "first").
			AddAssertion(false, "second").
			Validate()
		require.Error(t, err)
		assert.EqualError(t, err, "first")
	})
	t.Run("With no violation", func(t *testing.T) {
		assert.NoError(t, New(AllErrors()).AddAssertion(true, "ok").Validate())
	})
}

func TestAddressValidator(t *testing.T) {
	t.Run("With valid address", func(t *testing.T) {
		assert.NoError(t, NewAddressValidator("127.0.0.1:3222").Validate())
		assert.NoError(t, NewAddressValidator("0.0.0.0:0").Validate())
	})
	t.Run("With invalid port", func(t *testing.T) {
		assert.Error(t, NewAddressValidator("127.0.0.1:-1").Validate())
		assert.Error(t, NewAddressValidator("127.0.0.1:655387").Validate())
		assert.Error(t, NewAddressValidator("127.0.0.1:port").Validate())
	})
	t.Run("With missing host", func(t *testing.T) {
		assert.Error(t, NewAddressValidator(":3222").Validate())
		assert.Error(t, NewAddressValidator("127.0.0.1").Validate())
	})
}

func TestNodeValidator(t *testing.T) {
	assert.NoError(t, NewNodeValidator(0).Validate())
	assert.NoError(t, NewNodeValidator(MaxNodeID).Validate())
	assert.Error(t, NewNodeValidator(MaxNodeID+1).Validate())
	assert.Error(t, NewNodeValidator(-1).Validate())
}
