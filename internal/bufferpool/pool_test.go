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

package bufferpool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	t.Run("With recycled buffer", func(t *testing.T) {
		pool := New(0)
		assert.Equal(t, DefaultMaxRetained, pool.maxRetained)

		buf := pool.Get()
		require.NotNil(t, buf)
		buf.WriteString("frame")
		pool.Put(buf)

		next := pool.Get()
		assert.Zero(t, next.Len())
	})
	t.Run("With oversized buffer", func(t *testing.T) {
		pool := New(16)
		buf := bytes.NewBuffer(make([]byte, 0, 1024))
		buf.WriteString("large")
		pool.Put(buf)

		// oversized buffers are not reset since they are not kept
		assert.Equal(t, "large", buf.String())
	})
	t.Run("With nil buffer", func(t *testing.T) {
		pool := New(16)
		assert.NotPanics(t, func() { pool.Put(nil) })
	})
}
