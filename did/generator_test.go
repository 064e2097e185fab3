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

package did

import (
	"bytes"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gerrors "github.com/tochemey/fastsu/errors"
	"github.com/tochemey/fastsu/log"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGenerator(t *testing.T) {
	t.Run("With uninitialized generator", func(t *testing.T) {
		g := New(WithLogger(log.DiscardLogger))
		_, err := g.Next()
		require.ErrorIs(t, err, gerrors.ErrInvalidState)
		_, err = g.Make(1)
		require.ErrorIs(t, err, gerrors.ErrInvalidState)
		_, err = g.GetPid(Compose(1, 2, 3))
		require.ErrorIs(t, err, gerrors.ErrInvalidState)
		_, err = g.Node()
		require.ErrorIs(t, err, gerrors.ErrInvalidState)
	})
	t.Run("With init called twice", func(t *testing.T) {
		g := New(WithLogger(log.DiscardLogger))
		require.NoError(t, g.Init(5))
		require.ErrorIs(t, g.Init(6), gerrors.ErrAlreadyInitialized)
		node, err := g.Node()
		require.NoError(t, err)
		assert.EqualValues(t, 5, node)
	})
	t.Run("With node out of range", func(t *testing.T) {
		g := New(WithLogger(log.DiscardLogger))
		require.ErrorIs(t, g.Init(MaxNode+1), gerrors.ErrInvalidNodeID)
		// a failed Init does not consume the one-time initialization
		require.NoError(t, g.Init(MaxNode))
	})
	t.Run("With three ids in the same second", func(t *testing.T) {
		now := Epoch.Add(1000 * time.Second)
		g := New(WithLogger(log.DiscardLogger), WithClock(fixedClock(now)))
		require.NoError(t, g.Init(5))

		first, err := g.Next()
		require.NoError(t, err)
		second, err := g.Next()
		require.NoError(t, err)
		third, err := g.Next()
		require.NoError(t, err)

		for _, id := range []ID{first, second, third} {
			assert.EqualValues(t, 1000, id.Time())
			assert.EqualValues(t, 5, id.Node())
			assert.False(t, id.IsNamed())
		}
		assert.Equal(t, first.Seq()+1, second.Seq())
		assert.Equal(t, second.Seq()+1, third.Seq())

		pid, err := g.GetPid(third)
		require.NoError(t, err)
		assert.EqualValues(t, 5, pid)
	})
	t.Run("With sequence overflow carrying into time", func(t *testing.T) {
		now := Epoch.Add(10 * time.Second)
		g := New(WithLogger(log.DiscardLogger), WithClock(fixedClock(now)))
		require.NoError(t, g.Init(1))
		g.counter.Store(uint64(10)<<seqBits | (MaxSeq - 1))

		last, err := g.Next()
		require.NoError(t, err)
		assert.EqualValues(t, MaxSeq, last.Seq())
		assert.EqualValues(t, 10, last.Time())

		carried, err := g.Next()
		require.NoError(t, err)
		assert.EqualValues(t, 0, carried.Seq())
		assert.EqualValues(t, 11, carried.Time())
		assert.Greater(t, carried, last)
		assert.Equal(t, time.Second, g.Borrowed())
	})
	t.Run("With borrowed time reaching 30 seconds", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		now := Epoch.Add(100 * time.Second)
		g := New(WithLogger(log.NewZap(log.WarningLevel, buffer)), WithClock(fixedClock(now)))
		require.NoError(t, g.Init(2))

		g.counter.Store(uint64(128)<<seqBits | MaxSeq)
		_, err := g.Next()
		require.NoError(t, err)
		assert.Empty(t, buffer.String())

		g.counter.Store(uint64(130)<<seqBits - 1)
		_, err = g.Next()
		require.NoError(t, err)
		assert.Contains(t, buffer.String(), "30s ahead of the clock")
	})
	t.Run("With a clock before the epoch", func(t *testing.T) {
		g := New(WithLogger(log.DiscardLogger), WithClock(fixedClock(Epoch.Add(-time.Hour))))
		require.NoError(t, g.Init(3))
		id, err := g.Next()
		require.NoError(t, err)
		assert.False(t, id.IsNamed())
	})
}

func TestGeneratorMonotonic(t *testing.T) {
	g := New(WithLogger(log.DiscardLogger))
	require.NoError(t, g.Init(9))

	const workers = 8
	const perWorker = 2000

	var wg sync.WaitGroup
	results := make([][]ID, workers)
	for w := range workers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			prev := ID(-1)
			ids := make([]ID, 0, perWorker)
			for range perWorker {
				id, err := g.Next()
				if err != nil {
					return
				}
				// each goroutine observes a strictly increasing stream
				if id <= prev {
					return
				}
				prev = id
				ids = append(ids, id)
			}
			results[w] = ids
		}(w)
	}
	wg.Wait()

	all := make([]ID, 0, workers*perWorker)
	for _, ids := range results {
		require.Len(t, ids, perWorker)
		all = append(all, ids...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	for i := 1; i < len(all); i++ {
		require.NotEqual(t, all[i-1], all[i])
	}
}

func TestMake(t *testing.T) {
	g := New(WithLogger(log.DiscardLogger))
	require.NoError(t, g.Init(4))

	named, err := g.Make(7)
	require.NoError(t, err)
	assert.True(t, named.IsNamed())
	assert.EqualValues(t, 4, named.Node())
	assert.EqualValues(t, 7, named.Seq())

	remote, err := g.MakeFor(7, 12)
	require.NoError(t, err)
	assert.EqualValues(t, 12, remote.Node())

	_, err = g.MakeFor(1, MaxNode+1)
	require.ErrorIs(t, err, gerrors.ErrInvalidNodeID)
	_, err = g.MakeFor(MaxSeq+1, 1)
	require.ErrorIs(t, err, gerrors.ErrInvalidSequence)

	for range 1000 {
		generated, err := g.Next()
		require.NoError(t, err)
		assert.NotEqual(t, named, generated)
		assert.Greater(t, generated, named)
	}
}

func TestID(t *testing.T) {
	id := Compose(77, 5, 12)
	assert.EqualValues(t, 77, id.Time())
	assert.EqualValues(t, 5, id.Node())
	assert.EqualValues(t, 12, id.Seq())
	assert.Equal(t, "5/77-12", id.String())
	assert.GreaterOrEqual(t, int64(id), int64(0))

	moved := id.WithNode(9)
	assert.EqualValues(t, 9, moved.Node())
	assert.Equal(t, id.Time(), moved.Time())
	assert.Equal(t, id.Seq(), moved.Seq())

	top := Compose(timeMask, MaxNode, MaxSeq)
	assert.Greater(t, int64(top), int64(0))
}
