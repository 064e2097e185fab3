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
	"time"

	"go.uber.org/atomic"

	gerrors "github.com/tochemey/fastsu/errors"
	"github.com/tochemey/fastsu/log"
)

// borrowWarnStep is the granularity, in seconds, at which running ahead of the
// wall clock is reported.
const borrowWarnStep = 30

// Generator hands out strictly increasing identities for one node.
//
// The time and sequence fields live in a single 64-bit counter seeded with
// secondsSinceEpoch<<20. Next increments it once: when the sequence part
// overflows it carries into the time part, so sustained throughput above
// MaxSeq ids per second makes the encoded time run ahead of the wall clock.
// That debt is logged every 30 seconds of borrowed time and is otherwise
// unbounded.
type Generator struct {
	counter  *atomic.Uint64
	node     *atomic.Uint32
	ready    *atomic.Bool
	claimed  *atomic.Bool
	clock    func() time.Time
	logger   log.Logger
	borrowed *atomic.Int64
}

// New creates a Generator. Init must be called before it hands out identities.
func New(opts ...Option) *Generator {
	g := &Generator{
		counter:  atomic.NewUint64(0),
		node:     atomic.NewUint32(0),
		ready:    atomic.NewBool(false),
		claimed:  atomic.NewBool(false),
		clock:    time.Now,
		logger:   log.DefaultLogger,
		borrowed: atomic.NewInt64(0),
	}

	for _, opt := range opts {
		opt.Apply(g)
	}
	return g
}

// Init binds the generator to node and seeds the counter from the clock.
// It can only succeed once.
func (g *Generator) Init(node uint16) error {
	if node > MaxNode {
		return gerrors.ErrInvalidNodeID
	}

	if !g.claimed.CompareAndSwap(false, true) {
		return gerrors.ErrAlreadyInitialized
	}

	secs := g.secondsSinceEpoch()
	if secs < 1 {
		secs = 1
	}

	g.node.Store(uint32(node))
	g.counter.Store(uint64(secs) << seqBits)
	g.ready.Store(true)
	return nil
}

// Node returns the node the generator was initialized with.
func (g *Generator) Node() (uint16, error) {
	if !g.ready.Load() {
		return 0, gerrors.ErrInvalidState
	}
	return uint16(g.node.Load()), nil
}

// Next returns the next identity.
func (g *Generator) Next() (ID, error) {
	if !g.ready.Load() {
		return 0, gerrors.ErrInvalidState
	}

	value := g.counter.Inc()
	seq := uint32(value & MaxSeq)
	secs := uint32(value>>seqBits) & timeMask
	id := Compose(secs, uint16(g.node.Load()), seq)

	// only look at the clock when the sequence wraps into a new second
	if seq == 0 {
		borrowed := int64(secs) - g.secondsSinceEpoch()
		g.borrowed.Store(max(borrowed, 0))
		if borrowed > 0 && borrowed%borrowWarnStep == 0 {
			g.logger.Warnf("identifier generator is %ds ahead of the clock (time=%d)", borrowed, secs)
		}
	}
	return id, nil
}

// Borrowed returns how many seconds the generator was ahead of the clock the
// last time its sequence wrapped.
func (g *Generator) Borrowed() time.Duration {
	return time.Duration(g.borrowed.Load()) * time.Second
}

// Make builds a named identity on the local node.
func (g *Generator) Make(localID uint32) (ID, error) {
	if !g.ready.Load() {
		return 0, gerrors.ErrInvalidState
	}
	return g.MakeFor(localID, uint16(g.node.Load()))
}

// MakeFor builds a named identity on the given node.
func (g *Generator) MakeFor(localID uint32, node uint16) (ID, error) {
	if !g.ready.Load() {
		return 0, gerrors.ErrInvalidState
	}

	if node > MaxNode {
		return 0, gerrors.ErrInvalidNodeID
	}

	if localID > MaxSeq {
		return 0, gerrors.ErrInvalidSequence
	}
	return Compose(0, node, localID), nil
}

// GetPid returns the node field of id.
func (g *Generator) GetPid(id ID) (uint16, error) {
	if !g.ready.Load() {
		return 0, gerrors.ErrInvalidState
	}
	return id.Node(), nil
}

func (g *Generator) secondsSinceEpoch() int64 {
	return int64(g.clock().Sub(Epoch) / time.Second)
}
