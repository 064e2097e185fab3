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

// Package did generates 63-bit actor identities packing a time in seconds,
// the owning node and a sequence number.
//
//	 0 | 31 bits seconds since Epoch | 12 bits node | 20 bits sequence
//
// Generated identities always carry a non-zero time. Named identities built
// with Make use time 0, so the two ranges never overlap.
package did

import (
	"fmt"
	"time"
)

const (
	seqBits  = 20
	nodeBits = 12

	// MaxNode is the largest node id an identity can carry.
	MaxNode = 1<<nodeBits - 1
	// MaxSeq is the largest sequence value an identity can carry.
	MaxSeq = 1<<seqBits - 1

	timeMask = 0x7FFFFFFF
)

// Epoch is the origin of the time field.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// ID is a packed actor identity.
type ID int64

// Compose packs the three fields into an ID. Out of range values are truncated.
func Compose(secs uint32, node uint16, seq uint32) ID {
	return ID(uint64(secs&timeMask)<<32 | uint64(node&MaxNode)<<seqBits | uint64(seq&MaxSeq))
}

// Time returns the seconds since Epoch stored in the identity. Named identities return 0.
func (id ID) Time() uint32 {
	return uint32(uint64(id)>>32) & timeMask
}

// Node returns the node field.
func (id ID) Node() uint16 {
	return uint16(uint64(id) >> seqBits & MaxNode)
}

// Seq returns the sequence field.
func (id ID) Seq() uint32 {
	return uint32(id) & MaxSeq
}

// IsNamed reports whether the identity was built with Make rather than generated.
func (id ID) IsNamed() bool {
	return id.Time() == 0
}

// WithNode returns the identity with its node field replaced.
func (id ID) WithNode(node uint16) ID {
	return Compose(id.Time(), node, id.Seq())
}

// String renders the identity as node/time-seq.
func (id ID) String() string {
	return fmt.Sprintf("%d/%d-%d", id.Node(), id.Time(), id.Seq())
}
