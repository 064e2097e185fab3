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

package remote

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tochemey/fastsu/did"
	gerrors "github.com/tochemey/fastsu/errors"
)

// Frame layout, little endian:
//
//	[4B body length][8B id][8B sub id][4B message id][body]
const (
	// MinFrameSize is the size of a frame header, which is also the size of
	// a frame with an empty body
	MinFrameSize = 24

	lengthOffset = 0
	idOffset     = 4
	subIDOffset  = 12
	msgIDOffset  = 20
)

// Frame is one message on the wire. The node field of ID carries the source
// node of the frame.
type Frame struct {
	ID    did.ID
	SubID int64
	MsgID uint32
	Body  []byte
}

// Size returns the encoded size of the frame
func (f Frame) Size() int {
	return MinFrameSize + len(f.Body)
}

// EncodeFrame returns the wire encoding of f
func EncodeFrame(f Frame) []byte {
	return AppendFrame(make([]byte, 0, f.Size()), f)
}

// AppendFrame appends the wire encoding of f to dst
func AppendFrame(dst []byte, f Frame) []byte {
	var header [MinFrameSize]byte
	putHeader(header[:], uint32(len(f.Body)), f.ID, f.SubID, f.MsgID)
	dst = append(dst, header[:]...)
	return append(dst, f.Body...)
}

func putHeader(dst []byte, bodyLen uint32, id did.ID, subID int64, msgID uint32) {
	binary.LittleEndian.PutUint32(dst[lengthOffset:], bodyLen)
	binary.LittleEndian.PutUint64(dst[idOffset:], uint64(id))
	binary.LittleEndian.PutUint64(dst[subIDOffset:], uint64(subID))
	binary.LittleEndian.PutUint32(dst[msgIDOffset:], msgID)
}

// DecodeFrame decodes the frame at the start of buf. buf must hold the whole
// frame; the returned body aliases buf.
func DecodeFrame(buf []byte) (Frame, error) {
	frame, n, err := PeekFrame(buf, 0)
	if err != nil {
		return Frame{}, err
	}
	if n == 0 {
		return Frame{}, gerrors.ErrShortFrame
	}
	return frame, nil
}

// PeekFrame decodes the frame at the start of buf and returns the number of
// bytes it spans. It returns 0 without error when buf does not hold a whole
// frame yet. A maxBodySize of 0 disables the size check.
func PeekFrame(buf []byte, maxBodySize uint32) (Frame, int, error) {
	if len(buf) < MinFrameSize {
		return Frame{}, 0, nil
	}

	bodyLen := binary.LittleEndian.Uint32(buf[lengthOffset:])
	if maxBodySize > 0 && bodyLen > maxBodySize {
		return Frame{}, 0, fmt.Errorf("%w: %d > %d", gerrors.ErrFrameTooLarge, bodyLen, maxBodySize)
	}

	total := MinFrameSize + int(bodyLen)
	if len(buf) < total {
		return Frame{}, 0, nil
	}

	return Frame{
		ID:    did.ID(binary.LittleEndian.Uint64(buf[idOffset:])),
		SubID: int64(binary.LittleEndian.Uint64(buf[subIDOffset:])),
		MsgID: binary.LittleEndian.Uint32(buf[msgIDOffset:]),
		Body:  buf[MinFrameSize:total],
	}, total, nil
}

// Decoder reads frames from a stream through a growable buffer
type Decoder struct {
	reader      io.Reader
	buf         []byte
	start       int
	end         int
	maxBodySize uint32
	err         error
}

// NewDecoder creates a Decoder reading from reader. Frames whose body
// exceeds maxBodySize fail with ErrFrameTooLarge.
func NewDecoder(reader io.Reader, maxBodySize uint32) *Decoder {
	return &Decoder{
		reader:      reader,
		buf:         make([]byte, 4096),
		maxBodySize: maxBodySize,
	}
}

// Next returns the next frame. The frame body is only valid until the
// following call.
func (d *Decoder) Next() (Frame, error) {
	for {
		frame, n, err := PeekFrame(d.buf[d.start:d.end], d.maxBodySize)
		if err != nil {
			return Frame{}, err
		}

		if n > 0 {
			d.start += n
			if d.start == d.end {
				d.start, d.end = 0, 0
			}
			return frame, nil
		}

		if d.err != nil {
			if errors.Is(d.err, io.EOF) && d.end > d.start {
				return Frame{}, io.ErrUnexpectedEOF
			}
			return Frame{}, d.err
		}

		d.reserve(d.needed())
		read, err := d.reader.Read(d.buf[d.end:])
		d.end += read
		if err != nil {
			d.err = err
		}
	}
}

// needed returns the buffered size required to decode the pending frame
func (d *Decoder) needed() int {
	if d.end-d.start < MinFrameSize {
		return MinFrameSize
	}
	return MinFrameSize + int(binary.LittleEndian.Uint32(d.buf[d.start+lengthOffset:]))
}

// reserve makes room for size bytes starting at the pending frame and for
// at least one more byte to read
func (d *Decoder) reserve(size int) {
	if d.start > 0 && (d.end == len(d.buf) || len(d.buf)-d.start < size) {
		copy(d.buf, d.buf[d.start:d.end])
		d.end -= d.start
		d.start = 0
	}

	if len(d.buf) < size || d.end == len(d.buf) {
		grown := make([]byte, max(size, 2*len(d.buf)))
		copy(grown, d.buf[d.start:d.end])
		d.end -= d.start
		d.start = 0
		d.buf = grown
	}
}
