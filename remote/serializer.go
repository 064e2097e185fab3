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
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/protobuf/proto"

	"github.com/tochemey/fastsu/message"
)

// Serializer encodes message bodies. The message type travels in the frame
// header, so bodies do not need to describe themselves: Deserialize receives
// a fresh instance of the right type built from the message type table.
// Implementations must be safe for concurrent use.
type Serializer interface {
	// Serialize writes the encoding of msg to w
	Serialize(msg message.Message, w io.Writer) error
	// Deserialize decodes data into target
	Deserialize(target message.Message, data []byte) error
}

// ProtoSerializer encodes messages implementing proto.Message
type ProtoSerializer struct {
	marshal   proto.MarshalOptions
	unmarshal proto.UnmarshalOptions
}

var _ Serializer = (*ProtoSerializer)(nil)

// NewProtoSerializer creates a ProtoSerializer
func NewProtoSerializer() *ProtoSerializer {
	return &ProtoSerializer{
		marshal:   proto.MarshalOptions{Deterministic: true},
		unmarshal: proto.UnmarshalOptions{DiscardUnknown: true},
	}
}

// Serialize implements Serializer
func (s *ProtoSerializer) Serialize(msg message.Message, w io.Writer) error {
	pb, ok := msg.(proto.Message)
	if !ok {
		return fmt.Errorf("message %T (%d) is not a protobuf message", msg, msg.MsgID())
	}

	bytea, err := s.marshal.Marshal(pb)
	if err != nil {
		return fmt.Errorf("failed to serialize message %T: %w", msg, err)
	}
	_, err = w.Write(bytea)
	return err
}

// Deserialize implements Serializer
func (s *ProtoSerializer) Deserialize(target message.Message, data []byte) error {
	pb, ok := target.(proto.Message)
	if !ok {
		return fmt.Errorf("message %T (%d) is not a protobuf message", target, target.MsgID())
	}

	if err := s.unmarshal.Unmarshal(data, pb); err != nil {
		return fmt.Errorf("failed to deserialize message %T: %w", target, err)
	}
	return nil
}

// CBORSerializer encodes messages with CBOR. Struct fields follow the cbor
// or json tags of the message type.
type CBORSerializer struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

var _ Serializer = (*CBORSerializer)(nil)

// NewCBORSerializer creates a CBORSerializer
func NewCBORSerializer() *CBORSerializer {
	encMode, _ := cbor.EncOptions{
		Sort:        cbor.SortNone,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeUnixDynamic,
	}.EncMode()

	decMode, _ := cbor.DecOptions{
		MaxNestedLevels: 64,
		IndefLength:     cbor.IndefLengthForbidden,
		UTF8:            cbor.UTF8DecodeInvalid,
	}.DecMode()

	return &CBORSerializer{encMode: encMode, decMode: decMode}
}

// Serialize implements Serializer
func (s *CBORSerializer) Serialize(msg message.Message, w io.Writer) error {
	if err := s.encMode.NewEncoder(w).Encode(msg); err != nil {
		return fmt.Errorf("failed to serialize message %T: %w", msg, err)
	}
	return nil
}

// Deserialize implements Serializer
func (s *CBORSerializer) Deserialize(target message.Message, data []byte) error {
	if err := s.decMode.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to deserialize message %T: %w", target, err)
	}
	return nil
}
