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

// Package message defines the messages exchanged between actors, the handler
// registry dispatching them and the correlation table matching responses to
// pending calls.
package message

// Message is implemented by every payload exchanged between actors.
// MsgID must not depend on the receiver's fields: it is called on zero values.
type Message interface {
	MsgID() uint32
}

// Request is a Message awaiting a Response.
type Request interface {
	Message
	// AckMsgID returns the message id of the matching Response type
	AckMsgID() uint32
	RpcID() uint32
	SetRpcID(id uint32)
}

// Response answers a Request. The rpc id matches the request's.
type Response interface {
	Message
	RpcID() uint32
	SetRpcID(id uint32)
	ErrCode() int32
	SetErrCode(code int32)
	ErrMsg() string
	SetErrMsg(msg string)
}

// RequestHeader implements the correlation part of Request.
// Embed it in request types.
type RequestHeader struct {
	CorrelationID uint32 `cbor:"rpc_id,omitempty" json:"rpc_id,omitempty"`
}

// RpcID returns the correlation id
func (h *RequestHeader) RpcID() uint32 {
	return h.CorrelationID
}

// SetRpcID sets the correlation id
func (h *RequestHeader) SetRpcID(id uint32) {
	h.CorrelationID = id
}

// ResponseHeader implements the correlation and error parts of Response.
// Embed it in response types.
type ResponseHeader struct {
	CorrelationID uint32 `cbor:"rpc_id,omitempty" json:"rpc_id,omitempty"`
	Code          int32  `cbor:"err_code,omitempty" json:"err_code,omitempty"`
	Reason        string `cbor:"err_msg,omitempty" json:"err_msg,omitempty"`
}

// RpcID returns the correlation id
func (h *ResponseHeader) RpcID() uint32 {
	return h.CorrelationID
}

// SetRpcID sets the correlation id
func (h *ResponseHeader) SetRpcID(id uint32) {
	h.CorrelationID = id
}

// ErrCode returns the error code
func (h *ResponseHeader) ErrCode() int32 {
	return h.Code
}

// SetErrCode sets the error code
func (h *ResponseHeader) SetErrCode(code int32) {
	h.Code = code
}

// ErrMsg returns the error message
func (h *ResponseHeader) ErrMsg() string {
	return h.Reason
}

// SetErrMsg sets the error message
func (h *ResponseHeader) SetErrMsg(msg string) {
	h.Reason = msg
}

// Reply delivers the response of a request
type Reply func(Response)

// Msg is the envelope queued in an actor's mailbox
type Msg struct {
	// ID is the message id of Body
	ID    uint32
	Body  Message
	SubID int64
	// Reply is set for requests and routes the response back to the caller
	Reply Reply
}

// NewMsg creates a Msg envelope around body
func NewMsg(body Message, subID int64) Msg {
	return Msg{ID: body.MsgID(), Body: body, SubID: subID}
}
