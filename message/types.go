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

package message

import (
	"fmt"
	"sync"

	gerrors "github.com/tochemey/fastsu/errors"
	"github.com/tochemey/fastsu/internal/errorschain"
)

// Factory creates an empty message ready to be deserialized into
type Factory func() Message

// Types maps message ids to factories. It is populated at startup and read
// by the transport when decoding frames and building error responses.
type Types struct {
	mu        sync.RWMutex
	factories map[uint32]Factory
}

// NewTypes creates an instance of Types
func NewTypes() *Types {
	return &Types{factories: make(map[uint32]Factory)}
}

// Register adds the given factories. A message id registered twice is an error.
func (t *Types) Register(factories ...Factory) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, factory := range factories {
		msgID := factory().MsgID()
		if msgID == 0 {
			return fmt.Errorf("message %T: message id 0 is reserved", factory())
		}
		if _, ok := t.factories[msgID]; ok {
			return fmt.Errorf("message %T: duplicate message id %d", factory(), msgID)
		}
		t.factories[msgID] = factory
	}
	return nil
}

// Has reports whether msgID is registered
func (t *Types) Has(msgID uint32) bool {
	t.mu.RLock()
	_, ok := t.factories[msgID]
	t.mu.RUnlock()
	return ok
}

// New creates an empty message for msgID
func (t *Types) New(msgID uint32) (Message, error) {
	t.mu.RLock()
	factory, ok := t.factories[msgID]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", gerrors.ErrUnknownMessage, msgID)
	}
	return factory(), nil
}

// NewResponse creates the response matching request, stamped with its rpc id
func (t *Types) NewResponse(request Request) (Response, error) {
	msg, err := t.New(request.AckMsgID())
	if err != nil {
		return nil, err
	}

	resp, ok := msg.(Response)
	if !ok {
		return nil, fmt.Errorf("message %T acknowledging %T is not a response", msg, request)
	}
	resp.SetRpcID(request.RpcID())
	return resp, nil
}

// Validate checks that every registered request has a registered response type
func (t *Types) Validate() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	chain := errorschain.New(errorschain.ReturnAll())
	for msgID, factory := range t.factories {
		req, ok := factory().(Request)
		if !ok {
			continue
		}

		ack, ok := t.factories[req.AckMsgID()]
		if !ok {
			chain = chain.AddError(fmt.Errorf("request %T (%d): response type %d is not registered", req, msgID, req.AckMsgID()))
			continue
		}
		if _, ok := ack().(Response); !ok {
			chain = chain.AddError(fmt.Errorf("request %T (%d): message %d is not a response", req, msgID, req.AckMsgID()))
		}
	}
	return chain.Error()
}
