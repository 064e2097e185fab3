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
	"reflect"
	"sync"

	"github.com/zeebo/xxh3"
	"go.uber.org/atomic"

	"github.com/tochemey/fastsu/internal/xsync"
	"github.com/tochemey/fastsu/log"
)

// GlobalTypeID is the receiver type id of process-wide handlers
const GlobalTypeID uint32 = 0

var typeIDs = xsync.NewMap[reflect.Type, uint32]()

// TypeID returns the receiver type id of t. Pointer types share the id of
// their element type.
func TypeID(t reflect.Type) uint32 {
	if id, ok := typeIDs.Get(t); ok {
		return id
	}

	base := t
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	id := uint32(xxh3.HashString(base.PkgPath() + "." + base.String()))
	if id == GlobalTypeID {
		id = 1
	}
	typeIDs.Set(t, id)
	return id
}

// TypeIDOf returns the receiver type id of value's dynamic type
func TypeIDOf(value any) uint32 {
	return TypeID(reflect.TypeOf(value))
}

func msgIDOf[M Message]() uint32 {
	t := reflect.TypeFor[M]()
	if t.Kind() == reflect.Pointer {
		return reflect.New(t.Elem()).Interface().(Message).MsgID()
	}
	var zero M
	return zero.MsgID()
}

type handleFunc func(receiver any, msg Message, reply Reply) error

// Binding associates a handler with a receiver type and a message id
type Binding struct {
	typeID  uint32
	msgID   uint32
	request bool
	name    string
	handle  handleFunc
}

// Key returns the registry key of the binding
func (b Binding) Key() uint64 {
	return HandlerKey(b.typeID, b.msgID)
}

// String returns a readable name of the binding
func (b Binding) String() string {
	return b.name
}

// Global rebinds the handler to the process-wide receiver type
func (b Binding) Global() Binding {
	b.typeID = GlobalTypeID
	return b
}

// HandlerKey combines a receiver type id and a message id
func HandlerKey(typeID, msgID uint32) uint64 {
	return uint64(typeID)<<32 | uint64(msgID)
}

// HandleMessage binds fn to messages of type M received by receivers of type R.
func HandleMessage[R any, M Message](fn func(R, M)) Binding {
	return Binding{
		typeID: TypeID(reflect.TypeFor[R]()),
		msgID:  msgIDOf[M](),
		name:   fmt.Sprintf("%v/%v", reflect.TypeFor[R](), reflect.TypeFor[M]()),
		handle: func(receiver any, msg Message, _ Reply) error {
			self, ok := receiver.(R)
			if !ok {
				return fmt.Errorf("receiver %T does not match %v", receiver, reflect.TypeFor[R]())
			}
			typed, ok := msg.(M)
			if !ok {
				return fmt.Errorf("message %T does not match %v", msg, reflect.TypeFor[M]())
			}
			fn(self, typed)
			return nil
		},
	}
}

// HandleRequest binds fn to requests of type Q received by receivers of type
// R. The reply function passed to fn is single use and stamps the response
// with the request's rpc id whatever the handler set.
func HandleRequest[R any, Q Request, P Response](fn func(R, Q, func(P))) Binding {
	return Binding{
		typeID:  TypeID(reflect.TypeFor[R]()),
		msgID:   msgIDOf[Q](),
		request: true,
		name:    fmt.Sprintf("%v/%v", reflect.TypeFor[R](), reflect.TypeFor[Q]()),
		handle: func(receiver any, msg Message, reply Reply) error {
			self, ok := receiver.(R)
			if !ok {
				return fmt.Errorf("receiver %T does not match %v", receiver, reflect.TypeFor[R]())
			}
			req, ok := msg.(Q)
			if !ok {
				return fmt.Errorf("request %T does not match %v", msg, reflect.TypeFor[Q]())
			}

			rpcID := req.RpcID()
			replied := atomic.NewBool(false)
			fn(self, req, func(resp P) {
				if reply == nil || !replied.CompareAndSwap(false, true) {
					return
				}
				resp.SetRpcID(rpcID)
				reply(resp)
			})
			return nil
		},
	}
}

// Handlers is the registry of message handlers. Registration happens in
// passes delimited by Begin and End; lookups read an immutable table.
type Handlers struct {
	logger  log.Logger
	table   *atomic.Pointer[map[uint64]Binding]
	mu      sync.Mutex
	pending map[uint64]Binding
}

// NewHandlers creates an empty registry
func NewHandlers(logger log.Logger) *Handlers {
	empty := make(map[uint64]Binding)
	return &Handlers{
		logger: logger,
		table:  atomic.NewPointer(&empty),
	}
}

// Begin starts a registration pass building a new table from scratch
func (h *Handlers) Begin() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = make(map[uint64]Binding)
}

// Process adds a binding to the pass in progress
func (h *Handlers) Process(b Binding) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == nil {
		return fmt.Errorf("handler %s: no registration pass in progress", b)
	}
	if existing, ok := h.pending[b.Key()]; ok {
		return fmt.Errorf("handler %s: duplicate of %s", b, existing)
	}
	h.pending[b.Key()] = b
	return nil
}

// End publishes the table built by the pass in progress
func (h *Handlers) End() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pending == nil {
		return
	}
	table := h.pending
	h.pending = nil
	h.table.Store(&table)
}

// Register adds bindings to the published table
func (h *Handlers) Register(bindings ...Binding) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	current := *h.table.Load()
	table := make(map[uint64]Binding, len(current)+len(bindings))
	for k, v := range current {
		table[k] = v
	}

	for _, b := range bindings {
		if existing, ok := table[b.Key()]; ok {
			return fmt.Errorf("handler %s: duplicate of %s", b, existing)
		}
		table[b.Key()] = b
	}

	h.table.Store(&table)
	return nil
}

// Len returns the number of published handlers
func (h *Handlers) Len() int {
	return len(*h.table.Load())
}

// Dispatch runs the handler registered for (typeID, msg). A missing handler
// is logged and the message dropped. reply is only used by request handlers.
func (h *Handlers) Dispatch(typeID uint32, receiver any, msg Message, reply Reply) bool {
	b, ok := (*h.table.Load())[HandlerKey(typeID, msg.MsgID())]
	if !ok {
		h.logger.Errorf("handler not found: %d/%d %T", typeID, msg.MsgID(), msg)
		return false
	}

	if err := b.handle(receiver, msg, reply); err != nil {
		h.logger.Errorf("handler %s failed: %v", b, err)
		return false
	}
	return true
}
