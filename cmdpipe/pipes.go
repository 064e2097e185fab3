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

package cmdpipe

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/atomic"

	"github.com/tochemey/fastsu/log"
	"github.com/tochemey/fastsu/message"
)

// CombineID returns the lookup key of the pipe pipeID of context type typeID
func CombineID(typeID uint32, pipeID uint16) uint64 {
	return uint64(typeID)<<16 | uint64(pipeID)
}

type executeFunc func(ctx context.Context, target any, cmd Cmd) error

// Pipe handles the commands of one pipe id for one context type
type Pipe struct {
	typeID uint32
	pipeID uint16
	name   string
	exec   executeFunc
}

// NewPipe creates the pipe pipeID executed against contexts of type T
func NewPipe[T any](pipeID uint16, fn func(ctx context.Context, target T, cmd Cmd) error) Pipe {
	return Pipe{
		typeID: message.TypeID(reflect.TypeFor[T]()),
		pipeID: pipeID,
		name:   fmt.Sprintf("%v/%d", reflect.TypeFor[T](), pipeID),
		exec: func(ctx context.Context, target any, cmd Cmd) error {
			typed, ok := target.(T)
			if !ok && target != nil {
				return fmt.Errorf("pipe %v/%d: target %T does not match", reflect.TypeFor[T](), pipeID, target)
			}
			return fn(ctx, typed, cmd)
		},
	}
}

// NewGlobalPipe creates the process-wide pipe pipeID
func NewGlobalPipe(pipeID uint16, fn func(ctx context.Context, target any, cmd Cmd) error) Pipe {
	return Pipe{
		typeID: message.GlobalTypeID,
		pipeID: pipeID,
		name:   fmt.Sprintf("global/%d", pipeID),
		exec:   fn,
	}
}

// Key returns the lookup key of the pipe
func (p Pipe) Key() uint64 {
	return CombineID(p.typeID, p.pipeID)
}

// String returns a readable name of the pipe
func (p Pipe) String() string {
	return p.name
}

// Pipes is the registry of command pipes. Registration happens in passes
// delimited by Begin and End; lookups read an immutable table.
type Pipes struct {
	logger  log.Logger
	table   *atomic.Pointer[map[uint64]Pipe]
	mu      sync.Mutex
	pending map[uint64]Pipe
}

// NewPipes creates an empty registry
func NewPipes(logger log.Logger) *Pipes {
	empty := make(map[uint64]Pipe)
	return &Pipes{
		logger: logger,
		table:  atomic.NewPointer(&empty),
	}
}

// Begin starts a registration pass building a new table from scratch
func (p *Pipes) Begin() {
	p.mu.Lock()
	p.pending = make(map[uint64]Pipe)
	p.mu.Unlock()
}

// Process adds pipe to the pass in progress. A pipe registered twice for
// the same context type and pipe id is logged and skipped.
func (p *Pipes) Process(pipe Pipe) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		p.logger.Warnf("pipe %s: no registration pass in progress", pipe)
		return
	}

	if existing, ok := p.pending[pipe.Key()]; ok {
		p.logger.Warnf("pipe %s: duplicate of %s", pipe, existing)
		return
	}

	p.pending[pipe.Key()] = pipe
	p.logger.Debugf("pipe %s registered", pipe)
}

// End publishes the table built by the pass in progress
func (p *Pipes) End() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == nil {
		return
	}
	table := p.pending
	p.pending = nil
	p.table.Store(&table)
}

// Register replaces the published table with one built from pipes
func (p *Pipes) Register(pipes ...Pipe) {
	p.Begin()
	for _, pipe := range pipes {
		p.Process(pipe)
	}
	p.End()
}

// Len returns the number of published pipes
func (p *Pipes) Len() int {
	return len(*p.table.Load())
}

// Has reports whether a pipe is published for typeID and pipeID
func (p *Pipes) Has(typeID uint32, pipeID uint16) bool {
	_, ok := (*p.table.Load())[CombineID(typeID, pipeID)]
	return ok
}

// ExecuteGlobal runs cmd through the process-wide pipe of its pipe id. A
// command without a pipe is ignored.
func (p *Pipes) ExecuteGlobal(ctx context.Context, target any, cmd Cmd) error {
	return p.execute(ctx, message.GlobalTypeID, target, cmd)
}

func (p *Pipes) execute(ctx context.Context, typeID uint32, target any, cmd Cmd) error {
	pipe, ok := (*p.table.Load())[CombineID(typeID, cmd.PipeID)]
	if !ok {
		return nil
	}

	if err := pipe.exec(ctx, target, cmd); err != nil {
		return fmt.Errorf("pipe %s: command %d: %w", pipe, cmd.CmdID, err)
	}
	return nil
}

// Execute runs cmd through the pipe registered for the context type T. A
// command without a pipe is ignored.
func Execute[T any](ctx context.Context, pipes *Pipes, target T, cmd Cmd) error {
	return pipes.execute(ctx, message.TypeID(reflect.TypeFor[T]()), target, cmd)
}
