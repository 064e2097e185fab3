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

// Package errors holds the sentinel errors returned by the runtime together
// with the typed errors wrapping recovered panics and internal faults.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an identifier operation is used before the generator is initialized.
	ErrInvalidState = errors.New("identifier generator is not initialized")

	// ErrAlreadyInitialized is returned when the identifier generator is initialized twice.
	ErrAlreadyInitialized = errors.New("identifier generator is already initialized")

	// ErrInvalidNodeID is returned when a node id does not fit in 12 bits.
	ErrInvalidNodeID = errors.New("node id must be in the range [0, 4095]")

	// ErrInvalidSequence is returned when a named identity local id does not fit in 20 bits.
	ErrInvalidSequence = errors.New("local id must be in the range [0, 1048575]")

	// ErrDuplicateID is returned when an actor is created with an id that is already registered.
	ErrDuplicateID = errors.New("actor id already exists")

	// ErrServiceNotFound is returned when a call targets an actor id that is not registered.
	ErrServiceNotFound = errors.New("service not found")

	// ErrActorStarted is returned when an actor context is started more than once.
	ErrActorStarted = errors.New("actor context already started")

	// ErrSystemStopped is returned when the actor system no longer accepts actors.
	ErrSystemStopped = errors.New("actor system is shut down")

	// ErrSystemNotStarted is returned when the actor system is used before Start.
	ErrSystemNotStarted = errors.New("actor system is not started")

	// ErrNoPinnedWorker is returned when a pinned actor is created on a system without pinned workers.
	ErrNoPinnedWorker = errors.New("actor system has no pinned worker")

	// ErrCallDeadlock is returned when a blocking call waits on the thread running the caller's own turn.
	ErrCallDeadlock = errors.New("call would block the worker running the target")

	// ErrDuplicateRpcID is returned when a correlation id is still pending when it is handed out again.
	ErrDuplicateRpcID = errors.New("duplicate rpc id")

	// ErrFutureResolved is raised when a single-use future is resolved more than once.
	ErrFutureResolved = errors.New("future already resolved")

	// ErrUnknownRpcID is raised when a response refers to a correlation id that is not pending.
	ErrUnknownRpcID = errors.New("unknown rpc id")

	// ErrRequestTimeout is returned when a call gives up waiting for its response.
	ErrRequestTimeout = errors.New("request timed out")

	// ErrNodeNotFound is returned when a message targets a node that has no registered address.
	ErrNodeNotFound = errors.New("node not found")

	// ErrDisconnected is returned when the connection to a remote node is lost or closed.
	ErrDisconnected = errors.New("connection to node is closed")

	// ErrTransportNotStarted is returned when inbound operations are used before the transport started.
	ErrTransportNotStarted = errors.New("transport is not started")

	// ErrTransportStopped is returned when the transport no longer accepts traffic.
	ErrTransportStopped = errors.New("transport is stopped")

	// ErrUnknownMessage is returned when a message id has no registered type.
	ErrUnknownMessage = errors.New("unknown message id")

	// ErrFrameTooLarge is returned when a frame body exceeds the configured maximum size.
	ErrFrameTooLarge = errors.New("frame exceeds the maximum size")

	// ErrShortFrame is returned when a buffer is too small to hold a frame header.
	ErrShortFrame = errors.New("frame is shorter than its header")

	// ErrInvalidPipeID is returned when a command uses the reserved pipe id 0.
	ErrInvalidPipeID = errors.New("pipe id must not be 0")

	// ErrStaleEntity is returned when an entity handle refers to a destroyed entity.
	ErrStaleEntity = errors.New("entity handle is stale")

	// ErrNoRoot is returned when an entity is attached to a tree that has no root.
	ErrNoRoot = errors.New("entity has no root")

	// ErrNoParent is returned when the parent of a detached entity is requested.
	ErrNoParent = errors.New("entity has no parent")

	// ErrEntityAttached is returned when an entity that already has a parent is attached again.
	ErrEntityAttached = errors.New("entity is already attached")

	// ErrSelfAttach is returned when an entity is added to itself.
	ErrSelfAttach = errors.New("entity cannot be added to itself")
)

// PanicError wraps a value recovered from a panicking hook or handler.
type PanicError struct {
	err error
}

var _ error = (*PanicError)(nil)

// NewPanicError creates an instance of PanicError
func NewPanicError(err error) *PanicError {
	return &PanicError{err}
}

// Error implements the standard error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.err)
}

// Unwrap returns the recovered error
func (e *PanicError) Unwrap() error {
	return e.err
}

// InternalError reports a broken runtime invariant such as resolving an unknown
// correlation id. It is raised with panic because it cannot be caused by input.
type InternalError struct {
	err error
}

var _ error = (*InternalError)(nil)

// NewInternalError returns an instance of InternalError
func NewInternalError(err error) *InternalError {
	return &InternalError{err: fmt.Errorf("internal error: %w", err)}
}

// Error implements the standard error interface
func (e *InternalError) Error() string {
	return e.err.Error()
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.err
}
