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

// Package entity keeps trees of auxiliary objects owned by an actor. Entities
// live in an arena and refer to their parent, root and children by index, so
// a tree holds no reference cycle. Handles carry a version that changes when
// the entity is destroyed, which makes stale handles detectable.
//
// An Arena is not safe for concurrent use. It is meant to be owned by a
// single actor and used from its turns.
package entity

import (
	"fmt"
	"reflect"

	"github.com/tochemey/fastsu/did"
	gerrors "github.com/tochemey/fastsu/errors"
	"github.com/tochemey/fastsu/message"
)

// Handle refers to an entity of an Arena
type Handle struct {
	index   uint32
	version uint32
}

// Index returns the arena slot of the entity
func (h Handle) Index() uint32 {
	return h.index
}

// Version returns the version of the entity the handle was issued for
func (h Handle) Version() uint32 {
	return h.version
}

// IsZero reports whether h is the zero handle, which never refers to an entity
func (h Handle) IsZero() bool {
	return h.version == 0
}

// String returns the handle as index@version
func (h Handle) String() string {
	return fmt.Sprintf("%d@%d", h.index, h.version)
}

// RemoveFlag selects the children removed by RemoveAll
type RemoveFlag uint8

const (
	// RemoveByID removes the children added with Add
	RemoveByID RemoveFlag = 1 << iota
	// RemoveByType removes the children added with AddTyped
	RemoveByType
	// RemoveBoth removes every child
	RemoveBoth = RemoveByID | RemoveByType
)

// Destroyer is implemented by values needing a hook when their entity is
// destroyed
type Destroyer interface {
	OnDestroy()
}

type slot struct {
	version uint32
	alive   bool
	isRoot  bool
	typed   bool
	id      did.ID
	typeID  uint32
	value   any
	// parent and root are slot indices plus one, 0 meaning none
	parent   uint32
	root     uint32
	children map[did.ID]uint32
	byType   map[uint32]uint32
}

// Arena stores entities and their tree links
type Arena struct {
	generator *did.Generator
	slots     []slot
	free      []uint32
	live      int
}

// NewArena creates an empty arena. Entities created without an id get one
// from generator, or from the process-wide generator when it is nil.
func NewArena(generator *did.Generator) *Arena {
	if generator == nil {
		generator = did.Default()
	}
	return &Arena{generator: generator}
}

// Len returns the number of live entities
func (a *Arena) Len() int {
	return a.live
}

// NewRoot creates a root entity. Entities can only be attached to trees
// having a root.
func (a *Arena) NewRoot(value any, id did.ID) (Handle, error) {
	return a.create(value, id, true)
}

// New creates a detached entity. An id of 0 is replaced by a generated one.
func (a *Arena) New(value any, id did.ID) (Handle, error) {
	return a.create(value, id, false)
}

func (a *Arena) create(value any, id did.ID, isRoot bool) (Handle, error) {
	if id == 0 {
		next, err := a.generator.Next()
		if err != nil {
			return Handle{}, err
		}
		id = next
	}

	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = uint32(len(a.slots))
		a.slots = append(a.slots, slot{version: 1})
	}

	s := &a.slots[index]
	s.alive = true
	s.isRoot = isRoot
	s.id = id
	s.value = value
	if value != nil {
		s.typeID = message.TypeIDOf(value)
	}
	a.live++
	return Handle{index: index, version: s.version}, nil
}

// Alive reports whether h refers to a live entity
func (a *Arena) Alive(h Handle) bool {
	_, err := a.lookup(h)
	return err == nil
}

// ID returns the id of the entity
func (a *Arena) ID(h Handle) (did.ID, error) {
	s, err := a.lookup(h)
	if err != nil {
		return 0, err
	}
	return s.id, nil
}

// Value returns the value of the entity
func (a *Arena) Value(h Handle) (any, error) {
	s, err := a.lookup(h)
	if err != nil {
		return nil, err
	}
	return s.value, nil
}

// Root returns the root of the tree the entity belongs to. A root is its
// own root.
func (a *Arena) Root(h Handle) (Handle, error) {
	s, err := a.lookup(h)
	if err != nil {
		return Handle{}, err
	}

	switch {
	case s.isRoot:
		return h, nil
	case s.root != 0:
		return a.handle(s.root - 1), nil
	default:
		return Handle{}, fmt.Errorf("%w: %s", gerrors.ErrNoRoot, h)
	}
}

// Parent returns the parent of the entity
func (a *Arena) Parent(h Handle) (Handle, error) {
	s, err := a.lookup(h)
	if err != nil {
		return Handle{}, err
	}

	if s.parent == 0 {
		return Handle{}, fmt.Errorf("%w: %s", gerrors.ErrNoParent, h)
	}
	return a.handle(s.parent - 1), nil
}

// Add attaches child to parent under the child's id
func (a *Arena) Add(parent, child Handle) error {
	return a.attach(parent, child, false)
}

// AddTyped attaches child to parent under the type of its value. A parent
// holds at most one typed child per type.
func (a *Arena) AddTyped(parent, child Handle) error {
	return a.attach(parent, child, true)
}

func (a *Arena) attach(parent, child Handle, typed bool) error {
	if parent == child {
		return fmt.Errorf("%w: %s", gerrors.ErrSelfAttach, child)
	}

	p, err := a.lookup(parent)
	if err != nil {
		return err
	}

	c, err := a.lookup(child)
	if err != nil {
		return err
	}

	if c.parent != 0 || c.isRoot {
		return fmt.Errorf("%w: %s", gerrors.ErrEntityAttached, child)
	}

	root, err := a.Root(parent)
	if err != nil {
		return err
	}

	if typed {
		if existing, ok := p.byType[c.typeID]; ok {
			return fmt.Errorf("entity %s already has a child of type %T at %s", parent, c.value, a.handle(existing))
		}
		if p.byType == nil {
			p.byType = make(map[uint32]uint32)
		}
		p.byType[c.typeID] = child.index
	} else {
		if existing, ok := p.children[c.id]; ok {
			return fmt.Errorf("entity %s already has a child %s at %s", parent, c.id, a.handle(existing))
		}
		if p.children == nil {
			p.children = make(map[did.ID]uint32)
		}
		p.children[c.id] = child.index
	}

	c.typed = typed
	c.parent = parent.index + 1
	c.root = root.index + 1
	return nil
}

// Get returns the child of parent added under id
func (a *Arena) Get(parent Handle, id did.ID) (Handle, bool) {
	p, err := a.lookup(parent)
	if err != nil {
		return Handle{}, false
	}

	index, ok := p.children[id]
	if !ok {
		return Handle{}, false
	}
	return a.handle(index), true
}

// Children returns the handles of every child of parent
func (a *Arena) Children(parent Handle) ([]Handle, error) {
	p, err := a.lookup(parent)
	if err != nil {
		return nil, err
	}

	children := make([]Handle, 0, len(p.children)+len(p.byType))
	for _, index := range p.children {
		children = append(children, a.handle(index))
	}
	for _, index := range p.byType {
		children = append(children, a.handle(index))
	}
	return children, nil
}

// Remove destroys the child of parent added under id and its subtree
func (a *Arena) Remove(parent Handle, id did.ID) bool {
	p, err := a.lookup(parent)
	if err != nil {
		return false
	}

	index, ok := p.children[id]
	if !ok {
		return false
	}

	delete(p.children, id)
	a.destroy(index)
	return true
}

// RemoveAll destroys the children of parent selected by flag
func (a *Arena) RemoveAll(parent Handle, flag RemoveFlag) {
	p, err := a.lookup(parent)
	if err != nil {
		return
	}

	var doomed []uint32
	if flag&RemoveByID != 0 {
		for _, index := range p.children {
			doomed = append(doomed, index)
		}
		p.children = nil
	}

	if flag&RemoveByType != 0 {
		for _, index := range p.byType {
			doomed = append(doomed, index)
		}
		p.byType = nil
	}

	for _, index := range doomed {
		a.destroy(index)
	}
}

// Destroy detaches the entity from its parent and destroys it with its
// subtree
func (a *Arena) Destroy(h Handle) error {
	s, err := a.lookup(h)
	if err != nil {
		return err
	}

	if s.parent != 0 {
		p := &a.slots[s.parent-1]
		if s.typed {
			delete(p.byType, s.typeID)
		} else {
			delete(p.children, s.id)
		}
	}

	a.destroy(h.index)
	return nil
}

// destroy releases the slot at index after its children. Child hooks run
// before the hook of their parent.
func (a *Arena) destroy(index uint32) {
	s := &a.slots[index]
	children := make([]uint32, 0, len(s.children)+len(s.byType))
	for _, child := range s.children {
		children = append(children, child)
	}
	for _, child := range s.byType {
		children = append(children, child)
	}
	s.children = nil
	s.byType = nil

	for _, child := range children {
		a.destroy(child)
	}

	if destroyer, ok := a.slots[index].value.(Destroyer); ok {
		destroyer.OnDestroy()
	}

	version := a.slots[index].version + 1
	if version == 0 {
		version = 1
	}

	a.slots[index] = slot{version: version}
	a.free = append(a.free, index)
	a.live--
}

func (a *Arena) handle(index uint32) Handle {
	return Handle{index: index, version: a.slots[index].version}
}

func (a *Arena) lookup(h Handle) (*slot, error) {
	if h.version == 0 || int(h.index) >= len(a.slots) {
		return nil, fmt.Errorf("%w: %s", gerrors.ErrStaleEntity, h)
	}

	s := &a.slots[h.index]
	if !s.alive || s.version != h.version {
		return nil, fmt.Errorf("%w: %s", gerrors.ErrStaleEntity, h)
	}
	return s, nil
}

// ValueOf returns the value of the entity as a T
func ValueOf[T any](a *Arena, h Handle) (T, error) {
	var zero T
	value, err := a.Value(h)
	if err != nil {
		return zero, err
	}

	typed, ok := value.(T)
	if !ok {
		return zero, fmt.Errorf("entity %s holds %T, not %v", h, value, reflect.TypeFor[T]())
	}
	return typed, nil
}

// GetTyped returns the child of parent added with AddTyped whose value is a T
func GetTyped[T any](a *Arena, parent Handle) (T, Handle, bool) {
	var zero T
	p, err := a.lookup(parent)
	if err != nil {
		return zero, Handle{}, false
	}

	index, ok := p.byType[message.TypeID(reflect.TypeFor[T]())]
	if !ok {
		return zero, Handle{}, false
	}

	typed, ok := a.slots[index].value.(T)
	if !ok {
		return zero, Handle{}, false
	}
	return typed, a.handle(index), true
}

// RemoveTyped destroys the child of parent added with AddTyped whose value
// is a T
func RemoveTyped[T any](a *Arena, parent Handle) bool {
	p, err := a.lookup(parent)
	if err != nil {
		return false
	}

	typeID := message.TypeID(reflect.TypeFor[T]())
	index, ok := p.byType[typeID]
	if !ok {
		return false
	}

	delete(p.byType, typeID)
	a.destroy(index)
	return true
}
