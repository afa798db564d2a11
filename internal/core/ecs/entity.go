package ecs

import (
	"github.com/l1jgo/stagecraft/internal/core/event"
)

// EntityID is a manager-scoped identity. Ids start at 1 and are never reused.
type EntityID uint64

func (id EntityID) IsZero() bool { return id == 0 }

// Entity owns at most one component per kind and tracks their union mask. It
// also sits in a strict parent/children tree.
type Entity struct {
	id         EntityID
	tag        string
	manager    *EntityManager
	components map[int]*Component
	order      []*Component
	mask       Mask
	parent     *Entity
	children   []*Entity
	removing   bool
}

func newEntity(m *EntityManager, id EntityID, tag string) *Entity {
	return &Entity{
		id:         id,
		tag:        tag,
		manager:    m,
		components: make(map[int]*Component, 4),
		mask:       NewMask(),
	}
}

func (e *Entity) ID() EntityID { return e.id }
func (e *Entity) Tag() string  { return e.tag }

// Manager returns the owning manager, or nil once destroyed.
func (e *Entity) Manager() *EntityManager { return e.manager }

// Valid reports whether the entity is still alive in its manager.
func (e *Entity) Valid() bool { return e != nil && e.manager != nil }

// Mask returns a copy of the composition mask.
func (e *Entity) Mask() Mask { return e.mask.Clone() }

// Category makes entities foldable by MaskOf.
func (e *Entity) Category() Mask { return e.mask }

// Parent returns the parent entity, or nil.
func (e *Entity) Parent() *Entity { return e.parent }

// Children returns a copy of the child list in attach order.
func (e *Entity) Children() []*Entity { return append([]*Entity(nil), e.children...) }

// Components returns the attached components in attach order.
func (e *Entity) Components() []*Component { return append([]*Component(nil), e.order...) }

// Add attaches a component of kind k initialised from its defaults and opts.
// When the entity already carries k the existing instance is updated with opts
// and returned; no event is emitted in that case. An entity being destroyed
// accepts no new components.
func (e *Entity) Add(k *Kind, opts Options) *Component {
	if k == nil || !e.Valid() || e.removing {
		return nil
	}
	if !k.defined() {
		panic(ErrUndefinedKind)
	}
	if c, ok := e.components[k.bit]; ok {
		return c.Set(opts)
	}
	c := newComponent(k, e, opts)
	e.components[k.bit] = c
	e.order = append(e.order, c)
	e.mask.AddBits(k.mask)
	e.manager.emit(event.ComponentAddedName(k.name), c, e)
	return c
}

// Has reports whether every given kind is attached. No kinds never matches.
func (e *Entity) Has(kinds ...*Kind) bool {
	m := MaskOf(kinds...)
	return !m.IsZero() && e.mask.HasBits(m)
}

// Get returns the live component of kind k, or nil.
func (e *Entity) Get(k *Kind) *Component {
	if k == nil {
		return nil
	}
	return e.components[k.bit]
}

// Remove detaches the component of kind k, if any.
func (e *Entity) Remove(k *Kind) *Entity {
	if k == nil {
		return e
	}
	if c, ok := e.components[k.bit]; ok {
		e.RemoveComponent(c)
	}
	return e
}

// RemoveComponent detaches c if it belongs to this entity. The removal event
// fires while c is still valid; c is released afterwards.
func (e *Entity) RemoveComponent(c *Component) *Entity {
	if c == nil || c.entity != e || e.components[c.kind.bit] != c {
		return e
	}
	delete(e.components, c.kind.bit)
	for i, oc := range e.order {
		if oc == c {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.mask.RemoveBits(c.kind.mask)
	e.manager.emit(event.ComponentRemovedName(c.kind.name), c, e)
	c.release()
	return e
}

// RemoveAll detaches every component, newest first.
func (e *Entity) RemoveAll() *Entity {
	for i := len(e.order) - 1; i >= 0; i-- {
		if i < len(e.order) {
			e.RemoveComponent(e.order[i])
		}
	}
	return e
}

// Clone creates a new entity with the same tag and a value copy of every
// component, taken through Serialize.
func (e *Entity) Clone() *Entity {
	if !e.Valid() {
		return nil
	}
	n := e.manager.Add(e.tag)
	for _, c := range e.Components() {
		n.Add(c.kind, c.Serialize())
	}
	return n
}

// AddChild moves child under e, detaching it from any previous parent first.
// Attaching an ancestor of e would break the tree and is ignored.
func (e *Entity) AddChild(child *Entity) *Entity {
	if child == nil || child == e || child.parent == e || !e.Valid() || !child.Valid() || e.removing || child.removing {
		return e
	}
	for p := e.parent; p != nil; p = p.parent {
		if p == child {
			return e
		}
	}
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = e
	e.children = append(e.children, child)
	e.manager.emit(event.ChildAdded, e, child)
	return e
}

// RemoveChild detaches child when it is actually a child of e.
func (e *Entity) RemoveChild(child *Entity) *Entity {
	if child == nil || child.parent != e {
		return e
	}
	for i, c := range e.children {
		if c == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			break
		}
	}
	child.parent = nil
	e.manager.emit(event.ChildRemoved, e, child)
	return e
}

// RemoveAllChildren detaches every child, newest first.
func (e *Entity) RemoveAllChildren() *Entity {
	for i := len(e.children) - 1; i >= 0; i-- {
		if i < len(e.children) {
			e.RemoveChild(e.children[i])
		}
	}
	return e
}

// Destroy removes the entity through its manager.
func (e *Entity) Destroy() {
	if e.manager != nil {
		e.manager.Remove(e)
	}
}

// release is the owner-driven teardown: children are detached, not destroyed.
// removing is already set, so handlers fired from here cannot attach anything.
func (e *Entity) release() {
	if e.parent != nil {
		e.parent.RemoveChild(e)
	}
	e.RemoveAllChildren()
	e.RemoveAll()
	e.manager = nil
}
