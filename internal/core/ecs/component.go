package ecs

import (
	"reflect"
	"sort"
)

// Listener observes writes to one property of a component instance.
type Listener func(name string, value, old any)

// Component is one instance of a Kind attached to exactly one Entity. The
// entity owns it; the back-reference is only used for delegation.
type Component struct {
	kind      *Kind
	entity    *Entity
	values    Options
	extra     []string // keys written outside the schema, insertion order
	listeners map[string][]Listener
	dirty     bool
}

func newComponent(k *Kind, e *Entity, opts Options) *Component {
	c := &Component{
		kind:   k,
		entity: e,
		values: k.Defaults(),
	}
	c.Set(opts)
	c.dirty = false
	return c
}

// Kind returns the component's kind.
func (c *Component) Kind() *Kind { return c.kind }

// Category returns the kind's singleton mask.
func (c *Component) Category() Mask { return c.kind.Category() }

// Entity returns the owning entity, or nil once the component is destroyed.
func (c *Component) Entity() *Entity { return c.entity }

// Valid reports whether the component is still attached to its entity.
func (c *Component) Valid() bool { return c.entity != nil }

// Set writes every supplied property through SetProp, in key order.
func (c *Component) Set(props Options) *Component {
	if len(props) == 0 {
		return c
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.SetProp(k, props[k])
	}
	return c
}

// Prop reads a property. Missing properties read as nil.
func (c *Component) Prop(name string) any {
	return c.values[name]
}

// Float reads a numeric property as float64, whatever its stored number type.
func (c *Component) Float(name string) float64 {
	f, _ := toFloat(c.values[name])
	return f
}

// Int reads a numeric property as int.
func (c *Component) Int(name string) int {
	f, _ := toFloat(c.values[name])
	return int(f)
}

// SetProp writes a property and fires its listeners with the new and old value.
// Writes to a destroyed component are ignored.
func (c *Component) SetProp(name string, value any) *Component {
	if !c.Valid() {
		return c
	}
	old, existed := c.values[name]
	if !existed && !c.inSchema(name) {
		c.extra = append(c.extra, name)
	}
	c.values[name] = value
	if c.kind.dirty && !sameValue(old, value) {
		c.dirty = true
	}
	c.Trigger(name, value, old)
	return c
}

// On registers a listener for writes to name.
func (c *Component) On(name string, fn Listener) *Component {
	if fn == nil || !c.Valid() {
		return c
	}
	if c.listeners == nil {
		c.listeners = make(map[string][]Listener, 4)
	}
	c.listeners[name] = append(c.listeners[name], fn)
	return c
}

// Off drops the listeners of the named properties, or every listener when no
// name is given.
func (c *Component) Off(names ...string) *Component {
	if len(names) == 0 {
		c.listeners = nil
		return c
	}
	for _, n := range names {
		delete(c.listeners, n)
	}
	return c
}

// Trigger calls the listeners of name synchronously, in registration order.
func (c *Component) Trigger(name string, value, old any) {
	ls := c.listeners[name]
	if len(ls) == 0 {
		return
	}
	for _, fn := range append([]Listener(nil), ls...) {
		fn(name, value, old)
	}
}

// Dirty reports whether a tracked property changed since the last ClearDirty.
func (c *Component) Dirty() bool { return c.dirty }

// ClearDirty resets the dirty flag.
func (c *Component) ClearDirty() { c.dirty = false }

// Keys returns the schema's property names followed by any extra names that
// were written on this instance.
func (c *Component) Keys() []string {
	keys := c.kind.Keys()
	seen := make(map[string]struct{}, len(keys)+len(c.extra))
	for _, k := range keys {
		seen[k] = struct{}{}
	}
	for _, k := range c.extra {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// Serialize snapshots every key. The snapshot is shallow: nested maps and
// slices are shared with the live component.
func (c *Component) Serialize() Options {
	keys := c.Keys()
	out := make(Options, len(keys))
	for _, k := range keys {
		out[k] = c.values[k]
	}
	return out
}

// Destroy detaches the component from its entity. Called directly it goes
// through the entity so the composition mask and removal event stay correct.
func (c *Component) Destroy() {
	if c.entity != nil {
		c.entity.RemoveComponent(c)
		return
	}
	c.release()
}

// release is the owner-driven teardown.
func (c *Component) release() {
	c.listeners = nil
	c.entity = nil
}

func (c *Component) inSchema(name string) bool {
	_, ok := c.kind.defaults[name]
	return ok
}

// PropAs reads a property with a type assertion.
func PropAs[T any](c *Component, name string) (T, bool) {
	v, ok := c.values[name].(T)
	return v, ok
}

func sameValue(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil {
		return true
	}
	switch ta.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Struct, reflect.Array, reflect.Interface:
		return reflect.DeepEqual(a, b)
	}
	return a == b
}

// Number converts any built-in integer or float value to float64.
func Number(v any) (float64, bool) { return toFloat(v) }

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
