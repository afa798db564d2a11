package ecs

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUndefinedKind is raised when a Kind value that was not produced by
// DefineKind is used to build a component.
var ErrUndefinedKind = errors.New("ecs: component kind was not defined through a registry")

// Kinds is the process-wide component kind registry.
var Kinds = NewKindRegistry(DefaultCapacity)

// Kind is a registered component type: a singleton category bit plus the
// default-value schema its instances start from.
type Kind struct {
	name     string
	bit      int
	mask     Mask
	defaults Options
	keys     []string
	dirty    bool
	registry *KindRegistry
}

// KindOption tweaks a kind at definition time.
type KindOption func(*Kind)

// WithDirtyTracking makes instances of the kind flip a dirty flag whenever a
// property write changes the stored value.
func WithDirtyTracking() KindOption {
	return func(k *Kind) { k.dirty = true }
}

// Name returns the kind's name; empty for anonymous kinds.
func (k *Kind) Name() string {
	if k == nil {
		return ""
	}
	return k.name
}

// Bit returns the category bit assigned to the kind.
func (k *Kind) Bit() int { return k.bit }

// Category returns the singleton mask of the kind. A nil kind has an empty mask.
func (k *Kind) Category() Mask {
	if k == nil {
		return NewMask()
	}
	return k.mask
}

// Defaults returns a deep copy of the kind's default values.
func (k *Kind) Defaults() Options { return deepCopyOptions(k.defaults) }

// Keys returns the schema's property names in sorted order.
func (k *Kind) Keys() []string { return append([]string(nil), k.keys...) }

// TracksDirty reports whether instances keep a dirty flag.
func (k *Kind) TracksDirty() bool { return k.dirty }

func (k *Kind) defined() bool { return k.registry != nil }

func (k *Kind) String() string {
	if k == nil {
		return "<nil kind>"
	}
	if k.name == "" {
		return fmt.Sprintf("kind#%d", k.bit)
	}
	return k.name
}

// KindRegistry hands out category bits, monotonically from 0 up to its capacity.
type KindRegistry struct {
	mu       sync.Mutex
	capacity int
	next     int
	byName   map[string]*Kind
	byBit    []*Kind
}

// NewKindRegistry creates a registry able to hold capacity kinds.
func NewKindRegistry(capacity int) *KindRegistry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &KindRegistry{
		capacity: capacity,
		byName:   make(map[string]*Kind, 16),
		byBit:    make([]*Kind, 0, capacity),
	}
}

// DefineKind registers a kind on the process-wide registry.
func DefineKind(name string, defaults Options, opts ...KindOption) *Kind {
	return Kinds.Define(name, defaults, opts...)
}

// Define assigns the next free bit to a new kind. It panics when the registry is
// full or when name is already taken; both are configuration errors that must
// surface at definition time.
func (r *KindRegistry) Define(name string, defaults Options, opts ...KindOption) *Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next >= r.capacity {
		panic(fmt.Sprintf("ecs: cannot define component kind %q: maximum number of kinds (%d) reached", name, r.capacity))
	}
	if name != "" {
		if _, dup := r.byName[name]; dup {
			panic(fmt.Sprintf("ecs: component kind %q already defined", name))
		}
	}

	k := &Kind{
		name:     name,
		bit:      r.next,
		mask:     NewMask(r.next),
		defaults: deepCopyOptions(defaults),
		registry: r,
	}
	for key := range k.defaults {
		k.keys = append(k.keys, key)
	}
	sort.Strings(k.keys)
	for _, o := range opts {
		o(k)
	}

	r.next++
	r.byBit = append(r.byBit, k)
	if name != "" {
		r.byName[name] = k
	}
	return k
}

// Lookup finds a kind by name.
func (r *KindRegistry) Lookup(name string) (*Kind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.byName[name]
	return k, ok
}

// Len returns the number of kinds defined so far.
func (r *KindRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.next
}

// Capacity returns the maximum number of kinds.
func (r *KindRegistry) Capacity() int { return r.capacity }
