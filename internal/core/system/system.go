package system

import (
	"fmt"
	"sync"
	"time"

	"github.com/l1jgo/stagecraft/internal/config"
	"github.com/l1jgo/stagecraft/internal/core/ecs"
	"github.com/l1jgo/stagecraft/internal/core/event"
)

// DefaultCapacity bounds the number of system kinds per registry.
const DefaultCapacity = 64

// System is a behaviour unit run by a Manager. Embed Base for no-op defaults.
type System interface {
	// Configure runs once, when the system is added to a manager.
	Configure(entities *ecs.EntityManager, events *event.Manager, cfg config.Director)
	// Update runs every simulation tick, in registration order.
	Update(entities *ecs.EntityManager, events *event.Manager, dt time.Duration)
	// Render runs once per frame after the tick's updates.
	Render(entities *ecs.EntityManager)
	// Destroy runs when the system is removed.
	Destroy()
}

// Starter and Stopper are optional hooks forwarded by Manager.Start/Stop.
type Starter interface{ Start() }
type Stopper interface{ Stop() }

// Base gives embedding systems no-op hooks and the back-reference to their
// manager.
type Base struct {
	manager *Manager
	kind    *Kind
}

func (b *Base) Configure(*ecs.EntityManager, *event.Manager, config.Director) {}
func (b *Base) Update(*ecs.EntityManager, *event.Manager, time.Duration)     {}
func (b *Base) Render(*ecs.EntityManager)                                    {}
func (b *Base) Destroy()                                                     {}

// Manager returns the manager the system belongs to, or nil before Add.
func (b *Base) Manager() *Manager { return b.manager }

// Kind returns the system's kind, or nil before Add.
func (b *Base) Kind() *Kind { return b.kind }

func (b *Base) bind(m *Manager, k *Kind) {
	b.manager = m
	b.kind = k
}

type binder interface {
	bind(*Manager, *Kind)
}

// Factory constructs a fresh system instance.
type Factory func() System

// Kind identifies a system type. Ids come from a numbering space separate
// from component categories.
type Kind struct {
	name    string
	id      int
	factory Factory
	reg     *KindRegistry
}

func (k *Kind) Name() string { return k.name }
func (k *Kind) ID() int      { return k.id }

func (k *Kind) valid() bool { return k != nil && k.reg != nil && k.factory != nil }

func (k *Kind) String() string {
	if k == nil {
		return "<nil system kind>"
	}
	return fmt.Sprintf("%s#%d", k.name, k.id)
}

// KindRegistry assigns system ids monotonically from 1.
type KindRegistry struct {
	mu       sync.Mutex
	capacity int
	next     int
	byName   map[string]*Kind
}

// Kinds is the process-wide system kind registry.
var Kinds = NewKindRegistry(DefaultCapacity)

func NewKindRegistry(capacity int) *KindRegistry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &KindRegistry{
		capacity: capacity,
		next:     1,
		byName:   make(map[string]*Kind, 16),
	}
}

// DefineKind registers a system kind on the process-wide registry.
func DefineKind(name string, factory Factory) *Kind {
	return Kinds.Define(name, factory)
}

// Define assigns the next id. It panics past capacity, on a nil factory and
// on a duplicate name.
func (r *KindRegistry) Define(name string, factory Factory) *Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	if factory == nil {
		panic(fmt.Sprintf("system: kind %q has no factory", name))
	}
	if r.next > r.capacity {
		panic(fmt.Sprintf("system: cannot define kind %q: maximum number of system kinds (%d) reached", name, r.capacity))
	}
	if _, dup := r.byName[name]; dup && name != "" {
		panic(fmt.Sprintf("system: kind %q already defined", name))
	}
	k := &Kind{name: name, id: r.next, factory: factory, reg: r}
	r.next++
	if name != "" {
		r.byName[name] = k
	}
	return k
}

// Lookup finds a system kind by name.
func (r *KindRegistry) Lookup(name string) (*Kind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k, ok := r.byName[name]
	return k, ok
}
