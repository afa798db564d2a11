package system

import (
	"time"

	"github.com/l1jgo/stagecraft/internal/config"
	"github.com/l1jgo/stagecraft/internal/core/ecs"
	"github.com/l1jgo/stagecraft/internal/core/event"
)

type entry struct {
	kind *Kind
	sys  System
}

// Manager holds at most one live system per kind and runs them in the order
// they were added.
type Manager struct {
	entities *ecs.EntityManager
	events   *event.Manager
	cfg      config.Director
	byKind   map[*Kind]System
	order    []entry
}

func NewManager(entities *ecs.EntityManager, events *event.Manager, cfg config.Director) *Manager {
	return &Manager{
		entities: entities,
		events:   events,
		cfg:      cfg,
		byKind:   make(map[*Kind]System, 16),
		order:    make([]entry, 0, 16),
	}
}

// Add instantiates kind unless it is already live, subscribes the system's
// listener table and runs Configure. An invalid kind returns nil.
func (m *Manager) Add(kind *Kind) System {
	if !kind.valid() {
		return nil
	}
	if s, ok := m.byKind[kind]; ok {
		return s
	}
	s := kind.factory()
	if s == nil {
		return nil
	}
	if b, ok := s.(binder); ok {
		b.bind(m, kind)
	}
	m.byKind[kind] = s
	m.order = append(m.order, entry{kind: kind, sys: s})
	if m.events != nil {
		m.events.RegisterContext(s)
	}
	s.Configure(m.entities, m.events, m.cfg)
	return s
}

// Get returns the live system of kind, or nil.
func (m *Manager) Get(kind *Kind) System {
	if kind == nil {
		return nil
	}
	return m.byKind[kind]
}

// Systems returns the live systems in execution order.
func (m *Manager) Systems() []System {
	out := make([]System, len(m.order))
	for i, e := range m.order {
		out[i] = e.sys
	}
	return out
}

// Remove unsubscribes, unlists and destroys the system of kind.
func (m *Manager) Remove(kind *Kind) {
	if kind == nil {
		return
	}
	if _, ok := m.byKind[kind]; !ok {
		return
	}
	m.removeAt(m.indexOf(kind))
}

// RemoveSystem removes a live system instance.
func (m *Manager) RemoveSystem(s System) {
	for i, e := range m.order {
		if e.sys == s {
			m.removeAt(i)
			return
		}
	}
}

// RemoveAll removes every system, newest first.
func (m *Manager) RemoveAll() {
	for i := len(m.order) - 1; i >= 0; i-- {
		if i < len(m.order) {
			m.removeAt(i)
		}
	}
}

func (m *Manager) indexOf(kind *Kind) int {
	for i, e := range m.order {
		if e.kind == kind {
			return i
		}
	}
	return -1
}

func (m *Manager) removeAt(i int) {
	if i < 0 || i >= len(m.order) {
		return
	}
	e := m.order[i]
	if m.events != nil {
		m.events.UnregisterContext(e.sys)
	}
	m.order = append(m.order[:i], m.order[i+1:]...)
	delete(m.byKind, e.kind)
	e.sys.Destroy()
	if b, ok := e.sys.(binder); ok {
		b.bind(nil, nil)
	}
}

// Start forwards to systems implementing Starter.
func (m *Manager) Start() {
	for _, s := range m.Systems() {
		if st, ok := s.(Starter); ok {
			st.Start()
		}
	}
}

// Stop forwards to systems implementing Stopper.
func (m *Manager) Stop() {
	for _, s := range m.Systems() {
		if st, ok := s.(Stopper); ok {
			st.Stop()
		}
	}
}

// Update runs every system's Update in registration order. Systems removed
// by an earlier system during the pass are skipped.
func (m *Manager) Update(dt time.Duration) {
	for _, e := range append([]entry(nil), m.order...) {
		if m.byKind[e.kind] != e.sys {
			continue
		}
		e.sys.Update(m.entities, m.events, dt)
	}
}

// Render runs every system's Render in registration order.
func (m *Manager) Render() {
	for _, e := range append([]entry(nil), m.order...) {
		if m.byKind[e.kind] != e.sys {
			continue
		}
		e.sys.Render(m.entities)
	}
}

// Destroy removes every system and drops the manager references.
func (m *Manager) Destroy() {
	m.RemoveAll()
	m.entities = nil
	m.events = nil
}
