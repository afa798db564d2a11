package ecs

import (
	"github.com/l1jgo/stagecraft/internal/core/event"
)

// EntityManager owns every live entity in insertion order and assigns ids.
type EntityManager struct {
	events   *event.Manager
	entities []*Entity
	byID     map[EntityID]*Entity
	nextID   EntityID
}

// NewEntityManager creates a manager that publishes lifecycle events on events.
// A nil event manager disables notifications.
func NewEntityManager(events *event.Manager) *EntityManager {
	return &EntityManager{
		events:   events,
		entities: make([]*Entity, 0, 64),
		byID:     make(map[EntityID]*Entity, 64),
		nextID:   1,
	}
}

// Events returns the event manager entities publish on.
func (m *EntityManager) Events() *event.Manager { return m.events }

func (m *EntityManager) emit(name string, args ...any) {
	if m == nil || m.events == nil {
		return
	}
	m.events.Emit(name, args...)
}

// Add creates an entity with the next id. An empty tag means untagged.
func (m *EntityManager) Add(tag string) *Entity {
	e := newEntity(m, m.nextID, tag)
	m.nextID++
	m.entities = append(m.entities, e)
	m.byID[e.id] = e
	m.emit(event.EntityAdded, e)
	return e
}

// Get looks an entity up by id.
func (m *EntityManager) Get(id EntityID) *Entity { return m.byID[id] }

// Len returns the number of live entities.
func (m *EntityManager) Len() int { return len(m.entities) }

// All returns every live entity in insertion order.
func (m *EntityManager) All() []*Entity { return append([]*Entity(nil), m.entities...) }

// WithTag returns the entities carrying tag.
func (m *EntityManager) WithTag(tag string) []*Entity {
	var out []*Entity
	for _, e := range m.entities {
		if e.tag == tag {
			out = append(out, e)
		}
	}
	return out
}

// WithComponents returns the entities carrying every given kind. With no kinds
// every entity matches.
func (m *EntityManager) WithComponents(kinds ...*Kind) []*Entity {
	return NewQuery(kinds...).Filter(m)
}

// Remove announces the removal of e, drops it from the collection and
// destroys it. Entities not owned by m are ignored.
func (m *EntityManager) Remove(e *Entity) {
	if e == nil || e.manager != m || e.removing {
		return
	}
	e.removing = true
	m.emit(event.EntityRemoved, e)
	for i, le := range m.entities {
		if le == e {
			m.entities = append(m.entities[:i], m.entities[i+1:]...)
			break
		}
	}
	delete(m.byID, e.id)
	e.release()
}

// RemoveAll removes every entity, last first.
func (m *EntityManager) RemoveAll() {
	m.removeWhere(func(*Entity) bool { return true })
}

// RemoveWithTag removes the entities carrying tag.
func (m *EntityManager) RemoveWithTag(tag string) {
	m.removeWhere(func(e *Entity) bool { return e.tag == tag })
}

// RemoveWithComponents removes the entities carrying every given kind.
func (m *EntityManager) RemoveWithComponents(kinds ...*Kind) {
	q := NewQuery(kinds...)
	m.removeWhere(q.Matches)
}

// Destroy removes every entity and detaches the event manager.
func (m *EntityManager) Destroy() {
	m.RemoveAll()
	m.events = nil
}

// removeWhere walks in reverse so handlers reacting to removal events may
// mutate the collection.
func (m *EntityManager) removeWhere(match func(*Entity) bool) {
	for i := len(m.entities) - 1; i >= 0; i-- {
		if i >= len(m.entities) {
			continue
		}
		if e := m.entities[i]; match(e) {
			m.Remove(e)
		}
	}
}
