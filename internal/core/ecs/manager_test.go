package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/l1jgo/stagecraft/internal/core/event"
)

func TestEntityManagerIDsAreNeverReused(t *testing.T) {
	m := NewEntityManager(nil)
	a := m.Add("")
	b := m.Add("")
	require.Equal(t, EntityID(1), a.ID())
	require.Equal(t, EntityID(2), b.ID())

	m.Remove(b)
	c := m.Add("")
	require.Equal(t, EntityID(3), c.ID())
	require.Equal(t, []*Entity{a, c}, m.All())
	require.Same(t, c, m.Get(3))
	require.Nil(t, m.Get(2))
}

func TestEntityManagerLifecycleEvents(t *testing.T) {
	m := NewEntityManager(event.NewManager())
	var rec recorder
	rec.on(m.Events(), event.EntityAdded, event.EntityRemoved)

	var validOnRemove bool
	m.Events().Register(event.EntityRemoved, m, func(args ...any) {
		validOnRemove = args[0].(*Entity).Valid()
	})

	e := m.Add("x")
	require.Equal(t, []any{e}, rec.args[event.EntityAdded])

	e.Destroy()
	e.Destroy()
	require.Equal(t, []string{event.EntityAdded, event.EntityRemoved}, rec.names)
	require.True(t, validOnRemove, "removal is announced before teardown")
	require.Zero(t, m.Len())
}

func TestEntityManagerQueries(t *testing.T) {
	m := NewEntityManager(nil)
	k := newTestKinds()

	moving := m.Add("ship")
	moving.Add(k.position, nil)
	moving.Add(k.velocity, nil)
	still := m.Add("rock")
	still.Add(k.position, nil)
	bare := m.Add("ship")

	require.Equal(t, []*Entity{moving, still, bare}, m.WithComponents())
	require.Equal(t, []*Entity{moving, still}, m.WithComponents(k.position))
	require.Equal(t, []*Entity{moving}, m.WithComponents(k.position, k.velocity))
	require.Empty(t, m.WithComponents(k.health))
	require.Equal(t, []*Entity{moving, bare}, m.WithTag("ship"))

	// adding kinds to a query never grows its result
	for _, extra := range []*Kind{k.velocity, k.health} {
		narrower := m.WithComponents(k.position, extra)
		require.LessOrEqual(t, len(narrower), len(m.WithComponents(k.position)))
	}
}

func TestEntityManagerBulkRemoval(t *testing.T) {
	m := NewEntityManager(event.NewManager())
	k := newTestKinds()

	a := m.Add("enemy")
	a.Add(k.health, nil)
	b := m.Add("enemy")
	c := m.Add("ally")
	c.Add(k.health, nil)

	m.RemoveWithTag("enemy")
	require.Equal(t, []*Entity{c}, m.All())
	require.False(t, a.Valid())
	require.False(t, b.Valid())

	m.RemoveWithComponents(k.health)
	require.Zero(t, m.Len())
}

func TestEntityManagerRemovalHandlersMayMutate(t *testing.T) {
	m := NewEntityManager(event.NewManager())
	a := m.Add("")
	b := m.Add("")
	c := m.Add("")

	// removing c also removes a from inside the handler
	m.Events().Register(event.EntityRemoved, m, func(args ...any) {
		if args[0].(*Entity) == c {
			a.Destroy()
		}
	})
	m.RemoveAll()

	require.Zero(t, m.Len())
	for _, e := range []*Entity{a, b, c} {
		require.False(t, e.Valid())
	}
}

func TestEntityManagerIgnoresForeignEntities(t *testing.T) {
	m1 := NewEntityManager(nil)
	m2 := NewEntityManager(nil)
	e := m1.Add("")

	m2.Remove(e)
	require.True(t, e.Valid())
	require.Equal(t, 1, m1.Len())
}

func TestQueryEachSkipsEntitiesRemovedMidPass(t *testing.T) {
	m := NewEntityManager(nil)
	k := newTestKinds()
	for i := 0; i < 3; i++ {
		m.Add("").Add(k.position, nil)
	}

	var seen []EntityID
	NewQuery(k.position).Each(m, func(e *Entity, cs []*Component) {
		seen = append(seen, e.ID())
		require.Same(t, e.Get(k.position), cs[0])
		if e.ID() == 1 {
			m.Get(2).Destroy()
		}
	})
	require.Equal(t, []EntityID{1, 3}, seen)

	var pairs int
	Each2(m, k.position, k.velocity, func(*Entity, *Component, *Component) { pairs++ })
	require.Zero(t, pairs)
}

func BenchmarkQueryEach(b *testing.B) {
	m := NewEntityManager(nil)
	k := newTestKinds()
	for i := 0; i < 1000; i++ {
		e := m.Add("")
		e.Add(k.position, nil)
		if i%2 == 0 {
			e.Add(k.velocity, nil)
		}
	}
	q := NewQuery(k.position, k.velocity)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Each(m, func(*Entity, []*Component) {})
	}
}

func TestQueryEachSlicesOutliveTheCallback(t *testing.T) {
	m := NewEntityManager(nil)
	k := newTestKinds()
	a := m.Add("")
	a.Add(k.position, nil)
	b := m.Add("")
	b.Add(k.position, nil)

	var kept [][]*Component
	NewQuery(k.position).Each(m, func(_ *Entity, cs []*Component) {
		kept = append(kept, cs)
	})

	require.Len(t, kept, 2)
	require.Same(t, a.Get(k.position), kept[0][0])
	require.Same(t, b.Get(k.position), kept[1][0])
}
