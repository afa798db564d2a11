package ecs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/l1jgo/stagecraft/internal/core/event"
)

type testKinds struct {
	reg      *KindRegistry
	position *Kind
	velocity *Kind
	health   *Kind
}

func newTestKinds() testKinds {
	reg := NewKindRegistry(DefaultCapacity)
	return testKinds{
		reg:      reg,
		position: reg.Define("position", Options{"x": 0.0, "y": 0.0}, WithDirtyTracking()),
		velocity: reg.Define("velocity", Options{"dx": 0.0, "dy": 0.0}),
		health:   reg.Define("health", Options{"hp": 100, "tags": []any{"alive"}}),
	}
}

func newTestEntity(t *testing.T) (*Entity, testKinds) {
	t.Helper()
	m := NewEntityManager(event.NewManager())
	return m.Add("test"), newTestKinds()
}

func TestComponentDefaultsAndOverrides(t *testing.T) {
	e, k := newTestEntity(t)
	c := e.Add(k.position, Options{"x": 3.0})

	require.Equal(t, 3.0, c.Prop("x"))
	require.Equal(t, 0.0, c.Prop("y"))
	require.Nil(t, c.Prop("z"))
	require.False(t, c.Dirty(), "construction does not count as a change")
	require.Same(t, e, c.Entity())
	require.Same(t, k.position, c.Kind())
	require.True(t, c.Category().Equal(k.position.Category()))
}

func TestComponentDefaultsAreNotShared(t *testing.T) {
	e, k := newTestEntity(t)
	other := e.Manager().Add("other")

	a := e.Add(k.health, nil)
	b := other.Add(k.health, nil)
	a.Prop("tags").([]any)[0] = "dead"

	require.Equal(t, []any{"alive"}, b.Prop("tags"))
	require.Equal(t, []any{"alive"}, k.health.Defaults()["tags"])
}

func TestComponentListenersFireOnEveryWrite(t *testing.T) {
	e, k := newTestEntity(t)
	c := e.Add(k.position, nil)

	type call struct {
		name       string
		value, old any
	}
	var calls []call
	c.On("x", func(name string, value, old any) {
		calls = append(calls, call{name, value, old})
	})

	c.SetProp("x", 1.0)
	c.SetProp("x", 1.0)
	c.SetProp("y", 5.0)

	require.Equal(t, []call{
		{"x", 1.0, 0.0},
		{"x", 1.0, 1.0},
	}, calls)

	c.Off("x")
	c.SetProp("x", 2.0)
	require.Len(t, calls, 2)
}

func TestComponentOffWithoutNamesDropsEverything(t *testing.T) {
	e, k := newTestEntity(t)
	c := e.Add(k.position, nil)

	n := 0
	c.On("x", func(string, any, any) { n++ })
	c.On("y", func(string, any, any) { n++ })
	c.Off()
	c.Set(Options{"x": 1.0, "y": 1.0})
	require.Zero(t, n)
}

func TestComponentDirtyTracksChangesOnly(t *testing.T) {
	e, k := newTestEntity(t)
	c := e.Add(k.position, nil)

	c.SetProp("x", 0.0)
	require.False(t, c.Dirty(), "same value")

	c.SetProp("x", 2.0)
	require.True(t, c.Dirty())

	c.ClearDirty()
	require.False(t, c.Dirty())

	v := e.Add(k.velocity, nil)
	v.SetProp("dx", 9.0)
	require.False(t, v.Dirty(), "kind does not track dirty state")
}

func TestComponentKeysIncludeExtras(t *testing.T) {
	e, k := newTestEntity(t)
	c := e.Add(k.position, nil)

	c.SetProp("label", "hero")
	c.SetProp("alpha", 0.5)
	c.SetProp("x", 1.0)

	require.Equal(t, []string{"x", "y", "label", "alpha"}, c.Keys())
	require.Equal(t, Options{"x": 1.0, "y": 0.0, "label": "hero", "alpha": 0.5}, c.Serialize())
}

func TestComponentSerializeIsShallow(t *testing.T) {
	e, k := newTestEntity(t)
	c := e.Add(k.health, nil)

	snap := c.Serialize()
	snap["hp"] = 1
	require.Equal(t, 100, c.Prop("hp"))

	snap["tags"].([]any)[0] = "shared"
	require.Equal(t, []any{"shared"}, c.Prop("tags"))
}

func TestComponentNumericReads(t *testing.T) {
	e, k := newTestEntity(t)
	c := e.Add(k.health, Options{"hp": 42})

	require.Equal(t, 42.0, c.Float("hp"))
	require.Equal(t, 42, c.Int("hp"))
	require.Zero(t, c.Float("missing"))

	hp, ok := PropAs[int](c, "hp")
	require.True(t, ok)
	require.Equal(t, 42, hp)
	_, ok = PropAs[string](c, "hp")
	require.False(t, ok)
}

func TestComponentDestroyDetachesFromEntity(t *testing.T) {
	e, k := newTestEntity(t)
	c := e.Add(k.position, nil)
	e.Add(k.velocity, nil)

	var removed *Component
	e.Manager().Events().Register(event.ComponentRemovedName("position"), e, func(args ...any) {
		removed = args[0].(*Component)
		require.True(t, removed.Valid(), "removal is announced before release")
	})

	c.Destroy()

	require.Same(t, c, removed)
	require.False(t, c.Valid())
	require.Nil(t, e.Get(k.position))
	require.False(t, e.Has(k.position))
	require.True(t, e.Has(k.velocity))

	c.SetProp("x", 5.0)
	require.Equal(t, 0.0, c.Prop("x"), "writes after destroy are ignored")
}
