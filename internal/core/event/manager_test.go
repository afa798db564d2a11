package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type ctx struct {
	name string
	log  *[]string
}

func (c *ctx) handler() Handler {
	return func(args ...any) { *c.log = append(*c.log, c.name) }
}

type spawner struct {
	got []any
}

func (s *spawner) Listeners() map[string]Handler {
	return map[string]Handler{
		"spawn event":   func(args ...any) { s.got = append(s.got, args...) },
		"despawn event": func(args ...any) {},
		"update":        func(args ...any) { panic("keys without the suffix are not subscriptions") },
		Suffix:          func(args ...any) { panic("empty event names are not subscriptions") },
	}
}

func TestEmitCallsHandlersInSubscriptionOrder(t *testing.T) {
	m := NewManager()
	var log []string
	for _, n := range []string{"c1", "c2", "c3"} {
		c := &ctx{name: n, log: &log}
		m.Register("tick", c, c.handler())
	}

	m.Emit("tick")
	require.Equal(t, []string{"c1", "c2", "c3"}, log)
	require.Equal(t, 3, m.Count("tick"))
}

func TestEmitPassesArguments(t *testing.T) {
	m := NewManager()
	var got []any
	m.Register("hit", m, func(args ...any) { got = args })

	m.Emit("hit", 1, "two", 3.0)
	require.Equal(t, []any{1, "two", 3.0}, got)

	m.Emit("nobody listens")
}

func TestRegisterRejectsInvalidContexts(t *testing.T) {
	m := NewManager()
	h := func(args ...any) {}
	var nilCtx *ctx

	m.Register("x", nil, h)
	m.Register("x", 42, h)
	m.Register("x", "str", h)
	m.Register("x", nilCtx, h)
	m.Register("x", &ctx{}, nil)
	require.False(t, m.Has("x"))
}

func TestRegisterContextStripsSuffix(t *testing.T) {
	m := NewManager()
	s := &spawner{}
	m.RegisterContext(s)

	require.True(t, m.Has("spawn"))
	require.True(t, m.Has("despawn"))
	require.False(t, m.Has("update"))
	require.False(t, m.Has(""))

	m.Emit("spawn", "ship")
	require.Equal(t, []any{"ship"}, s.got)

	m.UnregisterContext(s)
	require.False(t, m.Has("spawn"))
	require.False(t, m.Has("despawn"))
}

func TestUnregisterVariants(t *testing.T) {
	m := NewManager()
	var log []string
	a := &ctx{name: "a", log: &log}
	b := &ctx{name: "b", log: &log}
	m.Register("one", a, a.handler())
	m.Register("one", b, b.handler())
	m.Register("one", a, a.handler())
	m.Register("two", a, a.handler())

	m.Unregister("one", a)
	m.Emit("one")
	require.Equal(t, []string{"b"}, log)
	require.True(t, m.Has("two"))

	m.UnregisterEvent("two")
	require.False(t, m.Has("two"))

	m.UnregisterAll()
	require.False(t, m.Has("one"))
	m.Unregister("missing", a)
}

func TestHandlersMaySubscribeDuringEmit(t *testing.T) {
	m := NewManager()
	var log []string
	a := &ctx{name: "a", log: &log}
	b := &ctx{name: "b", log: &log}

	m.Register("tick", a, func(args ...any) {
		log = append(log, "a")
		m.Register("tick", b, b.handler())
		m.Unregister("tick", a)
	})

	m.Emit("tick")
	require.Equal(t, []string{"a"}, log, "the emission works on a snapshot")

	m.Emit("tick")
	require.Equal(t, []string{"a", "b"}, log)
}

func TestHandlersUnsubscribedDuringEmitAreSkipped(t *testing.T) {
	m := NewManager()
	var log []string
	a := &ctx{name: "a", log: &log}
	b := &ctx{name: "b", log: &log}
	c := &ctx{name: "c", log: &log}

	m.Register("tick", a, func(args ...any) {
		log = append(log, "a")
		m.UnregisterContext(b)
	})
	m.Register("tick", b, b.handler())
	m.Register("tick", c, c.handler())
	m.Register("other", a, func(args ...any) {
		m.UnregisterAll()
	})
	m.Register("other", c, c.handler())

	m.Emit("tick")
	require.Equal(t, []string{"a", "c"}, log)

	m.Emit("other")
	require.Equal(t, []string{"a", "c"}, log)
	require.False(t, m.Has("tick"))
}
