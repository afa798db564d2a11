package system

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/l1jgo/stagecraft/internal/config"
	"github.com/l1jgo/stagecraft/internal/core/ecs"
	"github.com/l1jgo/stagecraft/internal/core/event"
)

// probe records every hook into a shared log.
type probe struct {
	Base
	name     string
	log      *[]string
	settings map[string]any
	onUpdate func()
}

func (p *probe) Configure(_ *ecs.EntityManager, _ *event.Manager, cfg config.Director) {
	p.settings = cfg.Settings
	*p.log = append(*p.log, p.name+".configure")
}

func (p *probe) Update(_ *ecs.EntityManager, _ *event.Manager, dt time.Duration) {
	*p.log = append(*p.log, fmt.Sprintf("%s.update(%s)", p.name, dt))
	if p.onUpdate != nil {
		p.onUpdate()
	}
}

func (p *probe) Render(*ecs.EntityManager) { *p.log = append(*p.log, p.name+".render") }
func (p *probe) Destroy()                  { *p.log = append(*p.log, p.name+".destroy") }
func (p *probe) Start()                    { *p.log = append(*p.log, p.name+".start") }

func (p *probe) Listeners() map[string]event.Handler {
	return map[string]event.Handler{
		"ping event": func(...any) { *p.log = append(*p.log, p.name+".ping") },
	}
}

type fixture struct {
	reg    *KindRegistry
	events *event.Manager
	mgr    *Manager
	log    []string
}

func newFixture() *fixture {
	f := &fixture{reg: NewKindRegistry(8), events: event.NewManager()}
	cfg := config.Director{Settings: map[string]any{"gravity": 9.8}}
	f.mgr = NewManager(ecs.NewEntityManager(f.events), f.events, cfg)
	return f
}

func (f *fixture) kind(name string) *Kind {
	return f.reg.Define(name, func() System { return &probe{name: name, log: &f.log} })
}

func TestManagerRunsSystemsInRegistrationOrder(t *testing.T) {
	f := newFixture()
	b, a := f.kind("b"), f.kind("a")
	f.mgr.Add(b)
	f.mgr.Add(a)
	f.log = nil

	f.mgr.Update(16 * time.Millisecond)
	f.mgr.Render()
	require.Equal(t, []string{"b.update(16ms)", "a.update(16ms)", "b.render", "a.render"}, f.log)
}

func TestManagerAddIsIdempotentPerKind(t *testing.T) {
	f := newFixture()
	k := f.kind("solo")

	s1 := f.mgr.Add(k)
	s2 := f.mgr.Add(k)
	require.Same(t, s1, s2)
	require.Len(t, f.mgr.Systems(), 1)
	require.Equal(t, []string{"solo.configure"}, f.log)
	require.Equal(t, 1, f.events.Count("ping"))

	p := s1.(*probe)
	require.Same(t, f.mgr, p.Manager())
	require.Same(t, k, p.Kind())
	require.Equal(t, 9.8, p.settings["gravity"])
}

func TestManagerRejectsInvalidKinds(t *testing.T) {
	f := newFixture()
	require.Nil(t, f.mgr.Add(nil))
	require.Nil(t, f.mgr.Add(&Kind{name: "unregistered"}))
	require.Nil(t, f.mgr.Add(f.reg.Define("empty", func() System { return nil })))
	require.Empty(t, f.mgr.Systems())
}

func TestManagerRemoveUnsubscribesAndDestroys(t *testing.T) {
	f := newFixture()
	k := f.kind("gone")
	s := f.mgr.Add(k).(*probe)

	f.events.Emit("ping")
	f.mgr.Remove(k)
	f.events.Emit("ping")

	require.Equal(t, []string{"gone.configure", "gone.ping", "gone.destroy"}, f.log)
	require.Nil(t, f.mgr.Get(k))
	require.Nil(t, s.Manager())

	f.mgr.Remove(k)
	require.Len(t, f.log, 3)

	again := f.mgr.Add(k)
	require.NotSame(t, s, again, "a removed kind gets a fresh instance")
}

func TestManagerSkipsSystemsRemovedMidUpdate(t *testing.T) {
	f := newFixture()
	first, second := f.kind("first"), f.kind("second")
	p := f.mgr.Add(first).(*probe)
	f.mgr.Add(second)
	p.onUpdate = func() { f.mgr.Remove(second) }
	f.log = nil

	f.mgr.Update(time.Millisecond)
	require.Equal(t, []string{"first.update(1ms)", "second.destroy"}, f.log)
}

func TestManagerStartAndDestroy(t *testing.T) {
	f := newFixture()
	f.mgr.Add(f.kind("a"))
	s := f.mgr.Add(f.kind("b"))
	f.log = nil

	f.mgr.Start()
	f.mgr.Stop()
	f.mgr.RemoveSystem(s)
	f.mgr.Destroy()

	require.Equal(t, []string{"a.start", "b.start", "b.destroy", "a.destroy"}, f.log)
	require.Empty(t, f.mgr.Systems())
	require.False(t, f.events.Has("ping"))
}

func TestKindRegistry(t *testing.T) {
	reg := NewKindRegistry(2)
	factory := func() System { return &Base{} }

	a := reg.Define("a", factory)
	b := reg.Define("b", factory)
	require.Equal(t, 1, a.ID())
	require.Equal(t, 2, b.ID())

	got, ok := reg.Lookup("b")
	require.True(t, ok)
	require.Same(t, b, got)

	require.Panics(t, func() { reg.Define("c", factory) })
	require.Panics(t, func() { NewKindRegistry(4).Define("nil", nil) })

	dup := NewKindRegistry(4)
	dup.Define("x", factory)
	require.Panics(t, func() { dup.Define("x", factory) })
}

func TestRemovedSystemMissesInFlightEvent(t *testing.T) {
	f := newFixture()
	first, second := f.kind("first"), f.kind("second")
	f.mgr.Add(first)
	f.events.Register("ping", f.mgr, func(...any) { f.mgr.Remove(second) })
	f.mgr.Add(second)
	f.log = nil

	f.events.Emit("ping")
	require.Equal(t, []string{"first.ping", "second.destroy"}, f.log)
}
