package system

import (
	"time"

	"github.com/l1jgo/stagecraft/internal/component"
	"github.com/l1jgo/stagecraft/internal/core/ecs"
	"github.com/l1jgo/stagecraft/internal/core/event"
	coresys "github.com/l1jgo/stagecraft/internal/core/system"
)

// EntityExpired is emitted with the entity right before a Lifetime removal.
const EntityExpired = "entity expired"

// LifetimeKind counts lifetimes down and removes expired entities.
var LifetimeKind = coresys.DefineKind("lifetime", func() coresys.System { return &Lifetime{} })

// Lifetime collects expired entities during the pass and removes them after
// it, so the iteration never sees a half-destroyed entity.
type Lifetime struct {
	coresys.Base
	expired []*ecs.Entity
}

func (s *Lifetime) Update(entities *ecs.EntityManager, events *event.Manager, dt time.Duration) {
	secs := dt.Seconds()
	for _, e := range entities.WithComponents(component.Lifetime) {
		lt := e.Get(component.Lifetime)
		left := lt.Float("remaining") - secs
		lt.SetProp("remaining", left)
		if left <= 0 {
			s.expired = append(s.expired, e)
		}
	}
	s.flush(entities, events)
}

func (s *Lifetime) flush(entities *ecs.EntityManager, events *event.Manager) {
	for _, e := range s.expired {
		if !e.Valid() {
			continue
		}
		if events != nil {
			events.Emit(EntityExpired, e)
		}
		entities.Remove(e)
	}
	s.expired = s.expired[:0]
}

// Listeners lets other code expire an entity early through "expire".
func (s *Lifetime) Listeners() map[string]event.Handler {
	return map[string]event.Handler{
		"expire" + event.Suffix: func(args ...any) {
			if len(args) == 0 {
				return
			}
			if e, ok := args[0].(*ecs.Entity); ok && e.Has(component.Lifetime) {
				e.Get(component.Lifetime).SetProp("remaining", 0.0)
			}
		},
	}
}
