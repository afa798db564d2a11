package system

import (
	"time"

	"github.com/l1jgo/stagecraft/internal/component"
	"github.com/l1jgo/stagecraft/internal/config"
	"github.com/l1jgo/stagecraft/internal/core/ecs"
	"github.com/l1jgo/stagecraft/internal/core/event"
	coresys "github.com/l1jgo/stagecraft/internal/core/system"
)

// MovementKind integrates velocity into position.
var MovementKind = coresys.DefineKind("movement", func() coresys.System { return &Movement{} })

// Movement moves every entity carrying Position and Velocity by
// velocity * dt each tick.
type Movement struct {
	coresys.Base
	query ecs.Query
}

func (s *Movement) Configure(_ *ecs.EntityManager, _ *event.Manager, _ config.Director) {
	s.query = ecs.NewQuery(component.Position, component.Velocity)
}

func (s *Movement) Update(entities *ecs.EntityManager, _ *event.Manager, dt time.Duration) {
	secs := dt.Seconds()
	s.query.Each(entities, func(_ *ecs.Entity, cs []*ecs.Component) {
		pos, vel := cs[0], cs[1]
		dx, dy := vel.Float("dx"), vel.Float("dy")
		if dx == 0 && dy == 0 {
			return
		}
		pos.Set(ecs.Options{
			"x": pos.Float("x") + dx*secs,
			"y": pos.Float("y") + dy*secs,
		})
	})
}
