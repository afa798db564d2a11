package system

import (
	"go.uber.org/zap"

	"github.com/l1jgo/stagecraft/internal/component"
	"github.com/l1jgo/stagecraft/internal/core/ecs"
	coresys "github.com/l1jgo/stagecraft/internal/core/system"
)

// Trace is a render-pass system that logs positions that changed since the
// previous frame and clears their dirty flag.
type Trace struct {
	coresys.Base
	log *zap.Logger
}

// TraceFactory builds Trace systems logging to log.
func TraceFactory(log *zap.Logger) coresys.Factory {
	if log == nil {
		log = zap.NewNop()
	}
	return func() coresys.System { return &Trace{log: log} }
}

func (s *Trace) Render(entities *ecs.EntityManager) {
	for _, e := range entities.WithComponents(component.Position) {
		pos := e.Get(component.Position)
		if !pos.Dirty() {
			continue
		}
		s.log.Debug("moved",
			zap.Uint64("entity", uint64(e.ID())),
			zap.String("tag", e.Tag()),
			zap.Float64("x", pos.Float("x")),
			zap.Float64("y", pos.Float("y")),
		)
		pos.ClearDirty()
	}
}
