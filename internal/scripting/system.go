package scripting

import (
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/l1jgo/stagecraft/internal/config"
	"github.com/l1jgo/stagecraft/internal/core/ecs"
	"github.com/l1jgo/stagecraft/internal/core/event"
	coresys "github.com/l1jgo/stagecraft/internal/core/system"
)

// ScriptSystem runs the callbacks of one script-declared system. dt reaches
// Lua in seconds.
type ScriptSystem struct {
	coresys.Base
	engine   *Engine
	def      *scriptDef
	entities *ecs.EntityManager
	events   *event.Manager
}

// Name returns the script-side system name.
func (s *ScriptSystem) Name() string { return s.def.name }

func (s *ScriptSystem) Configure(entities *ecs.EntityManager, events *event.Manager, cfg config.Director) {
	s.entities, s.events = entities, events
	settings := toLua(s.engine.vm, cfg.Settings)
	s.engine.call(s.def, s.def.configure, entities, events, settings)
}

func (s *ScriptSystem) Update(entities *ecs.EntityManager, events *event.Manager, dt time.Duration) {
	s.engine.call(s.def, s.def.update, entities, events, lua.LNumber(dt.Seconds()))
}

func (s *ScriptSystem) Render(entities *ecs.EntityManager) {
	s.engine.call(s.def, s.def.render, entities, s.events)
}

func (s *ScriptSystem) Destroy() {
	s.engine.call(s.def, s.def.destroy, s.entities, s.events)
	s.entities, s.events = nil, nil
}
