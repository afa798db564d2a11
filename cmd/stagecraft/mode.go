package main

import (
	"go.uber.org/zap"

	"github.com/l1jgo/stagecraft/internal/core/event"
	"github.com/l1jgo/stagecraft/internal/data"
	"github.com/l1jgo/stagecraft/internal/director"
)

// sandboxMode spawns the startup blueprints through the factory's events and
// stops the director once nothing is left alive.
type sandboxMode struct {
	director.BaseMode
	spawn   []string
	enabled bool
	done    func()
}

func (m *sandboxMode) Start() {
	if !m.enabled {
		return
	}
	ev := m.Director().Events()
	for _, name := range m.spawn {
		ev.Emit(data.SpawnEvent, name)
	}
}

func (m *sandboxMode) Listeners() map[string]event.Handler {
	return map[string]event.Handler{
		event.EntityRemoved + event.Suffix: func(args ...any) {
			d := m.Director()
			if d != nil && d.Entities().Len() <= 1 {
				d.Log().Info("last entity removed; stopping", zap.Int("entities", d.Entities().Len()))
				d.Stop()
				if m.done != nil {
					m.done()
				}
			}
		},
	}
}
