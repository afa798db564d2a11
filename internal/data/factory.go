package data

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/l1jgo/stagecraft/internal/core/ecs"
	"github.com/l1jgo/stagecraft/internal/core/event"
)

// Events understood and published by Factory.
const (
	SpawnEvent   = "spawn"   // args: blueprint name, optional override (see Factory.override)
	DespawnEvent = "despawn" // args: *ecs.Entity
	Spawned      = "spawned" // args: *ecs.Entity, blueprint name
)

// Factory spawns and despawns blueprints in response to events, so gameplay
// code only needs the event manager.
type Factory struct {
	table    *BlueprintTable
	entities *ecs.EntityManager
	log      *zap.Logger
}

func NewFactory(table *BlueprintTable, entities *ecs.EntityManager, log *zap.Logger) *Factory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Factory{table: table, entities: entities, log: log}
}

func (f *Factory) Listeners() map[string]event.Handler {
	return map[string]event.Handler{
		SpawnEvent + event.Suffix:   f.onSpawn,
		DespawnEvent + event.Suffix: f.onDespawn,
	}
}

func (f *Factory) onSpawn(args ...any) {
	if len(args) == 0 {
		return
	}
	name, ok := args[0].(string)
	if !ok {
		return
	}
	override := f.override(name, args[1:])
	e, err := f.table.Spawn(f.entities, name, override)
	if err != nil {
		f.log.Warn("spawn failed", zap.String("blueprint", name), zap.Error(err))
		return
	}
	f.log.Debug("spawned", zap.String("blueprint", name), zap.Uint64("entity", uint64(e.ID())))
	if ev := f.entities.Events(); ev != nil {
		ev.Emit(Spawned, e, name)
	}
}

// override accepts either overrides keyed by kind name or flat root
// properties (ecs.Options, or a plain map as emitted from Lua) spread over the
// root's kinds.
func (f *Factory) override(name string, rest []any) map[string]ecs.Options {
	if len(rest) == 0 || rest[0] == nil {
		return nil
	}
	var props ecs.Options
	switch o := rest[0].(type) {
	case map[string]ecs.Options:
		return o
	case ecs.Options:
		props = o
	case map[string]any:
		props = ecs.Options(o)
	default:
		f.log.Warn("spawn override ignored",
			zap.String("blueprint", name),
			zap.String("type", fmt.Sprintf("%T", o)),
		)
		return nil
	}
	override, unmatched := f.table.RootOverride(name, props)
	if len(unmatched) > 0 {
		f.log.Warn("spawn override properties match no root component",
			zap.String("blueprint", name),
			zap.Strings("props", unmatched),
		)
	}
	return override
}

func (f *Factory) onDespawn(args ...any) {
	if len(args) == 0 {
		return
	}
	if e, ok := args[0].(*ecs.Entity); ok && e.Valid() {
		e.Destroy()
	}
}
