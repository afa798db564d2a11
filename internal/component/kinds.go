package component

import "github.com/l1jgo/stagecraft/internal/core/ecs"

// Built-in kinds. Pure data; behaviour lives in internal/system.
var (
	// Position is a point in world units. Writes that move it mark it dirty.
	Position = ecs.DefineKind("position", ecs.Options{
		"x": 0.0,
		"y": 0.0,
	}, ecs.WithDirtyTracking())

	// Velocity is measured in world units per second.
	Velocity = ecs.DefineKind("velocity", ecs.Options{
		"dx": 0.0,
		"dy": 0.0,
	})

	// Lifetime counts down in seconds; the entity is removed once it runs out.
	Lifetime = ecs.DefineKind("lifetime", ecs.Options{
		"remaining": 0.0,
	})
)
