package event

// Lifecycle events published by the entity runtime.
const (
	EntityAdded      = "entity added"
	EntityRemoved    = "entity removed"
	ComponentAdded   = "component added"
	ComponentRemoved = "component removed"
	ChildAdded       = "child added"
	ChildRemoved     = "child removed"
)

// Suffix marks a listener table key as an event subscription: the key
// "spawn event" subscribes to "spawn".
const Suffix = " event"

// ComponentAddedName is the event emitted when a component of the named kind
// is attached. Anonymous kinds use the generic name.
func ComponentAddedName(kind string) string {
	if kind == "" {
		return ComponentAdded
	}
	return kind + " added"
}

// ComponentRemovedName is the removal counterpart of ComponentAddedName.
func ComponentRemovedName(kind string) string {
	if kind == "" {
		return ComponentRemoved
	}
	return kind + " removed"
}
