package ecs

// Query is a composition filter whose mask is computed once.
type Query struct {
	kinds []*Kind
	mask  Mask
}

// NewQuery builds a query over the given kinds.
func NewQuery(kinds ...*Kind) Query {
	return Query{
		kinds: append([]*Kind(nil), kinds...),
		mask:  MaskOf(kinds...),
	}
}

// Matches reports whether e carries every kind of the query.
func (q Query) Matches(e *Entity) bool {
	return e.mask.HasBits(q.mask)
}

// Filter returns the matching entities of m in insertion order.
func (q Query) Filter(m *EntityManager) []*Entity {
	var out []*Entity
	for _, e := range m.entities {
		if q.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// Each calls fn for every matching entity with its components in query order.
// It iterates a snapshot, so fn may add or remove entities. Every call gets
// its own component slice, which fn may keep.
func (q Query) Each(m *EntityManager, fn func(*Entity, []*Component)) {
	for _, e := range q.Filter(m) {
		if !e.Valid() || !q.Matches(e) {
			continue
		}
		cs := make([]*Component, len(q.kinds))
		for i, k := range q.kinds {
			cs[i] = e.Get(k)
		}
		fn(e, cs)
	}
}

// Each2 iterates entities carrying both a and b.
func Each2(m *EntityManager, a, b *Kind, fn func(*Entity, *Component, *Component)) {
	NewQuery(a, b).Each(m, func(e *Entity, cs []*Component) {
		fn(e, cs[0], cs[1])
	})
}
