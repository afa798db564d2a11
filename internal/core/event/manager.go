package event

import (
	"reflect"
	"sort"
	"strings"
)

// Handler receives the arguments passed to Emit.
type Handler func(args ...any)

// Listener exposes a table of handlers keyed by "<event> event". It is the
// explicit form of convention-based subscription used by RegisterContext.
type Listener interface {
	Listeners() map[string]Handler
}

// subscription is one (context, handler) pair. active drops to false once it
// is unregistered, so an emission already in flight skips it.
type subscription struct {
	ctx     any
	handler Handler
	active  bool
}

// Manager is a synchronous, named publish/subscribe bus. Handlers run on the
// caller's goroutine in subscription order.
type Manager struct {
	events map[string][]*subscription
}

func NewManager() *Manager {
	return &Manager{
		events: make(map[string][]*subscription, 16),
	}
}

// Emit calls every handler subscribed to name with args. It walks a snapshot
// of the subscriptions: handlers subscribed during the emission run from the
// next one, handlers unsubscribed during it are skipped.
func (m *Manager) Emit(name string, args ...any) {
	subs := m.events[name]
	if len(subs) == 0 {
		return
	}
	for _, sub := range append([]*subscription(nil), subs...) {
		if sub.active {
			sub.handler(args...)
		}
	}
}

// Register subscribes handler to name on behalf of ctx. ctx must be a non-nil
// pointer and handler non-nil; otherwise the call is ignored.
func (m *Manager) Register(name string, ctx any, handler Handler) *Manager {
	if handler == nil || !isObject(ctx) {
		return m
	}
	m.events[name] = append(m.events[name], &subscription{ctx: ctx, handler: handler, active: true})
	return m
}

// RegisterContext subscribes every handler of a Listener whose key ends in
// Suffix, under the key with the suffix stripped. Keys are processed in sorted
// order so subscription order is stable.
func (m *Manager) RegisterContext(ctx any) *Manager {
	l, ok := ctx.(Listener)
	if !ok || !isObject(ctx) {
		return m
	}
	table := l.Listeners()
	keys := make([]string, 0, len(table))
	for k := range table {
		if strings.HasSuffix(k, Suffix) && len(k) > len(Suffix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.Register(strings.TrimSuffix(k, Suffix), ctx, table[k])
	}
	return m
}

// Unregister drops every subscription of ctx to name.
func (m *Manager) Unregister(name string, ctx any) *Manager {
	subs, ok := m.events[name]
	if !ok {
		return m
	}
	kept := subs[:0:0]
	for _, sub := range subs {
		if sub.ctx == ctx {
			sub.active = false
			continue
		}
		kept = append(kept, sub)
	}
	if len(kept) == 0 {
		delete(m.events, name)
	} else {
		m.events[name] = kept
	}
	return m
}

// UnregisterContext drops every subscription of ctx.
func (m *Manager) UnregisterContext(ctx any) *Manager {
	if !isObject(ctx) {
		return m
	}
	for name := range m.events {
		m.Unregister(name, ctx)
	}
	return m
}

// UnregisterEvent drops every subscription to name.
func (m *Manager) UnregisterEvent(name string) *Manager {
	deactivate(m.events[name])
	delete(m.events, name)
	return m
}

// UnregisterAll drops every subscription.
func (m *Manager) UnregisterAll() *Manager {
	for _, subs := range m.events {
		deactivate(subs)
	}
	clear(m.events)
	return m
}

func deactivate(subs []*subscription) {
	for _, sub := range subs {
		sub.active = false
	}
}

// Has reports whether name has at least one subscriber.
func (m *Manager) Has(name string) bool {
	return m.Count(name) > 0
}

// Count returns the number of subscriptions to name.
func (m *Manager) Count(name string) int {
	return len(m.events[name])
}

func isObject(ctx any) bool {
	if ctx == nil {
		return false
	}
	v := reflect.ValueOf(ctx)
	return v.Kind() == reflect.Pointer && !v.IsNil()
}
