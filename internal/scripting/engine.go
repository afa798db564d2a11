package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/stagecraft/internal/core/ecs"
	"github.com/l1jgo/stagecraft/internal/core/event"
	coresys "github.com/l1jgo/stagecraft/internal/core/system"
)

// ErrNoUpdate is returned when a script declares a system without an update
// function.
var ErrNoUpdate = errors.New("scripting: system has no update function")

// KindPrefix is prepended to script system names when they become kinds.
const KindPrefix = "lua:"

// Engine wraps a single gopher-lua VM. Scripts declare systems with
// `system{ name = ..., update = function(dt) ... end }`.
// Single-goroutine access only (the director's frame loop).
type Engine struct {
	vm    *lua.LState
	log   *zap.Logger
	kinds *ecs.KindRegistry

	defs   map[string]*scriptDef
	order  []string
	errDef error

	// bound for the duration of a system callback
	entities *ecs.EntityManager
	events   *event.Manager
}

type scriptDef struct {
	name      string
	file      string
	configure *lua.LFunction
	update    *lua.LFunction
	render    *lua.LFunction
	destroy   *lua.LFunction
}

// NewEngine creates a Lua engine and loads every .lua file in dir. A missing
// directory yields an engine with no systems.
func NewEngine(dir string, kinds *ecs.KindRegistry, log *zap.Logger) (*Engine, error) {
	e := newEngine(kinds, log)
	if err := e.loadDir(dir); err != nil {
		e.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

func newEngine(kinds *ecs.KindRegistry, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if kinds == nil {
		kinds = ecs.Kinds
	}
	e := &Engine{
		vm:    lua.NewState(),
		log:   log,
		kinds: kinds,
		defs:  make(map[string]*scriptDef),
	}
	e.vm.SetGlobal("API_VERSION", lua.LNumber(1))
	e.registerAPI()
	return e
}

func (e *Engine) Close() {
	e.vm.Close()
}

// loadDir loads all .lua files in a directory, in name order.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			e.log.Debug("script dir missing", zap.String("dir", dir))
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.run(path, func() error { return e.vm.DoFile(path) }); err != nil {
			return err
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString runs a chunk of Lua source labelled name.
func (e *Engine) LoadString(name, src string) error {
	return e.run(name, func() error { return e.vm.DoString(src) })
}

func (e *Engine) run(label string, do func() error) error {
	e.errDef = nil
	if err := do(); err != nil {
		return fmt.Errorf("load %s: %w", label, err)
	}
	if e.errDef != nil {
		return fmt.Errorf("load %s: %w", label, e.errDef)
	}
	return nil
}

// Systems returns the declared system names in declaration order.
func (e *Engine) Systems() []string { return append([]string(nil), e.order...) }

// Kinds defines one system kind per declared script system on reg.
func (e *Engine) Kinds(reg *coresys.KindRegistry) []*coresys.Kind {
	out := make([]*coresys.Kind, 0, len(e.order))
	for _, name := range e.order {
		def := e.defs[name]
		out = append(out, reg.Define(KindPrefix+name, func() coresys.System {
			return &ScriptSystem{engine: e, def: def}
		}))
	}
	return out
}

// call invokes fn with the managers bound. Script errors are logged, not
// propagated, so a broken script cannot take the frame loop down.
func (e *Engine) call(def *scriptDef, fn *lua.LFunction, entities *ecs.EntityManager, events *event.Manager, args ...lua.LValue) {
	if fn == nil {
		return
	}
	prevEntities, prevEvents := e.entities, e.events
	e.entities, e.events = entities, events
	defer func() { e.entities, e.events = prevEntities, prevEvents }()

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua system error",
			zap.String("system", def.name),
			zap.String("file", def.file),
			zap.Error(err),
		)
	}
}

func (e *Engine) registerAPI() {
	e.vm.SetGlobal("system", e.vm.NewFunction(e.luaSystem))
	e.vm.SetGlobal("each", e.vm.NewFunction(e.luaEach))
	e.vm.SetGlobal("get", e.vm.NewFunction(e.luaGet))
	e.vm.SetGlobal("set", e.vm.NewFunction(e.luaSet))
	e.vm.SetGlobal("has", e.vm.NewFunction(e.luaHas))
	e.vm.SetGlobal("add", e.vm.NewFunction(e.luaAdd))
	e.vm.SetGlobal("spawn", e.vm.NewFunction(e.luaSpawn))
	e.vm.SetGlobal("destroy", e.vm.NewFunction(e.luaDestroy))
	e.vm.SetGlobal("emit", e.vm.NewFunction(e.luaEmit))
}

// system{ name = "...", update = fn, render = fn, configure = fn, destroy = fn }
func (e *Engine) luaSystem(L *lua.LState) int {
	t := L.CheckTable(1)
	name := lua.LVAsString(t.RawGetString("name"))
	if name == "" {
		L.ArgError(1, "system needs a name")
		return 0
	}
	def := &scriptDef{name: name, file: L.Where(1)}
	def.configure, _ = t.RawGetString("configure").(*lua.LFunction)
	def.update, _ = t.RawGetString("update").(*lua.LFunction)
	def.render, _ = t.RawGetString("render").(*lua.LFunction)
	def.destroy, _ = t.RawGetString("destroy").(*lua.LFunction)
	if def.update == nil && def.render == nil {
		e.errDef = fmt.Errorf("%w: %s", ErrNoUpdate, name)
		return 0
	}
	if _, dup := e.defs[name]; dup {
		e.errDef = fmt.Errorf("system %q declared twice", name)
		return 0
	}
	e.defs[name] = def
	e.order = append(e.order, name)
	return 0
}

func (e *Engine) entity(L *lua.LState, n int) *ecs.Entity {
	if e.entities == nil {
		return nil
	}
	return e.entities.Get(ecs.EntityID(L.CheckNumber(n)))
}

func (e *Engine) kind(L *lua.LState, n int) *ecs.Kind {
	name := L.CheckString(n)
	k, ok := e.kinds.Lookup(name)
	if !ok {
		L.ArgError(n, fmt.Sprintf("unknown component kind %q", name))
		return nil
	}
	return k
}

// each("position", "velocity", function(id) ... end)
func (e *Engine) luaEach(L *lua.LState) int {
	top := L.GetTop()
	fn := L.CheckFunction(top)
	kinds := make([]*ecs.Kind, 0, top-1)
	for i := 1; i < top; i++ {
		kinds = append(kinds, e.kind(L, i))
	}
	if e.entities == nil {
		return 0
	}
	for _, ent := range e.entities.WithComponents(kinds...) {
		if !ent.Valid() {
			continue
		}
		L.Push(fn)
		L.Push(lua.LNumber(ent.ID()))
		L.Call(1, 0)
	}
	return 0
}

// get(id, kind, prop)
func (e *Engine) luaGet(L *lua.LState) int {
	ent := e.entity(L, 1)
	k := e.kind(L, 2)
	prop := L.CheckString(3)
	if ent == nil || ent.Get(k) == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(L, ent.Get(k).Prop(prop)))
	return 1
}

// set(id, kind, prop, value)
func (e *Engine) luaSet(L *lua.LState) int {
	ent := e.entity(L, 1)
	k := e.kind(L, 2)
	prop := L.CheckString(3)
	if ent == nil || ent.Get(k) == nil {
		return 0
	}
	ent.Get(k).SetProp(prop, fromLua(L.Get(4)))
	return 0
}

// has(id, kind, ...)
func (e *Engine) luaHas(L *lua.LState) int {
	ent := e.entity(L, 1)
	kinds := make([]*ecs.Kind, 0, L.GetTop()-1)
	for i := 2; i <= L.GetTop(); i++ {
		kinds = append(kinds, e.kind(L, i))
	}
	L.Push(lua.LBool(ent != nil && ent.Has(kinds...)))
	return 1
}

// add(id, kind, {prop = value})
func (e *Engine) luaAdd(L *lua.LState) int {
	ent := e.entity(L, 1)
	k := e.kind(L, 2)
	if ent == nil {
		return 0
	}
	var opts ecs.Options
	if t, ok := L.Get(3).(*lua.LTable); ok {
		opts = tableToOptions(t)
	}
	ent.Add(k, opts)
	return 0
}

// spawn(tag) -> id
func (e *Engine) luaSpawn(L *lua.LState) int {
	if e.entities == nil {
		L.Push(lua.LNil)
		return 1
	}
	ent := e.entities.Add(L.OptString(1, ""))
	L.Push(lua.LNumber(ent.ID()))
	return 1
}

// destroy(id)
func (e *Engine) luaDestroy(L *lua.LState) int {
	if ent := e.entity(L, 1); ent != nil {
		ent.Destroy()
	}
	return 0
}

// emit(name, ...)
func (e *Engine) luaEmit(L *lua.LState) int {
	name := L.CheckString(1)
	if e.events == nil {
		return 0
	}
	args := make([]any, 0, L.GetTop()-1)
	for i := 2; i <= L.GetTop(); i++ {
		args = append(args, fromLua(L.Get(i)))
	}
	e.events.Emit(name, args...)
	return 0
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch t := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(t)
	case string:
		return lua.LString(t)
	case ecs.Options:
		return toLua(L, map[string]any(t))
	case []any:
		tbl := L.CreateTable(len(t), 0)
		for _, e := range t {
			tbl.Append(toLua(L, e))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			tbl.RawSetString(k, toLua(L, t[k]))
		}
		return tbl
	default:
		if n, ok := ecs.Number(t); ok {
			return lua.LNumber(n)
		}
		return lua.LString(fmt.Sprint(t))
	}
}

func fromLua(v lua.LValue) any {
	switch t := v.(type) {
	case lua.LNumber:
		return float64(t)
	case lua.LString:
		return string(t)
	case lua.LBool:
		return bool(t)
	case *lua.LTable:
		return map[string]any(tableToOptions(t))
	default:
		return nil
	}
}

func tableToOptions(t *lua.LTable) ecs.Options {
	opts := make(ecs.Options)
	t.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			opts[string(ks)] = fromLua(v)
		}
	})
	return opts
}
