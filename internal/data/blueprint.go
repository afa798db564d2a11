package data

import (
	"fmt"
	"os"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/l1jgo/stagecraft/internal/core/ecs"
)

// Blueprint describes an entity tree: a tag, component overrides keyed by
// kind name, and child blueprints attached under the root.
type Blueprint struct {
	Name       string                    `yaml:"name"`
	Tag        string                    `yaml:"tag"`
	Components map[string]map[string]any `yaml:"components"`
	Children   []Blueprint               `yaml:"children"`
}

type blueprintFile struct {
	Blueprints []Blueprint `yaml:"blueprints"`
}

// BlueprintTable holds blueprints by name, resolved against a kind registry.
type BlueprintTable struct {
	kinds  *ecs.KindRegistry
	byName map[string]*Blueprint
	names  []string
}

// LoadBlueprints loads blueprints from a YAML file.
func LoadBlueprints(path string, kinds *ecs.KindRegistry) (*BlueprintTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blueprints: %w", err)
	}
	return ParseBlueprints(data, kinds)
}

// ParseBlueprints decodes YAML blueprints and checks every kind name.
func ParseBlueprints(data []byte, kinds *ecs.KindRegistry) (*BlueprintTable, error) {
	var f blueprintFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse blueprints: %w", err)
	}
	t := &BlueprintTable{
		kinds:  kinds,
		byName: make(map[string]*Blueprint, len(f.Blueprints)),
	}
	for i := range f.Blueprints {
		bp := &f.Blueprints[i]
		if bp.Name == "" {
			return nil, fmt.Errorf("blueprint #%d has no name", i)
		}
		if _, dup := t.byName[bp.Name]; dup {
			return nil, fmt.Errorf("blueprint %q defined twice", bp.Name)
		}
		if err := t.check(bp); err != nil {
			return nil, fmt.Errorf("blueprint %q: %w", bp.Name, err)
		}
		t.byName[bp.Name] = bp
		t.names = append(t.names, bp.Name)
	}
	return t, nil
}

func (t *BlueprintTable) check(bp *Blueprint) error {
	for name := range bp.Components {
		if _, ok := t.kinds.Lookup(name); !ok {
			return fmt.Errorf("unknown component kind %q", name)
		}
	}
	for i := range bp.Children {
		if err := t.check(&bp.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

// Get returns a blueprint by name, or nil.
func (t *BlueprintTable) Get(name string) *Blueprint { return t.byName[name] }

// Count returns the number of top-level blueprints.
func (t *BlueprintTable) Count() int { return len(t.byName) }

// Names returns blueprint names in file order.
func (t *BlueprintTable) Names() []string { return append([]string(nil), t.names...) }

// Spawn builds the named blueprint in entities. override is merged into the
// root's components, keyed by kind name.
func (t *BlueprintTable) Spawn(entities *ecs.EntityManager, name string, override map[string]ecs.Options) (*ecs.Entity, error) {
	bp := t.byName[name]
	if bp == nil {
		return nil, fmt.Errorf("unknown blueprint %q", name)
	}
	for kind := range override {
		if _, ok := t.kinds.Lookup(kind); !ok {
			return nil, fmt.Errorf("override for unknown component kind %q", kind)
		}
	}
	return t.spawn(entities, bp, override), nil
}

// RootOverride spreads flat properties over the root components of the named
// blueprint: each property goes to every root kind whose schema or blueprint
// entry names it. Properties no root kind accepts are returned as unmatched.
func (t *BlueprintTable) RootOverride(name string, props ecs.Options) (map[string]ecs.Options, []string) {
	bp := t.byName[name]
	if bp == nil || len(props) == 0 {
		return nil, nil
	}
	kinds := make([]string, 0, len(bp.Components))
	for n := range bp.Components {
		kinds = append(kinds, n)
	}
	sort.Strings(kinds)

	override := make(map[string]ecs.Options, len(kinds))
	var unmatched []string
	for _, prop := range sortedKeys(props) {
		matched := false
		for _, n := range kinds {
			k, _ := t.kinds.Lookup(n)
			_, inBlueprint := bp.Components[n][prop]
			if !inBlueprint && !slices.Contains(k.Keys(), prop) {
				continue
			}
			if override[n] == nil {
				override[n] = make(ecs.Options, len(props))
			}
			override[n][prop] = props[prop]
			matched = true
		}
		if !matched {
			unmatched = append(unmatched, prop)
		}
	}
	return override, unmatched
}

func sortedKeys(o ecs.Options) []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (t *BlueprintTable) spawn(entities *ecs.EntityManager, bp *Blueprint, override map[string]ecs.Options) *ecs.Entity {
	e := entities.Add(bp.Tag)

	names := make([]string, 0, len(bp.Components)+len(override))
	for n := range bp.Components {
		names = append(names, n)
	}
	for n := range override {
		if _, ok := bp.Components[n]; !ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	for _, n := range names {
		k, _ := t.kinds.Lookup(n)
		opts := make(ecs.Options, len(bp.Components[n])+len(override[n]))
		for p, v := range bp.Components[n] {
			opts[p] = v
		}
		for p, v := range override[n] {
			opts[p] = v
		}
		e.Add(k, opts)
	}
	for i := range bp.Children {
		e.AddChild(t.spawn(entities, &bp.Children[i], nil))
	}
	return e
}
