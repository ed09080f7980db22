package concept

import (
	"fmt"

	"github.com/c360studio/mvdkit/template"
)

// SchemaLookup answers supertype questions about schema entities.
type SchemaLookup interface {
	// Supertype returns the direct supertype of entity.
	Supertype(entity string) (string, bool)
}

// ViewResolver lists a view followed by its base views, nearest first.
type ViewResolver interface {
	ViewChain(v *View) []*View
}

// State classifies an inherited usage for the resolving root.
type State int

const (
	StateInherited State = iota
	StateOverridden
	StateSuppressed
)

func (s State) String() string {
	switch s {
	case StateInherited:
		return "inherited"
	case StateOverridden:
		return "overridden"
	case StateSuppressed:
		return "suppressed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Inheritance is one template applying to a root, directly or inherited.
type Inheritance struct {
	Template *template.Template

	// Entity and View are where the template was first introduced.
	Entity string
	View   *View

	// State reflects the local usage flags.
	State State

	// Local reports whether the resolving root holds its own usage.
	Local bool
}

// Resolve lists every template applying to root within view. Usages are
// collected over the view chain of view and the supertype chain of
// root.Entity; the list runs from the most derived declaration to the most
// general, each template once, recording where it was first introduced.
func Resolve(root *Root, view *View, views ViewResolver, schema SchemaLookup) []Inheritance {
	var chain []*View
	if views != nil {
		chain = views.ViewChain(view)
	}
	if len(chain) == 0 || chain[0] != view {
		chain = append([]*View{view}, chain...)
	}
	entities := entityChain(root.Entity, schema)

	var list []Inheritance
	index := make(map[*template.Template]int)
	for ei := len(entities) - 1; ei >= 0; ei-- {
		for vi := len(chain) - 1; vi >= 0; vi-- {
			for _, r := range chain[vi].RootsFor(entities[ei]) {
				for _, u := range r.Concepts {
					if u.Definition == nil {
						continue
					}
					list = moveToFront(list, index, u.Definition, entities[ei], chain[vi])
				}
			}
		}
	}

	for i := range list {
		local := root.Usage(list[i].Template)
		if local == nil {
			continue
		}
		list[i].Local = true
		switch {
		case local.Suppress:
			list[i].State = StateSuppressed
		case local.Override:
			list[i].State = StateOverridden
		}
	}
	return list
}

// moveToFront puts t first, keeping the introduction recorded the first time
// t was seen.
func moveToFront(list []Inheritance, index map[*template.Template]int, t *template.Template, entity string, view *View) []Inheritance {
	entry := Inheritance{Template: t, Entity: entity, View: view}
	if i, ok := index[t]; ok {
		entry = list[i]
		list = append(list[:i], list[i+1:]...)
	}
	list = append([]Inheritance{entry}, list...)
	for i, e := range list {
		index[e.Template] = i
	}
	return list
}

func entityChain(entity string, schema SchemaLookup) []string {
	chain := []string{entity}
	seen := map[string]bool{entity: true}
	if schema == nil {
		return chain
	}
	for cur := entity; ; {
		super, ok := schema.Supertype(cur)
		if !ok || super == "" || seen[super] {
			return chain
		}
		seen[super] = true
		chain = append(chain, super)
		cur = super
	}
}
