// Package schema provides a versioned catalog of schema entities and
// defined types, used to walk supertype chains and look up attributes.
package schema

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Kind distinguishes entity definitions from defined types.
type Kind string

const (
	KindEntity Kind = "entity"
	KindType   Kind = "type"
)

// Attribute is a named attribute of an entity.
type Attribute struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type,omitempty"`
	Inverse bool   `yaml:"inverse,omitempty"`
}

// Definition is one entity or defined type.
type Definition struct {
	Name       string      `yaml:"name"`
	Kind       Kind        `yaml:"-"`
	Base       string      `yaml:"base,omitempty"`
	Abstract   bool        `yaml:"abstract,omitempty"`
	Attributes []Attribute `yaml:"attributes,omitempty"`
}

// Index maps definition names to definitions. Every change bumps the
// version so callers caching lookups can tell when to refresh. Index is
// safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	name    string
	version uint64
	defs    map[string]*Definition
}

// NewIndex creates an index for the named schema holding defs.
func NewIndex(name string, defs ...*Definition) *Index {
	ix := &Index{name: name, defs: make(map[string]*Definition)}
	for _, d := range defs {
		ix.Add(d)
	}
	return ix
}

// Name returns the schema identifier, e.g. "IFC4".
func (ix *Index) Name() string {
	return ix.name
}

// Version returns the number of changes applied to the index.
func (ix *Index) Version() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.version
}

// Add inserts or replaces a definition.
func (ix *Index) Add(d *Definition) {
	if d.Kind == "" {
		d.Kind = KindEntity
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.defs[d.Name] = d
	ix.version++
}

// Definition returns the definition named name.
func (ix *Index) Definition(name string) (*Definition, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	d, ok := ix.defs[name]
	return d, ok
}

// Len returns the number of definitions.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.defs)
}

// Names returns every definition name in sorted order.
func (ix *Index) Names() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	names := make([]string, 0, len(ix.defs))
	for name := range ix.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Supertype returns the direct supertype of an entity.
func (ix *Index) Supertype(entity string) (string, bool) {
	d, ok := ix.Definition(entity)
	if !ok || d.Kind != KindEntity || d.Base == "" {
		return "", false
	}
	return d.Base, true
}

// Supertypes returns the supertype chain of entity, nearest first. The walk
// stops at unknown names and at cycles.
func (ix *Index) Supertypes(entity string) []string {
	var chain []string
	seen := map[string]bool{entity: true}
	for cur := entity; ; {
		super, ok := ix.Supertype(cur)
		if !ok || seen[super] {
			return chain
		}
		seen[super] = true
		chain = append(chain, super)
		cur = super
	}
}

// IsSubtypeOf reports whether entity is super or derives from it.
func (ix *Index) IsSubtypeOf(entity, super string) bool {
	if entity == super {
		return true
	}
	for _, s := range ix.Supertypes(entity) {
		if s == super {
			return true
		}
	}
	return false
}

// Attribute finds an attribute declared by entity or one of its supertypes
// and returns it with the declaring entity's name.
func (ix *Index) Attribute(entity, name string) (Attribute, string, bool) {
	for _, e := range append([]string{entity}, ix.Supertypes(entity)...) {
		d, ok := ix.Definition(e)
		if !ok {
			continue
		}
		for _, a := range d.Attributes {
			if a.Name == name {
				return a, e, true
			}
		}
	}
	return Attribute{}, "", false
}

// catalog is the YAML layout of a schema catalog file.
type catalog struct {
	Schema   string        `yaml:"schema"`
	Entities []*Definition `yaml:"entities"`
	Types    []*Definition `yaml:"types"`
}

// Parse builds an index from a YAML catalog.
func Parse(data []byte) (*Index, error) {
	var c catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse schema catalog: %w", err)
	}
	if c.Schema == "" {
		return nil, fmt.Errorf("schema catalog: schema name is required")
	}

	ix := NewIndex(c.Schema)
	for _, d := range c.Entities {
		if d.Name == "" {
			return nil, fmt.Errorf("schema catalog %s: entity without name", c.Schema)
		}
		d.Kind = KindEntity
		ix.Add(d)
	}
	for _, d := range c.Types {
		if d.Name == "" {
			return nil, fmt.Errorf("schema catalog %s: type without name", c.Schema)
		}
		d.Kind = KindType
		ix.Add(d)
	}
	return ix, nil
}

// LoadFile reads a YAML catalog file.
func LoadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema catalog: %w", err)
	}
	return Parse(data)
}
