package template

import (
	"fmt"

	"github.com/google/uuid"
)

// Template is a reusable rule tree applicable to one schema entity type.
// Sub-templates in Templates inherit every path their parent declares.
type Template struct {
	Identity

	// Type is the name of the applicable entity.
	Type string

	// Schema is the applicable schema identifier, e.g. "IFC4".
	Schema string

	// Rules are the root nodes. Only attribute rules appear at the root.
	Rules []*Rule

	// Templates are the ordered sub-templates.
	Templates []*Template

	parent *Template
}

// New creates a template with a fresh UUID.
func New(name, entity string) *Template {
	return &Template{Identity: NewIdentity(name), Type: entity}
}

// Parent returns the base template, or nil for top-level templates.
func (t *Template) Parent() *Template {
	return t.parent
}

// AddRule appends a root rule.
func (t *Template) AddRule(r *Rule) {
	t.InsertRule(len(t.Rules), r)
}

// InsertRule inserts a root rule at index i, clamped to the root range.
func (t *Template) InsertRule(i int, r *Rule) {
	if r.Kind != KindAttribute {
		panic(&VariantError{Op: "insert root", Want: KindAttribute, Got: r.Kind})
	}
	r.mustBeDetached()
	t.Rules = insertAt(t.Rules, i, r)
	r.owner = t
}

// RemoveRule unlinks a root rule without deleting its subtree.
func (t *Template) RemoveRule(r *Rule) bool {
	i := indexOf(t.Rules, r)
	if i < 0 {
		return false
	}
	t.Rules = append(t.Rules[:i], t.Rules[i+1:]...)
	r.owner = nil
	return true
}

// Rule returns the first root rule with the given name.
func (t *Template) Rule(name string) *Rule {
	return findRule(t.Rules, name)
}

// AddTemplate appends a sub-template.
func (t *Template) AddTemplate(sub *Template) {
	if sub.parent != nil {
		panic(fmt.Sprintf("template: %q already has base %q", sub.Name, sub.parent.Name))
	}
	for p := t; p != nil; p = p.parent {
		if p == sub {
			panic(fmt.Sprintf("template: %q cannot be its own sub-template", sub.Name))
		}
	}
	t.Templates = append(t.Templates, sub)
	sub.parent = t
}

// RemoveTemplate unlinks a sub-template.
func (t *Template) RemoveTemplate(sub *Template) bool {
	for i, s := range t.Templates {
		if s == sub {
			t.Templates = append(t.Templates[:i], t.Templates[i+1:]...)
			sub.parent = nil
			return true
		}
	}
	return false
}

// Descendants returns every sub-template below t, depth-first pre-order.
func (t *Template) Descendants() []*Template {
	var out []*Template
	var walk func(*Template)
	walk = func(n *Template) {
		for _, sub := range n.Templates {
			out = append(out, sub)
			walk(sub)
		}
	}
	walk(t)
	return out
}

// Find returns the template with the given id in t's subtree, t included.
func (t *Template) Find(id uuid.UUID) *Template {
	if t.ID == id {
		return t
	}
	for _, sub := range t.Templates {
		if found := sub.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Delete tears down the template: sub-templates are deleted, rules are
// deleted and the template is removed from its parent. References to t held
// by other templates are not visible from here; project.DeleteTemplate does
// that pass.
func (t *Template) Delete() {
	for len(t.Templates) > 0 {
		t.Templates[0].Delete()
	}
	for len(t.Rules) > 0 {
		t.Rules[0].Delete()
	}
	if t.parent != nil {
		t.parent.RemoveTemplate(t)
	}
}
