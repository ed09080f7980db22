// Package project holds a complete model view definition document: the
// concept templates and the model views using them.
package project

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/c360studio/mvdkit/concept"
	"github.com/c360studio/mvdkit/template"
)

// ErrNotFound is returned when a template or view is not part of the
// project.
var ErrNotFound = errors.New("not found in project")

// Project is the aggregate of templates and views.
type Project struct {
	template.Identity

	// Templates are the top-level templates. Sub-templates hang below them.
	Templates []*template.Template

	Views []*concept.View
}

// New creates an empty project with a fresh UUID.
func New(name string) *Project {
	return &Project{Identity: template.NewIdentity(name)}
}

// AddTemplate appends a top-level template.
func (p *Project) AddTemplate(t *template.Template) {
	p.Templates = append(p.Templates, t)
}

// AddView appends a view.
func (p *Project) AddView(v *concept.View) {
	p.Views = append(p.Views, v)
}

// Template finds a template anywhere in the template hierarchy.
func (p *Project) Template(id uuid.UUID) *template.Template {
	for _, t := range p.Templates {
		if found := t.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// TemplateByName returns the first template with the given name, depth
// first.
func (p *Project) TemplateByName(name string) *template.Template {
	for _, t := range p.AllTemplates() {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// AllTemplates returns every template, each top-level template followed by
// its descendants.
func (p *Project) AllTemplates() []*template.Template {
	var out []*template.Template
	for _, t := range p.Templates {
		out = append(out, t)
		out = append(out, t.Descendants()...)
	}
	return out
}

// View returns the view with the given id.
func (p *Project) View(id uuid.UUID) *concept.View {
	for _, v := range p.Views {
		if v.ID == id {
			return v
		}
	}
	return nil
}

// ViewByName returns the first view with the given name.
func (p *Project) ViewByName(name string) *concept.View {
	for _, v := range p.Views {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Exchange looks up an exchange requirement across all views.
func (p *Project) Exchange(id uuid.UUID) *concept.Exchange {
	for _, v := range p.Views {
		for _, ex := range v.Exchanges {
			if ex.ID == id {
				return ex
			}
		}
	}
	return nil
}

// ViewChain returns v followed by its base views, nearest first. A base
// view id that does not parse, is unknown, or closes a cycle ends the chain.
func (p *Project) ViewChain(v *concept.View) []*concept.View {
	chain := []*concept.View{v}
	seen := map[*concept.View]bool{v: true}
	for cur := v; cur.BaseView != ""; {
		id, err := uuid.Parse(cur.BaseView)
		if err != nil {
			break
		}
		base := p.View(id)
		if base == nil || seen[base] {
			break
		}
		seen[base] = true
		chain = append(chain, base)
		cur = base
	}
	return chain
}

// Root returns the first concept root bound to entity within view.
func (p *Project) Root(view *concept.View, entity string) *concept.Root {
	if view == nil {
		return nil
	}
	return view.Root(entity)
}

// DeleteTemplate removes t with its sub-templates and unlinks every
// reference to them held by other templates and by usages. It returns the
// number of links removed.
func (p *Project) DeleteTemplate(t *template.Template) (int, error) {
	if p.Template(t.ID) != t {
		return 0, fmt.Errorf("delete template %q: %w", t.Name, ErrNotFound)
	}

	doomed := map[*template.Template]bool{t: true}
	for _, sub := range t.Descendants() {
		doomed[sub] = true
	}

	unlinked := 0
	for _, other := range p.AllTemplates() {
		if doomed[other] {
			continue
		}
		unlinked += unlinkRules(other.Rules, doomed)
	}

	for _, v := range p.Views {
		for _, r := range v.Roots {
			if doomed[r.ApplicableTemplate] {
				r.ApplicableTemplate = nil
				unlinked++
			}
			r.Concepts, unlinked = pruneUsages(r.Concepts, doomed, unlinked)
			for _, item := range r.ApplicableItems {
				item.Concepts, unlinked = pruneUsages(item.Concepts, doomed, unlinked)
			}
		}
	}

	if t.Parent() == nil {
		for i, top := range p.Templates {
			if top == t {
				p.Templates = append(p.Templates[:i], p.Templates[i+1:]...)
				break
			}
		}
	}
	t.Delete()
	return unlinked, nil
}

// unlinkRules drops references to doomed templates from rules and their
// subtrees.
func unlinkRules(rules []*template.Rule, doomed map[*template.Template]bool) int {
	n := 0
	for _, r := range rules {
		kept := r.References[:0]
		for _, ref := range r.References {
			if doomed[ref] {
				n++
				continue
			}
			kept = append(kept, ref)
		}
		r.References = kept
		n += unlinkRules(r.Rules, doomed)
	}
	return n
}

// pruneUsages drops usages of doomed templates, descending into the
// concepts nested under items.
func pruneUsages(usages []*concept.Usage, doomed map[*template.Template]bool, n int) ([]*concept.Usage, int) {
	kept := usages[:0]
	for _, u := range usages {
		if doomed[u.Definition] {
			n++
			continue
		}
		for _, item := range u.Items {
			item.Concepts, n = pruneUsages(item.Concepts, doomed, n)
		}
		kept = append(kept, u)
	}
	return kept, n
}
