package concept

import (
	"errors"
	"fmt"

	"github.com/c360studio/mvdkit/template"
)

// ErrDuplicateUsage is returned when a root already holds a usage of the
// same template.
var ErrDuplicateUsage = errors.New("template already used by concept root")

// Root binds usages to one applicable entity within a view.
type Root struct {
	template.Identity

	// Entity is the applicable entity name.
	Entity string

	// ApplicableTemplate, ApplicableOperator and ApplicableItems restrict
	// which instances of Entity the root applies to.
	ApplicableTemplate *template.Template
	ApplicableOperator Operator
	ApplicableItems    []*Item

	Concepts []*Usage
}

// NewRoot creates a root for entity with a fresh UUID.
func NewRoot(entity string) *Root {
	return &Root{Identity: template.NewIdentity(entity), Entity: entity}
}

// Usage returns the root's usage of t, or nil.
func (r *Root) Usage(t *template.Template) *Usage {
	for _, u := range r.Concepts {
		if u.Definition == t {
			return u
		}
	}
	return nil
}

// AddUsage appends u. A root holds at most one usage per template.
func (r *Root) AddUsage(u *Usage) error {
	if r.Usage(u.Definition) != nil {
		return fmt.Errorf("add usage of %q to %s: %w", u.Definition.Name, r.Entity, ErrDuplicateUsage)
	}
	r.Concepts = append(r.Concepts, u)
	return nil
}

// RemoveUsage removes the root's usage of t.
func (r *Root) RemoveUsage(t *template.Template) bool {
	for i, u := range r.Concepts {
		if u.Definition == t {
			r.Concepts = append(r.Concepts[:i], r.Concepts[i+1:]...)
			return true
		}
	}
	return false
}

// Mode is the inheritance mode a local usage selects.
type Mode int

const (
	ModeInherit Mode = iota
	ModeOverride
	ModeSuppress
)

// SetInheritance creates or updates the root's usage of t with the flags of
// mode and returns it.
func (r *Root) SetInheritance(t *template.Template, mode Mode) *Usage {
	u := r.Usage(t)
	if u == nil {
		u = NewUsage(t)
		r.Concepts = append(r.Concepts, u)
	}
	u.Override = mode == ModeOverride
	u.Suppress = mode == ModeSuppress
	return u
}

// View is a model view: exchange requirements and concept roots, optionally
// refining a base view.
type View struct {
	template.Identity

	Schema string

	// BaseView is the UUID string of the refined view; empty for none.
	BaseView string

	Exchanges []*Exchange
	Roots     []*Root
}

// NewView creates a view with a fresh UUID.
func NewView(name string) *View {
	return &View{Identity: template.NewIdentity(name)}
}

// RootsFor returns the roots bound to entity, in declared order.
func (v *View) RootsFor(entity string) []*Root {
	var out []*Root
	for _, r := range v.Roots {
		if r.Entity == entity {
			out = append(out, r)
		}
	}
	return out
}

// Root returns the first root bound to entity, or nil.
func (v *View) Root(entity string) *Root {
	for _, r := range v.Roots {
		if r.Entity == entity {
			return r
		}
	}
	return nil
}

// Exchange returns the exchange named name, or nil.
func (v *View) Exchange(name string) *Exchange {
	for _, ex := range v.Exchanges {
		if ex.Name == name {
			return ex
		}
	}
	return nil
}
