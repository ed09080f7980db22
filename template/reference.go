package template

import "slices"

// IsReferenced reports whether target is reachable from t by following the
// references in t's rule trees, transitively.
func IsReferenced(t, target *Template) bool {
	visited := make(map[*Template]bool)
	var visit func(*Template) bool
	visit = func(n *Template) bool {
		if visited[n] {
			return false
		}
		visited[n] = true
		found := false
		eachReference(n.Rules, func(ref *Template) bool {
			if ref == target || visit(ref) {
				found = true
				return false
			}
			return true
		})
		return found
	}
	return visit(t)
}

// eachReference calls fn for every reference held in rules and their
// subtrees until fn returns false.
func eachReference(rules []*Rule, fn func(*Template) bool) bool {
	for _, r := range rules {
		for _, ref := range r.References {
			if !fn(ref) {
				return false
			}
		}
		if !eachReference(r.Rules, fn) {
			return false
		}
	}
	return true
}

// CheckReference reports the *RecursiveReferenceError that linking
// candidate below holder would cause, or nil. Sub-templates of the owning
// template receive the reference through propagation and are checked too.
func CheckReference(holder *Rule, candidate *Template) error {
	owner := mustOwner(holder, "reference")
	targets := append([]*Template{owner}, owner.Descendants()...)
	for _, t := range targets {
		if t == candidate || IsReferenced(candidate, t) {
			return &RecursiveReferenceError{Template: owner, Candidate: candidate}
		}
	}
	return nil
}

// Link appends candidate to holder's references after the cycle check on
// the owning template alone, without propagating. It is meant for building
// a graph whose sub-templates already carry their own copies, such as a
// decoded document.
func Link(holder *Rule, candidate *Template) error {
	owner := mustOwner(holder, "reference")
	if owner == candidate || IsReferenced(candidate, owner) {
		return &RecursiveReferenceError{Template: owner, Candidate: candidate}
	}
	if !holder.HasReference(candidate) {
		holder.References = append(holder.References, candidate)
	}
	return nil
}

// AddReference links candidate below the entity rule holder and propagates
// the new reference to the sub-templates of holder's template. Adding a
// reference already present changes nothing. On error the graph is left
// unchanged.
func AddReference(holder *Rule, candidate *Template) (Changes, error) {
	owner := mustOwner(holder, "reference")
	if err := CheckReference(holder, candidate); err != nil {
		return nil, err
	}
	if holder.HasReference(candidate) {
		return nil, nil
	}

	holder.References = append(holder.References, candidate)
	p := BuildPath(holder).Child(candidate.Name)
	changes, err := Propagate(owner, p)
	if err != nil {
		holder.unlinkReference(candidate)
		return nil, err
	}
	return append(Changes{{Template: owner, Path: p, Kind: ChangeCreated}}, changes...), nil
}

// RemoveReference unlinks candidate from holder and from the matching entity
// rules of the sub-templates. It reports no changes when candidate was not
// referenced.
func RemoveReference(holder *Rule, candidate *Template) (Changes, error) {
	owner := mustOwner(holder, "reference")
	if !holder.HasReference(candidate) {
		return nil, nil
	}

	p := BuildPath(holder).Child(candidate.Name)
	idx := slices.Index(holder.References, candidate)
	holder.unlinkReference(candidate)
	changes, err := Propagate(owner, p)
	if err != nil {
		holder.References = slices.Insert(holder.References, idx, candidate)
		return nil, err
	}
	return append(Changes{{Template: owner, Path: p, Kind: ChangeDeleted}}, changes...), nil
}

func mustOwner(holder *Rule, op string) *Template {
	if holder.Kind != KindEntity {
		panic(&VariantError{Op: op, Want: KindEntity, Got: holder.Kind})
	}
	owner := holder.Template()
	if owner == nil {
		panic("template: " + op + " on detached rule " + holder.Name)
	}
	return owner
}
