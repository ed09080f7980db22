package template

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/c360studio/mvdkit/metric"
)

// Fields selects the label fields an Update changes. Nil fields are left
// as they are.
type Fields struct {
	Description    *string
	Identification *string
	Condition      *bool
}

// Editor applies rule edits to templates and propagates them to
// sub-templates. Every operation either completes, including propagation,
// or returns an error with the graph unchanged.
type Editor struct {
	logger  *slog.Logger
	metrics *metric.Metrics
}

// NewEditor creates an editor. Both arguments may be nil.
func NewEditor(logger *slog.Logger, metrics *metric.Metrics) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{logger: logger, metrics: metrics}
}

// Insert adds r below the node at parent (the root list when parent is
// empty) at index, clamped to the sibling range, and propagates it with its
// subtree.
func (e *Editor) Insert(t *Template, parent Path, r *Rule, index int) (changes Changes, err error) {
	defer e.record("insert", t, parent.Child(r.Name), &changes, &err)

	var lv level
	if len(parent) == 0 {
		lv = rootLevel(t)
	} else {
		node := Resolve(t, parent)
		if node == nil {
			return nil, fmt.Errorf("insert below %s: %w", parent, ErrNotFound)
		}
		if owner := node.Template(); owner != t {
			return nil, &LockedError{Path: parent, DeclaredBy: owner}
		}
		lv = ruleLevel(node)
	}

	p := parent.Child(r.Name)
	if findRule(*lv.rules, r.Name) != nil {
		return nil, fmt.Errorf("insert %s: %w", p, ErrDuplicateName)
	}
	if IsLocked(t, p) {
		return nil, &LockedError{Path: p, DeclaredBy: DeclaringTemplate(t.Parent(), p)}
	}
	if err := checkSubtreeReferences(r, t); err != nil {
		return nil, err
	}

	lv.insert(index, r)
	changes, err = propagate(t, p, true)
	if err != nil {
		r.detach()
		return nil, err
	}
	return append(Changes{{Template: t, Path: p, Kind: ChangeCreated}}, changes...), nil
}

// Update changes label fields of the node at p and propagates them.
func (e *Editor) Update(t *Template, p Path, f Fields) (changes Changes, err error) {
	defer e.record("update", t, p, &changes, &err)

	r, err := e.target(t, p)
	if err != nil {
		return nil, err
	}

	saved := *r
	if f.Description != nil {
		r.Description = *f.Description
	}
	if f.Identification != nil {
		r.Identification = *f.Identification
	}
	if f.Condition != nil {
		r.Condition = *f.Condition
	}
	if r.sameLabels(&saved) {
		return nil, nil
	}

	changes, err = Propagate(t, p)
	if err != nil {
		r.copyLabels(&saved)
		return nil, err
	}
	return append(Changes{{Template: t, Path: p, Kind: ChangeUpdated}}, changes...), nil
}

// SetDefaultIdentification names the node's parameter slot after its role:
// "Value" for entity rules and "Name" for attribute rules.
func (e *Editor) SetDefaultIdentification(t *Template, p Path) (Changes, error) {
	r := Resolve(t, p)
	if r == nil {
		return nil, fmt.Errorf("set default identification %s: %w", p, ErrNotFound)
	}
	var ident string
	switch r.Kind {
	case KindEntity:
		ident = "Value"
	case KindAttribute:
		ident = "Name"
	default:
		panic(&VariantError{Op: "SetDefaultIdentification", Got: r.Kind})
	}
	return e.Update(t, p, Fields{Identification: &ident})
}

// Rename changes the name of the node at p. Sub-templates holding the node
// at the old path have it renamed before the new path propagates. For
// constraints the name is the expression.
func (e *Editor) Rename(t *Template, p Path, name string) (changes Changes, err error) {
	newPath := p.Parent().Child(name)
	defer e.record("rename", t, newPath, &changes, &err)

	r, err := e.target(t, p)
	if err != nil {
		return nil, err
	}
	if r.Name == name {
		return nil, nil
	}
	if findRule(siblings(r), name) != nil {
		return nil, fmt.Errorf("rename %s: %w", newPath, ErrDuplicateName)
	}
	if IsLocked(t, newPath) {
		return nil, &LockedError{Path: newPath, DeclaredBy: DeclaringTemplate(t.Parent(), newPath)}
	}

	var renamed []*Rule
	for _, d := range t.Descendants() {
		steps := trail(d, p)
		if steps == nil || boundary(steps) < len(steps) {
			continue
		}
		node := steps[len(steps)-1].Rule
		if node.Kind != r.Kind {
			return nil, &PropagationError{Template: d, Path: p, Want: r.Kind, Got: node.Kind.String()}
		}
		if findRule(siblings(node), name) != nil {
			return nil, fmt.Errorf("rename %s in %q: %w", newPath, d.Name, ErrDuplicateName)
		}
		renamed = append(renamed, node)
		changes = append(changes, Change{Template: d, Path: newPath, Kind: ChangeRenamed})
	}

	old := r.Name
	setName := func(n *Rule, s string) {
		n.Name = s
		if n.Kind == KindConstraint {
			n.Expression = s
		}
	}
	setName(r, name)
	for _, n := range renamed {
		setName(n, name)
	}

	refreshed, err := Propagate(t, newPath)
	if err != nil {
		setName(r, old)
		for _, n := range renamed {
			setName(n, old)
		}
		return nil, err
	}
	changes = append(Changes{{Template: t, Path: newPath, Kind: ChangeRenamed}}, changes...)
	return append(changes, refreshed...), nil
}

// Delete removes the node at p with its subtree, in t and in every
// sub-template holding it.
func (e *Editor) Delete(t *Template, p Path) (changes Changes, err error) {
	defer e.record("delete", t, p, &changes, &err)

	r, err := e.target(t, p)
	if err != nil {
		return nil, err
	}

	parent, owner := r.parent, r.owner
	idx := indexOf(siblings(r), r)
	r.detach()

	changes, err = Propagate(t, p)
	if err != nil {
		if parent != nil {
			parent.InsertRule(idx, r)
		} else {
			owner.InsertRule(idx, r)
		}
		return nil, err
	}
	r.clear()
	return append(Changes{{Template: t, Path: p, Kind: ChangeDeleted}}, changes...), nil
}

// Move shifts the node at p by offset positions among its siblings and
// propagates the new order.
func (e *Editor) Move(t *Template, p Path, offset int) (changes Changes, err error) {
	defer e.record("move", t, p, &changes, &err)

	r, err := e.target(t, p)
	if err != nil {
		return nil, err
	}

	list := siblingList(r)
	before := append([]*Rule(nil), (*list)...)
	i := indexOf(*list, r)
	j := i + offset
	if j < 0 {
		j = 0
	}
	if j >= len(*list) {
		j = len(*list) - 1
	}
	if i == j {
		return nil, nil
	}

	rest := append(append([]*Rule(nil), (*list)[:i]...), (*list)[i+1:]...)
	*list = insertAt(rest, j, r)

	changes, err = Propagate(t, p)
	if err != nil {
		*list = before
		return nil, err
	}
	return append(Changes{{Template: t, Path: p.Parent(), Kind: ChangeReordered}}, changes...), nil
}

// AddReference links candidate below holder, see the package-level
// AddReference.
func (e *Editor) AddReference(holder *Rule, candidate *Template) (changes Changes, err error) {
	owner := mustOwner(holder, "reference")
	defer e.record("add_reference", owner, BuildPath(holder).Child(candidate.Name), &changes, &err)

	changes, err = AddReference(holder, candidate)
	var recursive *RecursiveReferenceError
	if errors.As(err, &recursive) {
		e.metrics.RecordRejectedReference()
	}
	return changes, err
}

// RemoveReference unlinks candidate from holder and its copies in
// sub-templates.
func (e *Editor) RemoveReference(holder *Rule, candidate *Template) (changes Changes, err error) {
	owner := mustOwner(holder, "reference")
	defer e.record("remove_reference", owner, BuildPath(holder).Child(candidate.Name), &changes, &err)

	return RemoveReference(holder, candidate)
}

// target resolves an editable node: present, owned by t and not inherited.
func (e *Editor) target(t *Template, p Path) (*Rule, error) {
	r := Resolve(t, p)
	if r == nil {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if owner := r.Template(); owner != t {
		return nil, &LockedError{Path: p, DeclaredBy: owner}
	}
	if IsLocked(t, p) {
		return nil, &LockedError{Path: p, DeclaredBy: DeclaringTemplate(t.Parent(), p)}
	}
	return r, nil
}

func (e *Editor) record(op string, t *Template, p Path, changes *Changes, err *error) {
	e.metrics.RecordEdit(op, *err)
	if *err != nil {
		e.logger.Debug("Rule edit rejected",
			"op", op,
			"template", t.Name,
			"path", p.String(),
			"error", *err)
		return
	}
	for _, ch := range *changes {
		if ch.Template != t {
			e.metrics.RecordChange(ch.Kind.String())
		}
	}
	e.logger.Debug("Rule edit applied",
		"op", op,
		"template", t.Name,
		"path", p.String(),
		"changes", len(*changes))
}

func siblingList(r *Rule) *[]*Rule {
	if r.parent != nil {
		return &r.parent.Rules
	}
	return &r.owner.Rules
}

func siblings(r *Rule) []*Rule {
	return *siblingList(r)
}
