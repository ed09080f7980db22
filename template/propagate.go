package template

import "fmt"

// ChangeKind classifies one propagated modification.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota + 1
	ChangeUpdated
	ChangeDeleted
	ChangeReordered
	ChangeRenamed
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeUpdated:
		return "updated"
	case ChangeDeleted:
		return "deleted"
	case ChangeReordered:
		return "reordered"
	case ChangeRenamed:
		return "renamed"
	default:
		return fmt.Sprintf("change(%d)", int(k))
	}
}

// Change records a modification applied to one template.
type Change struct {
	Template *Template
	Path     Path
	Kind     ChangeKind
}

// Changes is the ordered list of modifications made by one edit.
type Changes []Change

// For returns the changes applied to t.
func (c Changes) For(t *Template) Changes {
	var out Changes
	for _, ch := range c {
		if ch.Template == t {
			out = append(out, ch)
		}
	}
	return out
}

// plan accumulates the mutations for one propagation. Nothing touches the
// graph until apply.
type plan struct {
	actions []func()
	changes Changes
}

func (pl *plan) add(t *Template, p Path, kind ChangeKind, action func()) {
	pl.actions = append(pl.actions, action)
	pl.changes = append(pl.changes, Change{Template: t, Path: p, Kind: kind})
}

func (pl *plan) apply() Changes {
	for _, action := range pl.actions {
		action()
	}
	return pl.changes
}

// Propagate replays the state of the node at p in t onto every descendant
// template of t. It is called after any edit at p:
//
//   - when t has the node, descendants get a matching node, created along
//     with missing ancestors, or have their existing node's labels refreshed
//     and shared siblings reordered to match t;
//   - when t no longer has the node, descendants lose theirs;
//   - a path ending on a reference segment propagates the reference itself;
//   - nothing is propagated below a reference boundary.
//
// Rules a descendant added on its own are never touched. The call is atomic:
// a descendant holding a node of a different variant at the path fails the
// whole propagation with a *PropagationError and nothing is modified.
func Propagate(t *Template, p Path) (Changes, error) {
	return propagate(t, p, false)
}

// propagate is Propagate; with deep set the subtree below the node at p is
// replayed as well.
func propagate(t *Template, p Path, deep bool) (Changes, error) {
	if len(p) == 0 {
		return nil, nil
	}
	src := trail(t, p)
	if src != nil && boundary(src) < len(src)-1 {
		return nil, nil
	}

	pl := &plan{}
	for _, d := range t.Descendants() {
		var err error
		if src == nil {
			planDelete(pl, d, p)
		} else {
			err = planEnsure(pl, t, src, d, p, deep)
		}
		if err != nil {
			return nil, err
		}
	}
	return pl.apply(), nil
}

func planDelete(pl *plan, d *Template, p Path) {
	steps := trail(d, p)
	if steps == nil || boundary(steps) < len(steps)-1 {
		return
	}
	last := steps[len(steps)-1]
	if last.Reference != nil {
		holder, ref := last.Holder, last.Reference
		pl.add(d, p, ChangeDeleted, func() { holder.unlinkReference(ref) })
		return
	}
	r := last.Rule
	pl.add(d, p, ChangeDeleted, r.Delete)
}

// level is the sibling list a path segment is matched in.
type level struct {
	rules  *[]*Rule
	holder *Rule
	insert func(int, *Rule)
}

func rootLevel(t *Template) level {
	return level{rules: &t.Rules, insert: t.InsertRule}
}

func ruleLevel(r *Rule) level {
	lv := level{rules: &r.Rules, insert: r.InsertRule}
	if r.Kind == KindEntity {
		lv.holder = r
	}
	return lv
}

func planEnsure(pl *plan, t *Template, src []Step, d *Template, p Path, deep bool) error {
	srcLevel := rootLevel(t)
	dstLevel := rootLevel(d)
	for i, s := range src {
		path := p[:i+1 : i+1]
		if s.Reference != nil {
			return planReference(pl, d, path, dstLevel.holder, s.Reference)
		}

		found := findRule(*dstLevel.rules, s.Rule.Name)
		if found == nil && dstLevel.holder != nil && dstLevel.holder.Reference(s.Rule.Name) != nil {
			return &PropagationError{Template: d, Path: path, Want: s.Rule.Kind, Got: "reference"}
		}
		if found != nil && found.Kind != s.Rule.Kind {
			return &PropagationError{Template: d, Path: path, Want: s.Rule.Kind, Got: found.Kind.String()}
		}

		if found == nil {
			return planCreate(pl, d, p, i, src, srcLevel, dstLevel, deep)
		}

		if i == len(src)-1 {
			if !found.sameLabels(s.Rule) {
				node, from := found, s.Rule
				pl.add(d, path, ChangeUpdated, func() { node.copyLabels(from) })
			}
			if order, changed := reorderShared(*dstLevel.rules, *srcLevel.rules); changed {
				rules := dstLevel.rules
				pl.add(d, path.Parent(), ChangeReordered, func() { *rules = order })
			}
			if deep {
				return planSubtree(pl, d, path, s.Rule, found)
			}
			return nil
		}
		srcLevel = ruleLevel(s.Rule)
		dstLevel = ruleLevel(found)
	}
	return nil
}

// planCreate builds detached copies of src[from:] and schedules attaching
// them at dst. A trailing reference segment is linked to the last copy. With
// deep set the last node is copied with its subtree.
func planCreate(pl *plan, d *Template, p Path, from int, src []Step, srcLevel, dst level, deep bool) error {
	last := len(src) - 1
	copyStep := func(i int) (*Rule, error) {
		if !deep || i != last {
			return src[i].Rule.shell(), nil
		}
		if err := checkSubtreeReferences(src[i].Rule, d); err != nil {
			return nil, err
		}
		return src[i].Rule.deepCopy(), nil
	}

	top, err := copyStep(from)
	if err != nil {
		return err
	}
	bottom := top
	for i := from + 1; i < len(src); i++ {
		s := src[i]
		if s.Reference != nil {
			if s.Reference == d || IsReferenced(s.Reference, d) {
				return &RecursiveReferenceError{Template: d, Candidate: s.Reference}
			}
			bottom.References = append(bottom.References, s.Reference)
			break
		}
		next, err := copyStep(i)
		if err != nil {
			return err
		}
		bottom.AddRule(next)
		bottom = next
	}

	idx := placeIndex(*dst.rules, *srcLevel.rules, top.Name)
	insert := dst.insert
	pl.add(d, p[:from+1:from+1], ChangeCreated, func() { insert(idx, top) })
	for i := from + 1; i < len(src); i++ {
		pl.changes = append(pl.changes, Change{Template: d, Path: p[: i+1 : i+1], Kind: ChangeCreated})
	}
	if deep && src[last].Rule != nil {
		for _, sp := range subtreePaths(p, src[last].Rule) {
			pl.changes = append(pl.changes, Change{Template: d, Path: sp, Kind: ChangeCreated})
		}
	}
	return nil
}

// planSubtree replays the children of src onto dst, the matching node of a
// descendant. Missing children are copied with their subtrees, present ones
// have their labels refreshed and are descended into.
func planSubtree(pl *plan, d *Template, p Path, src, dst *Rule) error {
	for _, child := range src.Rules {
		cp := p.Child(child.Name)
		found := findRule(dst.Rules, child.Name)
		if found == nil && dst.Kind == KindEntity && dst.Reference(child.Name) != nil {
			return &PropagationError{Template: d, Path: cp, Want: child.Kind, Got: "reference"}
		}
		if found != nil && found.Kind != child.Kind {
			return &PropagationError{Template: d, Path: cp, Want: child.Kind, Got: found.Kind.String()}
		}

		if found == nil {
			if err := checkSubtreeReferences(child, d); err != nil {
				return err
			}
			node := child.deepCopy()
			pl.add(d, cp, ChangeCreated, func() {
				dst.InsertRule(placeIndex(dst.Rules, src.Rules, node.Name), node)
			})
			for _, sp := range subtreePaths(cp, child) {
				pl.changes = append(pl.changes, Change{Template: d, Path: sp, Kind: ChangeCreated})
			}
			continue
		}

		if !found.sameLabels(child) {
			node, from := found, child
			pl.add(d, cp, ChangeUpdated, func() { node.copyLabels(from) })
		}
		if err := planSubtree(pl, d, cp, child, found); err != nil {
			return err
		}
	}

	for _, ref := range src.References {
		if err := planReference(pl, d, p.Child(ref.Name), dst, ref); err != nil {
			return err
		}
	}
	return nil
}

// checkSubtreeReferences reports the *RecursiveReferenceError that copying
// the references of r's subtree into d would cause.
func checkSubtreeReferences(r *Rule, d *Template) error {
	var err error
	eachReference([]*Rule{r}, func(ref *Template) bool {
		if ref == d || IsReferenced(ref, d) {
			err = &RecursiveReferenceError{Template: d, Candidate: ref}
			return false
		}
		return true
	})
	return err
}

// subtreePaths lists the paths below r in pre-order, r itself excluded.
func subtreePaths(p Path, r *Rule) []Path {
	var out []Path
	for _, child := range r.Rules {
		cp := p.Child(child.Name)
		out = append(out, cp)
		out = append(out, subtreePaths(cp, child)...)
	}
	for _, ref := range r.References {
		out = append(out, p.Child(ref.Name))
	}
	return out
}

func planReference(pl *plan, d *Template, p Path, holder *Rule, ref *Template) error {
	if holder == nil {
		return &PropagationError{Template: d, Path: p, Want: KindEntity, Got: "non-entity parent"}
	}
	if holder.HasReference(ref) {
		return nil
	}
	if ref == d || IsReferenced(ref, d) {
		return &RecursiveReferenceError{Template: d, Candidate: ref}
	}
	pl.add(d, p, ChangeCreated, func() { holder.References = append(holder.References, ref) })
	return nil
}

// placeIndex returns where a node named name goes in dst so that it follows
// the source order relative to siblings present in both lists.
func placeIndex(dst, src []*Rule, name string) int {
	pos := -1
	for i, r := range src {
		if r.Name == name {
			pos = i
			break
		}
	}
	if pos < 0 {
		return len(dst)
	}
	for i := pos - 1; i >= 0; i-- {
		if j := indexByName(dst, src[i].Name); j >= 0 {
			return j + 1
		}
	}
	for i := pos + 1; i < len(src); i++ {
		if j := indexByName(dst, src[i].Name); j >= 0 {
			return j
		}
	}
	return len(dst)
}

// reorderShared returns dst with the nodes that also appear in src put in
// src order. Nodes only in dst keep their slots.
func reorderShared(dst, src []*Rule) ([]*Rule, bool) {
	var slots []int
	var shared []*Rule
	for i, r := range dst {
		if indexByName(src, r.Name) >= 0 {
			slots = append(slots, i)
			shared = append(shared, r)
		}
	}
	if len(shared) < 2 {
		return dst, false
	}

	sorted := make([]*Rule, 0, len(shared))
	for _, s := range src {
		for _, r := range shared {
			if r.Name == s.Name && indexOf(sorted, r) < 0 {
				sorted = append(sorted, r)
				break
			}
		}
	}
	if len(sorted) != len(shared) {
		return dst, false
	}

	out := make([]*Rule, len(dst))
	copy(out, dst)
	changed := false
	for k, slot := range slots {
		if out[slot] != sorted[k] {
			out[slot] = sorted[k]
			changed = true
		}
	}
	return out, changed
}

func indexByName(rules []*Rule, name string) int {
	for i, r := range rules {
		if r.Name == name {
			return i
		}
	}
	return -1
}
