package template

// IsLocked reports whether the node at p in t is inherited, that is whether
// t's base template declares the same path. Locked nodes are edited in the
// declaring template and reach t through propagation.
func IsLocked(t *Template, p Path) bool {
	base := t.Parent()
	return base != nil && Exists(base, p)
}

// DeclaringTemplate returns the most general ancestor of t (t included)
// that declares p, or nil when t does not have the path.
func DeclaringTemplate(t *Template, p Path) *Template {
	if !Exists(t, p) {
		return nil
	}
	decl := t
	for base := t.Parent(); base != nil && Exists(base, p); base = base.Parent() {
		decl = base
	}
	return decl
}
