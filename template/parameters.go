package template

// ParameterRules returns the parameter nodes of t's own rule tree in
// depth-first pre-order.
func ParameterRules(t *Template) []*Rule {
	var out []*Rule
	var walk func([]*Rule)
	walk = func(rules []*Rule) {
		for _, r := range rules {
			if r.IsParameter() {
				out = append(out, r)
			}
			walk(r.Rules)
		}
	}
	walk(t.Rules)
	return out
}

// RulePath returns the nodes from a root rule of t down to r, or nil when r
// is not owned by t.
func RulePath(t *Template, r *Rule) []*Rule {
	if r.Template() != t {
		return nil
	}
	var out []*Rule
	for n := r; n != nil; n = n.parent {
		out = append(out, n)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
