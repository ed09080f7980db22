package template

import "strings"

// Separator joins path segments in the string form of a Path.
const Separator = `\`

// Path addresses a node by the names of the nodes leading to it, starting
// at a root rule. The owning template's name is not a segment. A segment
// can name a template referenced by the preceding entity rule, in which case
// the following segments address that template's rules.
type Path []string

// ParsePath splits the string form of a path.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	return Path(strings.Split(s, Separator))
}

func (p Path) String() string {
	return strings.Join(p, Separator)
}

// Last returns the final segment, or "" for the empty path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns the path without its final segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Child returns a new path extended by name.
func (p Path) Child(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, name)
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// Step is one resolved path segment: either a rule, or a template
// referenced by the Holder entity rule.
type Step struct {
	Rule      *Rule
	Reference *Template
	Holder    *Rule
}

func (s Step) describe() string {
	if s.Reference != nil {
		return "reference"
	}
	return s.Rule.Kind.String()
}

// trail resolves every segment of p in t. It returns nil when a segment is
// unmatched. Rules are matched before references of the same name.
func trail(t *Template, p Path) []Step {
	if len(p) == 0 {
		return nil
	}
	steps := make([]Step, 0, len(p))
	rules := t.Rules
	var holder *Rule
	for _, seg := range p {
		if r := findRule(rules, seg); r != nil {
			steps = append(steps, Step{Rule: r})
			rules = r.Rules
			holder = nil
			if r.Kind == KindEntity {
				holder = r
			}
			continue
		}
		if holder != nil {
			if ref := holder.Reference(seg); ref != nil {
				steps = append(steps, Step{Reference: ref, Holder: holder})
				rules = ref.Rules
				holder = nil
				continue
			}
		}
		return nil
	}
	return steps
}

// boundary returns the index of the first reference segment of a trail, or
// len(steps) when the trail stays inside the template.
func boundary(steps []Step) int {
	for i, s := range steps {
		if s.Reference != nil {
			return i
		}
	}
	return len(steps)
}

// Resolve returns the rule addressed by p in t, or nil when any segment is
// unmatched or the path ends on a reference segment.
func Resolve(t *Template, p Path) *Rule {
	steps := trail(t, p)
	if steps == nil {
		return nil
	}
	return steps[len(steps)-1].Rule
}

// ResolveReference returns the entity rule and referenced template addressed
// by a path ending on a reference segment.
func ResolveReference(t *Template, p Path) (*Rule, *Template) {
	steps := trail(t, p)
	if steps == nil {
		return nil, nil
	}
	last := steps[len(steps)-1]
	return last.Holder, last.Reference
}

// Exists reports whether p addresses a rule or a reference in t.
func Exists(t *Template, p Path) bool {
	return trail(t, p) != nil
}

// BuildPath returns the path of r within its owning template.
func BuildPath(r *Rule) Path {
	var p Path
	for n := r; n != nil; n = n.parent {
		p = append(p, n.Name)
	}
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// Walk calls fn for every node reachable from t's root rules, in pre-order,
// including reference segments and the rules of referenced templates. A
// template already on the current trail is reported but not entered again.
func Walk(t *Template, fn func(Path, Step)) {
	onTrail := map[*Template]bool{t: true}
	var walkRules func(Path, []*Rule)
	walkRules = func(prefix Path, rules []*Rule) {
		for _, r := range rules {
			p := prefix.Child(r.Name)
			fn(p, Step{Rule: r})
			walkRules(p, r.Rules)
			for _, ref := range r.References {
				rp := p.Child(ref.Name)
				fn(rp, Step{Reference: ref, Holder: r})
				if onTrail[ref] {
					continue
				}
				onTrail[ref] = true
				walkRules(rp, ref.Rules)
				delete(onTrail, ref)
			}
		}
	}
	walkRules(nil, t.Rules)
}
