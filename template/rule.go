package template

import "fmt"

// Kind is the closed set of rule node variants.
type Kind int

const (
	KindEntity Kind = iota + 1
	KindAttribute
	KindConstraint
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindAttribute:
		return "attribute"
	case KindConstraint:
		return "constraint"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// accepts reports whether a node of kind k may hold a child of kind child.
// Attribute rules hold entity rules and constraints, entity rules hold
// attribute rules and constraints, constraints are leaves.
func (k Kind) accepts(child Kind) bool {
	switch k {
	case KindAttribute:
		return child == KindEntity || child == KindConstraint
	case KindEntity:
		return child == KindAttribute || child == KindConstraint
	default:
		return false
	}
}

// Rule is one node of a template's rule tree.
type Rule struct {
	Kind Kind

	// Name is the entity type name, the attribute name, or for constraints
	// a copy of Expression.
	Name string

	Description string

	// Identification names the parameter slot this node exposes; empty when
	// the node is not a parameter.
	Identification string

	// Condition marks a parameter that selects among sibling templates
	// rather than assigning a value.
	Condition bool

	// Expression is the constraint's boolean expression.
	Expression string

	// Rules are the ordered child nodes.
	Rules []*Rule

	// References are templates spliced in below an entity rule. The
	// referenced templates are shared, never owned.
	References []*Template

	parent *Rule
	owner  *Template
}

// NewEntityRule creates an entity rule for the given entity type name.
func NewEntityRule(entity string) *Rule {
	return &Rule{Kind: KindEntity, Name: entity}
}

// NewAttributeRule creates an attribute rule for the given attribute name.
func NewAttributeRule(attribute string) *Rule {
	return &Rule{Kind: KindAttribute, Name: attribute}
}

// NewConstraintRule creates a constraint rule for the given expression.
func NewConstraintRule(expression string) *Rule {
	return &Rule{Kind: KindConstraint, Name: expression, Expression: expression}
}

// Parent returns the parent rule, or nil for root rules and detached rules.
func (r *Rule) Parent() *Rule {
	return r.parent
}

// Template returns the template owning the tree this rule belongs to, or nil
// when the rule is detached.
func (r *Rule) Template() *Template {
	n := r
	for n.parent != nil {
		n = n.parent
	}
	return n.owner
}

// IsParameter reports whether the node exposes a parameter slot.
func (r *Rule) IsParameter() bool {
	return r.Identification != ""
}

// IsCondition reports whether the node is a distinguishing parameter.
func (r *Rule) IsCondition() bool {
	return r.IsParameter() && r.Condition
}

// SetExpression replaces a constraint's expression and display name.
func (r *Rule) SetExpression(expression string) {
	if r.Kind != KindConstraint {
		panic(&VariantError{Op: "SetExpression", Want: KindConstraint, Got: r.Kind})
	}
	r.Expression = expression
	r.Name = expression
}

// AddRule appends child to the node's children.
func (r *Rule) AddRule(child *Rule) {
	r.InsertRule(len(r.Rules), child)
}

// InsertRule inserts child at index i, clamped to the child range.
func (r *Rule) InsertRule(i int, child *Rule) {
	if !r.Kind.accepts(child.Kind) {
		panic(&VariantError{Op: "insert " + child.Kind.String(), Got: r.Kind})
	}
	child.mustBeDetached()
	r.Rules = insertAt(r.Rules, i, child)
	child.parent = r
}

// RemoveRule unlinks child from the node without deleting its subtree.
// It reports whether child was present.
func (r *Rule) RemoveRule(child *Rule) bool {
	i := indexOf(r.Rules, child)
	if i < 0 {
		return false
	}
	r.Rules = append(r.Rules[:i], r.Rules[i+1:]...)
	child.parent = nil
	return true
}

// Rule returns the first child with the given name.
func (r *Rule) Rule(name string) *Rule {
	return findRule(r.Rules, name)
}

// Reference returns the first referenced template with the given name.
func (r *Rule) Reference(name string) *Template {
	for _, ref := range r.References {
		if ref.Name == name {
			return ref
		}
	}
	return nil
}

// HasReference reports whether t is among the node's references.
func (r *Rule) HasReference(t *Template) bool {
	for _, ref := range r.References {
		if ref == t {
			return true
		}
	}
	return false
}

func (r *Rule) unlinkReference(t *Template) bool {
	for i, ref := range r.References {
		if ref == t {
			r.References = append(r.References[:i], r.References[i+1:]...)
			return true
		}
	}
	return false
}

// Delete detaches the node and tears down its subtree. Referenced templates
// are unlinked, never deleted.
func (r *Rule) Delete() {
	r.detach()
	r.clear()
}

func (r *Rule) clear() {
	for _, child := range r.Rules {
		child.parent = nil
		child.clear()
	}
	r.Rules = nil
	r.References = nil
}

func (r *Rule) detach() {
	switch {
	case r.parent != nil:
		r.parent.RemoveRule(r)
	case r.owner != nil:
		r.owner.RemoveRule(r)
	}
}

// shell copies the labels of r into a new detached node with no children.
func (r *Rule) shell() *Rule {
	return &Rule{
		Kind:           r.Kind,
		Name:           r.Name,
		Description:    r.Description,
		Identification: r.Identification,
		Condition:      r.Condition,
		Expression:     r.Expression,
	}
}

// deepCopy copies r with its subtree into a new detached node. References
// are shared, not copied.
func (r *Rule) deepCopy() *Rule {
	c := r.shell()
	for _, child := range r.Rules {
		c.AddRule(child.deepCopy())
	}
	c.References = append([]*Template(nil), r.References...)
	return c
}

// sameLabels reports whether the propagated label fields of r and o match.
func (r *Rule) sameLabels(o *Rule) bool {
	return r.Description == o.Description &&
		r.Identification == o.Identification &&
		r.Condition == o.Condition &&
		r.Expression == o.Expression
}

func (r *Rule) copyLabels(o *Rule) {
	r.Description = o.Description
	r.Identification = o.Identification
	r.Condition = o.Condition
	r.Expression = o.Expression
}

func (r *Rule) mustBeDetached() {
	if r.parent != nil || r.owner != nil {
		panic(fmt.Sprintf("template: %s rule %q is already attached", r.Kind, r.Name))
	}
}

func findRule(rules []*Rule, name string) *Rule {
	for _, r := range rules {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func indexOf(rules []*Rule, r *Rule) int {
	for i, n := range rules {
		if n == r {
			return i
		}
	}
	return -1
}

func insertAt(rules []*Rule, i int, r *Rule) []*Rule {
	if i < 0 {
		i = 0
	}
	if i > len(rules) {
		i = len(rules)
	}
	rules = append(rules, nil)
	copy(rules[i+1:], rules[i:])
	rules[i] = r
	return rules
}
