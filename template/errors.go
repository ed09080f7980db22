package template

import (
	"errors"
	"fmt"
)

var (
	// ErrLocked is returned when an edit targets a node inherited from a base template.
	ErrLocked = errors.New("rule is inherited from base template")

	// ErrNotFound is returned when an edit path does not resolve to a rule.
	ErrNotFound = errors.New("rule not found")

	// ErrDuplicateName is returned when a node would share its name with a sibling.
	ErrDuplicateName = errors.New("duplicate rule name")
)

// VariantError is the panic value raised when a variant-specific operation
// is applied to a rule of the wrong kind.
type VariantError struct {
	Op   string
	Want Kind
	Got  Kind
}

func (e *VariantError) Error() string {
	if e.Want == 0 {
		return fmt.Sprintf("invalid rule variant: %s not allowed on %s rule", e.Op, e.Got)
	}
	return fmt.Sprintf("invalid rule variant: %s requires %s rule, got %s", e.Op, e.Want, e.Got)
}

// RecursiveReferenceError reports a reference that would make a template
// reachable from itself.
type RecursiveReferenceError struct {
	Template  *Template
	Candidate *Template
}

func (e *RecursiveReferenceError) Error() string {
	return fmt.Sprintf("recursive reference: %q cannot reference %q", e.Template.Name, e.Candidate.Name)
}

// PropagationError reports a descendant template whose rule tree cannot
// receive an edit because a node of a different variant occupies the path.
type PropagationError struct {
	Template *Template
	Path     Path
	Want     Kind
	Got      string
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("propagate to %q at %s: expected %s node, found %s", e.Template.Name, e.Path, e.Want, e.Got)
}

// LockedError wraps ErrLocked with the template declaring the path.
type LockedError struct {
	Path       Path
	DeclaredBy *Template
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("%s declared by %q: %v", e.Path, e.DeclaredBy.Name, ErrLocked)
}

func (e *LockedError) Unwrap() error {
	return ErrLocked
}
