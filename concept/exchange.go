// Package concept binds concept templates to schema entities within model
// views: template usages with parameter items, exchange requirements, and
// the resolution of usages inherited through base views and supertypes.
package concept

import (
	"fmt"
	"strings"

	"github.com/c360studio/mvdkit/template"
)

// Applicability tells whether an exchange requirement applies when
// importing, exporting or both.
type Applicability int

const (
	ApplicabilityBoth Applicability = iota
	ApplicabilityExport
	ApplicabilityImport
)

var applicabilityNames = []string{"both", "export", "import"}

func (a Applicability) String() string {
	if int(a) < 0 || int(a) >= len(applicabilityNames) {
		return fmt.Sprintf("applicability(%d)", int(a))
	}
	return applicabilityNames[a]
}

// ParseApplicability parses an interchange applicability name. The empty
// string maps to ApplicabilityBoth.
func ParseApplicability(s string) (Applicability, error) {
	if s == "" {
		return ApplicabilityBoth, nil
	}
	for i, name := range applicabilityNames {
		if strings.EqualFold(name, s) {
			return Applicability(i), nil
		}
	}
	return ApplicabilityBoth, fmt.Errorf("unknown applicability %q", s)
}

// Requirement is the obligation a usage carries for one exchange.
type Requirement int

const (
	RequirementMandatory Requirement = iota + 1
	RequirementOptional
	RequirementNotRelevant
	RequirementExcluded
)

var requirementNames = map[Requirement]string{
	RequirementMandatory:   "mandatory",
	RequirementOptional:    "optional",
	RequirementNotRelevant: "not relevant",
	RequirementExcluded:    "excluded",
}

func (r Requirement) String() string {
	if name, ok := requirementNames[r]; ok {
		return name
	}
	return fmt.Sprintf("requirement(%d)", int(r))
}

// ParseRequirement parses an interchange requirement name.
func ParseRequirement(s string) (Requirement, error) {
	for r, name := range requirementNames {
		if strings.EqualFold(name, s) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown requirement %q", s)
}

// Operator combines the items of a usage.
type Operator int

const (
	OperatorAnd Operator = iota
	OperatorOr
	OperatorNot
	OperatorNand
	OperatorNor
	OperatorXor
	OperatorNxor
)

var operatorNames = []string{"and", "or", "not", "nand", "nor", "xor", "nxor"}

func (o Operator) String() string {
	if int(o) < 0 || int(o) >= len(operatorNames) {
		return fmt.Sprintf("operator(%d)", int(o))
	}
	return operatorNames[o]
}

// ParseOperator parses an interchange operator name. The empty string maps
// to OperatorAnd.
func ParseOperator(s string) (Operator, error) {
	if s == "" {
		return OperatorAnd, nil
	}
	for i, name := range operatorNames {
		if strings.EqualFold(name, s) {
			return Operator(i), nil
		}
	}
	return OperatorAnd, fmt.Errorf("unknown operator %q", s)
}

// Exchange is an exchange requirement defined by a model view.
type Exchange struct {
	template.Identity
	Applicability Applicability
}

// NewExchange creates an exchange with a fresh UUID.
func NewExchange(name string, applicability Applicability) *Exchange {
	return &Exchange{Identity: template.NewIdentity(name), Applicability: applicability}
}

// ExchangeItem is the requirement a usage carries for one exchange and
// direction.
type ExchangeItem struct {
	Exchange      *Exchange
	Applicability Applicability
	Requirement   Requirement
}
