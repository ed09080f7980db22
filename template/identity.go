// Package template implements concept templates: UUID-identified trees of
// model rules describing how a template constrains instances of a schema
// entity, together with path addressing, inheritance locking, edit
// propagation to sub-templates, and reference cycle checks.
package template

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Category classifies a localized documentation link.
type Category int

const (
	CategoryDefinition Category = iota
	CategoryAgreement
	CategoryDiagram
	CategoryInstantiation
	CategoryExample
)

var categoryNames = []string{"definition", "agreement", "diagram", "instantiation", "example"}

// String returns the interchange name of the category.
func (c Category) String() string {
	if int(c) < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// ParseCategory parses an interchange category name. The empty string maps
// to CategoryDefinition.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryDefinition, nil
	}
	for i, name := range categoryNames {
		if strings.EqualFold(name, s) {
			return Category(i), nil
		}
	}
	return CategoryDefinition, fmt.Errorf("unknown category %q", s)
}

// Localization is a translated name and documentation for one locale.
type Localization struct {
	Locale        string
	Name          string
	Documentation string
	Category      Category
	URL           string
}

// Identity is the descriptive metadata shared by templates, views, roots
// and concept usages.
type Identity struct {
	ID            uuid.UUID
	Name          string
	Code          string
	Version       string
	Status        string
	Author        string
	Owner         string
	Copyright     string
	Documentation string
	Localizations []Localization
}

// NewIdentity returns an identity with a fresh UUID.
func NewIdentity(name string) Identity {
	return Identity{ID: uuid.New(), Name: name}
}
