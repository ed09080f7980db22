// Package assertion derives instance-level Schematron checks from the
// template usages of a model view.
package assertion

import (
	"strings"

	"github.com/c360studio/mvdkit/concept"
	"github.com/c360studio/mvdkit/template"
)

// Rule is a set of assertions evaluated in one context.
type Rule struct {
	// Context selects the instances checked, e.g.
	// "//IfcWall[@IsDefinedBy/IfcRelDefinesByProperties/ = Pset_WallCommon]".
	Context string

	Asserts []string
}

// Pattern groups the rules derived from one usage.
type Pattern struct {
	ID            string
	Name          string
	Documentation string
	Rules         []Rule
}

// Phase activates the patterns mandatory for one exchange.
type Phase struct {
	ID      string
	Actives []string
}

// Schema is the checks derived from a view.
type Schema struct {
	Title    string
	Phases   []Phase
	Patterns []Pattern
}

// Build derives the rules checking root's usage u. Each item yields one
// rule: condition parameters narrow the context, other bound parameters
// become assertions. A usage without items yields one rule per root rule of
// the template, asserting that every path below it is populated.
func Build(root *concept.Root, u *concept.Usage) []Rule {
	t := u.Definition
	if t == nil {
		return nil
	}
	context := "//" + root.Entity

	if len(u.Items) == 0 {
		rules := make([]Rule, 0, len(t.Rules))
		for _, r := range t.Rules {
			rule := Rule{Context: context}
			rule.Asserts = prefixAsserts(rule.Asserts, []*template.Rule{r})
			rules = append(rules, rule)
		}
		return rules
	}

	params := template.ParameterRules(t)
	paths := make([]string, len(params))
	for i, p := range params {
		paths[i] = xpath(template.RulePath(t, p))
	}

	rules := make([]Rule, 0, len(u.Items))
	for _, item := range u.Items {
		rule := Rule{Context: context}
		for i, p := range params {
			if !p.IsCondition() {
				continue
			}
			if value, ok := item.ParameterValue(p.Identification); ok {
				rule.Context += "[@" + paths[i] + " = " + value + "]"
			}
		}
		for i, p := range params {
			if p.IsCondition() {
				continue
			}
			if value, ok := item.ParameterValue(p.Identification); ok {
				rule.Asserts = append(rule.Asserts, paths[i]+" = '"+value+"'")
			}
		}
		rules = append(rules, rule)
	}
	return rules
}

func prefixAsserts(asserts []string, trail []*template.Rule) []string {
	asserts = append(asserts, xpath(trail))
	for _, child := range trail[len(trail)-1].Rules {
		asserts = prefixAsserts(asserts, append(trail[:len(trail):len(trail)], child))
	}
	return asserts
}

// xpath joins rule names with a trailing slash after each step.
func xpath(trail []*template.Rule) string {
	var sb strings.Builder
	for _, r := range trail {
		sb.WriteString(r.Name)
		sb.WriteByte('/')
	}
	return sb.String()
}

// PatternID is the pattern identifier for a usage of t on entity.
func PatternID(entity string, t *template.Template) string {
	return strings.ToLower(entity) + "-" + slug(t.Name)
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}

// BuildView derives the checks for every usage in view. Each exchange
// becomes a phase activating the patterns whose usage is mandatory on
// export for that exchange.
func BuildView(view *concept.View) *Schema {
	s := &Schema{Title: view.Name}
	phases := make(map[*concept.Exchange]int, len(view.Exchanges))
	for _, ex := range view.Exchanges {
		phases[ex] = len(s.Phases)
		s.Phases = append(s.Phases, Phase{ID: slug(ex.Name)})
	}

	for _, root := range view.Roots {
		for _, u := range root.Concepts {
			if u.Definition == nil {
				continue
			}
			pat := Pattern{
				ID:            PatternID(root.Entity, u.Definition),
				Name:          u.Definition.Name,
				Documentation: u.Documentation,
				Rules:         Build(root, u),
			}
			s.Patterns = append(s.Patterns, pat)

			for _, item := range u.Exchanges {
				if item.Applicability != concept.ApplicabilityExport || item.Requirement != concept.RequirementMandatory {
					continue
				}
				if i, ok := phases[item.Exchange]; ok {
					s.Phases[i].Actives = append(s.Phases[i].Actives, pat.ID)
				}
			}
		}
	}
	return s
}
