package concept

import (
	"errors"
	"fmt"
	"strings"

	"github.com/c360studio/mvdkit/template"
)

// Usage instantiates one template for a concept root.
type Usage struct {
	template.Identity

	// Definition is the instantiated template.
	Definition *template.Template

	// Override replaces the usage inherited for the same template.
	Override bool

	// Suppress hides the usage inherited for the same template.
	Suppress bool

	Operator  Operator
	Items     []*Item
	Exchanges []*ExchangeItem
}

// NewUsage creates a usage of t with a fresh UUID.
func NewUsage(t *template.Template) *Usage {
	u := &Usage{Identity: template.NewIdentity(""), Definition: t}
	if t != nil {
		u.Name = t.Name
	}
	return u
}

// Requirement returns the requirement the usage sets for an exchange and
// direction.
func (u *Usage) Requirement(ex *Exchange, a Applicability) (Requirement, bool) {
	for _, item := range u.Exchanges {
		if item.Exchange == ex && item.Applicability == a {
			return item.Requirement, true
		}
	}
	return 0, false
}

// SetRequirement records the requirement for an exchange and direction,
// replacing an earlier one.
func (u *Usage) SetRequirement(ex *Exchange, a Applicability, r Requirement) {
	for _, item := range u.Exchanges {
		if item.Exchange == ex && item.Applicability == a {
			item.Requirement = r
			return
		}
	}
	u.Exchanges = append(u.Exchanges, &ExchangeItem{Exchange: ex, Applicability: a, Requirement: r})
}

// ClearRequirement removes the requirement for an exchange and direction.
func (u *Usage) ClearRequirement(ex *Exchange, a Applicability) bool {
	for i, item := range u.Exchanges {
		if item.Exchange == ex && item.Applicability == a {
			u.Exchanges = append(u.Exchanges[:i], u.Exchanges[i+1:]...)
			return true
		}
	}
	return false
}

// Item is one row of parameter values binding a usage's template.
type Item struct {
	RuleID        string
	Documentation string

	// Parameters is the flat parameter string, e.g.
	// "PsetName[Value]='Pset_WallCommon';" or "PropertyName=IsExternal".
	Parameters string

	// Concepts are nested usages scoped to this item.
	Concepts []*Usage
}

// Parameter is one key/value pair of an item's parameter string.
type Parameter struct {
	Key   string
	Value string
}

// ParameterList splits the parameter string into ordered pairs.
func (it *Item) ParameterList() []Parameter {
	var out []Parameter
	for _, part := range splitParameters(it.Parameters) {
		i := strings.IndexAny(part, ":=")
		if i < 0 {
			continue
		}
		key := strings.TrimSpace(part[:i])
		key = strings.TrimSuffix(key, "[Value]")
		if key == "" {
			continue
		}
		out = append(out, Parameter{Key: key, Value: unquote(strings.TrimSpace(part[i+1:]))})
	}
	return out
}

// ParameterValue returns the value bound to the parameter slot id.
func (it *Item) ParameterValue(id string) (string, bool) {
	for _, p := range it.ParameterList() {
		if p.Key == id {
			return p.Value, true
		}
	}
	return "", false
}

// ErrUnquotable is returned for a parameter value holding both quote
// characters, which the parameter string cannot represent.
var ErrUnquotable = errors.New("parameter value contains both quote characters")

// SetParameterValue binds value to id, keeping the order of the other
// parameters. The string is rewritten in key=value; form. Values are quoted
// with whichever quote character they do not contain.
func (it *Item) SetParameterValue(id, value string) error {
	params := it.ParameterList()
	found := false
	for i := range params {
		if params[i].Key == id {
			params[i].Value = value
			found = true
			break
		}
	}
	if !found {
		params = append(params, Parameter{Key: id, Value: value})
	}

	var sb strings.Builder
	for _, p := range params {
		v, err := quoteValue(p.Value)
		if err != nil {
			return fmt.Errorf("set parameter %s: %w", p.Key, err)
		}
		sb.WriteString(p.Key)
		sb.WriteByte('=')
		sb.WriteString(v)
		sb.WriteByte(';')
	}
	it.Parameters = sb.String()
	return nil
}

func quoteValue(v string) (string, error) {
	if !strings.ContainsAny(v, ",;:='\" ") {
		return v, nil
	}
	switch {
	case !strings.ContainsRune(v, '\''):
		return "'" + v + "'", nil
	case !strings.ContainsRune(v, '"'):
		return `"` + v + `"`, nil
	}
	return "", ErrUnquotable
}

// splitParameters splits on ',' and ';' outside quotes.
func splitParameters(s string) []string {
	var parts []string
	var quote rune
	start := 0
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == ',' || r == ';':
			if part := strings.TrimSpace(s[start:i]); part != "" {
				parts = append(parts, part)
			}
			start = i + 1
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
