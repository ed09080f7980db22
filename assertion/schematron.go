package assertion

import (
	"encoding/xml"
	"fmt"
	"io"
)

// SchematronNamespace is the ISO Schematron namespace.
const SchematronNamespace = "http://purl.oclc.org/dsdl/schematron"

type xmlSchema struct {
	XMLName  xml.Name     `xml:"http://purl.oclc.org/dsdl/schematron schema"`
	Title    string       `xml:"title,omitempty"`
	Phases   []xmlPhase   `xml:"phase"`
	Patterns []xmlPattern `xml:"pattern"`
}

type xmlPhase struct {
	ID      string      `xml:"id,attr"`
	Actives []xmlActive `xml:"active"`
}

type xmlActive struct {
	Pattern string `xml:"pattern,attr"`
}

type xmlPattern struct {
	ID    string    `xml:"id,attr"`
	Name  string    `xml:"name,attr,omitempty"`
	P     string    `xml:"p,omitempty"`
	Rules []xmlRule `xml:"rule"`
}

type xmlRule struct {
	Context string      `xml:"context,attr"`
	Asserts []xmlAssert `xml:"assert"`
}

type xmlAssert struct {
	Test string `xml:"test,attr"`
}

// WriteSchematron writes s as an ISO Schematron document.
func WriteSchematron(w io.Writer, s *Schema) error {
	doc := xmlSchema{Title: s.Title}
	for _, ph := range s.Phases {
		x := xmlPhase{ID: ph.ID}
		for _, id := range ph.Actives {
			x.Actives = append(x.Actives, xmlActive{Pattern: id})
		}
		doc.Phases = append(doc.Phases, x)
	}
	for _, pat := range s.Patterns {
		x := xmlPattern{ID: pat.ID, Name: pat.Name, P: pat.Documentation}
		for _, r := range pat.Rules {
			xr := xmlRule{Context: r.Context}
			for _, test := range r.Asserts {
				xr.Asserts = append(xr.Asserts, xmlAssert{Test: test})
			}
			x.Rules = append(x.Rules, xr)
		}
		doc.Patterns = append(doc.Patterns, x)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write schematron: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write schematron: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("write schematron: %w", err)
	}
	return nil
}
