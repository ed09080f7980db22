package mvdxml

import (
	"errors"
	"fmt"
)

var (
	// ErrNamespace is returned for a document in a namespace that is not
	// an mvdXML namespace.
	ErrNamespace = errors.New("unsupported mvdXML namespace")
)

// DiagnosticKind classifies a recoverable import problem.
type DiagnosticKind int

const (
	// DanglingReference is a uuid reference that resolves to nothing. The
	// edge is dropped.
	DanglingReference DiagnosticKind = iota + 1

	// RecursiveReference is a template reference that would close a cycle.
	// The edge is dropped.
	RecursiveReference

	// InvalidUUID is an identifier that does not parse. A fresh one is
	// assigned.
	InvalidUUID

	// InvalidValue is an enumeration value that is not recognized.
	InvalidValue

	// Duplicate is an identifier already used by another element.
	Duplicate

	// UnknownEntity is an entity name the schema does not define.
	UnknownEntity

	// Unsupported is a construct read but not represented.
	Unsupported
)

var diagnosticNames = map[DiagnosticKind]string{
	DanglingReference:  "dangling_reference",
	RecursiveReference: "recursive_reference",
	InvalidUUID:        "invalid_uuid",
	InvalidValue:       "invalid_value",
	Duplicate:          "duplicate",
	UnknownEntity:      "unknown_entity",
	Unsupported:        "unsupported",
}

func (k DiagnosticKind) String() string {
	if name, ok := diagnosticNames[k]; ok {
		return name
	}
	return fmt.Sprintf("diagnostic(%d)", int(k))
}

// Diagnostic is one recoverable problem found while decoding.
type Diagnostic struct {
	Kind DiagnosticKind

	// Element is the mvdXML element type, e.g. "EntityRule".
	Element string

	// Context names the enclosing template or view.
	Context string

	// Value is the offending identifier or value.
	Value string

	Message string
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s: %s", d.Kind, d.Element)
	if d.Context != "" {
		s += " in " + d.Context
	}
	if d.Value != "" {
		s += fmt.Sprintf(" (%s)", d.Value)
	}
	if d.Message != "" {
		s += ": " + d.Message
	}
	return s
}
