// Package mvdxml reads and writes model view definitions in the mvdXML 1.1
// interchange format.
//
// Decoding builds a project in two passes: every template and rule is
// constructed first, then template references and concept bindings are
// resolved by UUID. References that cannot be resolved, or that would make
// a template reach itself, are dropped and reported as diagnostics; the rest
// of the document still loads.
package mvdxml

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/c360studio/mvdkit/metric"
	"github.com/c360studio/mvdkit/project"
	"github.com/c360studio/mvdkit/schema"
)

// Option configures Decode and Encode.
type Option func(*codec)

type codec struct {
	logger  *slog.Logger
	metrics *metric.Metrics
	schema  *schema.Index
	keep    func(uuid.UUID) bool
}

func newCodec(opts []Option) *codec {
	c := &codec{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithLogger sets the logger diagnostics are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(c *codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records decode outcomes and diagnostics.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *codec) {
		c.metrics = m
	}
}

// WithSchema checks applicable entity names against ix while decoding.
// Concept roots bound to an unknown entity are dropped.
func WithSchema(ix *schema.Index) Option {
	return func(c *codec) {
		c.schema = ix
	}
}

// WithFilter restricts Encode to the templates and views for which keep
// returns true. Sub-templates are filtered individually.
func WithFilter(keep func(id uuid.UUID) bool) Option {
	return func(c *codec) {
		c.keep = keep
	}
}

func (c *codec) included(id uuid.UUID) bool {
	return c.keep == nil || c.keep(id)
}

// Result is a decoded document.
type Result struct {
	Project     *project.Project
	Diagnostics []Diagnostic
}

// DecodeFile decodes the mvdXML document at path.
func DecodeFile(path string, opts ...Option) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mvdXML document: %w", err)
	}
	defer f.Close()
	return Decode(f, opts...)
}

// EncodeFile writes p to path as an mvdXML document.
func EncodeFile(path string, p *project.Project, opts ...Option) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mvdXML document: %w", err)
	}
	if err := Encode(f, p, opts...); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close mvdXML document: %w", err)
	}
	return nil
}
