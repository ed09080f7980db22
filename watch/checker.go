package watch

import (
	"context"
	"log/slog"

	"github.com/c360studio/mvdkit/mvdxml"
)

// Report is the outcome of re-checking one changed document.
type Report struct {
	Event       Event
	Diagnostics []mvdxml.Diagnostic
	Err         error
}

// Checker decodes documents named by watch events.
type Checker struct {
	logger *slog.Logger
	opts   []mvdxml.Option
}

// NewChecker creates a checker that decodes with opts.
func NewChecker(logger *slog.Logger, opts ...mvdxml.Option) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{logger: logger, opts: opts}
}

// Check decodes the document an event refers to. Delete events produce an
// empty report.
func (c *Checker) Check(event Event) Report {
	r := Report{Event: event}
	if event.Operation == OpDelete {
		c.logger.Info("Document removed", "path", event.Path)
		return r
	}

	res, err := mvdxml.DecodeFile(event.AbsPath, c.opts...)
	if err != nil {
		r.Err = err
		c.logger.Error("Document check failed", "path", event.Path, "error", err)
		return r
	}
	r.Diagnostics = res.Diagnostics
	c.logger.Info("Document checked",
		"path", event.Path,
		"op", event.Operation,
		"diagnostics", len(res.Diagnostics))
	return r
}

// Run checks every event until events is closed or ctx is done, passing
// each report to fn.
func (c *Checker) Run(ctx context.Context, events <-chan Event, fn func(Report)) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			r := c.Check(event)
			if fn != nil {
				fn(r)
			}
		}
	}
}
