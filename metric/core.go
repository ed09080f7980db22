// Package metric provides the Prometheus metrics recorded by the rule
// engine, the codec and the command line tool. A nil *Metrics is valid and
// records nothing.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mvdkit"

// Metrics contains every collector the toolkit records to.
type Metrics struct {
	Edits              *prometheus.CounterVec
	PropagatedChanges  *prometheus.CounterVec
	RejectedReferences prometheus.Counter
	Diagnostics        *prometheus.CounterVec
	Documents          *prometheus.CounterVec
	DecodeDuration     prometheus.Histogram
}

// NewMetrics creates the collectors without registering them.
func NewMetrics() *Metrics {
	return &Metrics{
		Edits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "editor",
				Name:      "edits_total",
				Help:      "Rule edits by operation and outcome",
			},
			[]string{"op", "status"},
		),

		PropagatedChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "editor",
				Name:      "propagated_changes_total",
				Help:      "Changes applied to sub-templates by propagation",
			},
			[]string{"kind"},
		),

		RejectedReferences: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "editor",
				Name:      "rejected_references_total",
				Help:      "Template references rejected as recursive",
			},
		),

		Diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "diagnostics_total",
				Help:      "Decode diagnostics by kind",
			},
			[]string{"kind"},
		),

		Documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "documents_total",
				Help:      "Documents decoded by outcome",
			},
			[]string{"status"},
		),

		DecodeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "codec",
				Name:      "decode_duration_seconds",
				Help:      "Document decode duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Edits,
		m.PropagatedChanges,
		m.RejectedReferences,
		m.Diagnostics,
		m.Documents,
		m.DecodeDuration,
	}
}

// RecordEdit counts one editor operation.
func (m *Metrics) RecordEdit(op string, err error) {
	if m == nil {
		return
	}
	m.Edits.WithLabelValues(op, status(err)).Inc()
}

// RecordChange counts one propagated change of the given kind.
func (m *Metrics) RecordChange(kind string) {
	if m == nil {
		return
	}
	m.PropagatedChanges.WithLabelValues(kind).Inc()
}

// RecordRejectedReference counts a recursive reference rejection.
func (m *Metrics) RecordRejectedReference() {
	if m == nil {
		return
	}
	m.RejectedReferences.Inc()
}

// RecordDiagnostic counts one decode diagnostic.
func (m *Metrics) RecordDiagnostic(kind string) {
	if m == nil {
		return
	}
	m.Diagnostics.WithLabelValues(kind).Inc()
}

// RecordDecode counts a decoded document and observes its duration.
func (m *Metrics) RecordDecode(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Documents.WithLabelValues(status(err)).Inc()
	m.DecodeDuration.Observe(elapsed.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
