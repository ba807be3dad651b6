// Package metrics counts parsed statements and pushes the counters to a
// Prometheus Pushgateway at the end of a batch run.
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ArionMiles/txextract/pkg/api"
)

// Job is the Pushgateway job name.
const Job = "txextract"

// Statement outcomes.
const (
	OutcomeParsed = "parsed"
	OutcomeFailed = "failed"
)

// Metrics holds the counters on a private registry.
type Metrics struct {
	registry   *prometheus.Registry
	statements *prometheus.CounterVec
	rows       *prometheus.CounterVec
	failures   *prometheus.CounterVec
}

// New creates and registers the counters.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		statements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "txextract_statements_total",
			Help: "Statements processed, by institution and outcome.",
		}, []string{"institution", "outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "txextract_rows_total",
			Help: "Output rows produced, by institution.",
		}, []string{"institution"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "txextract_failures_total",
			Help: "Statement failures, by error kind.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(m.statements, m.rows, m.failures)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Parsed records a statement that produced rows.
func (m *Metrics) Parsed(institution string, rows int) {
	m.statements.WithLabelValues(institution, OutcomeParsed).Inc()
	m.rows.WithLabelValues(institution).Add(float64(rows))
}

// Failed records a statement that was rejected. Errors that are not parse
// failures (OCR, I/O) are counted under kind "unknown".
func (m *Metrics) Failed(institution string, err error) {
	m.statements.WithLabelValues(institution, OutcomeFailed).Inc()
	m.failures.WithLabelValues(api.KindOf(err).String()).Inc()
}

// Push sends the counters to the Pushgateway at url. An empty url is a no-op.
func (m *Metrics) Push(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, Job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to %s: %w", url, err)
	}
	return nil
}
