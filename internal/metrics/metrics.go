// Package metrics records Prometheus metrics for expansion runs.
//
// The CLI is a one-shot process, so metrics are collected in a private
// registry and written out in the node_exporter textfile format rather
// than served over HTTP.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for template expansion.
type Metrics struct {
	registry *prometheus.Registry

	// Runs by outcome: "ok" or "error"
	Runs *prometheus.CounterVec

	// Errors by expansion error code
	Errors *prometheus.CounterVec

	// Output statements across all runs
	Statements prometheus.Counter

	// Instantiation batches rewritten across all runs
	Batches prometheus.Counter

	// Link groups per template
	Groups prometheus.Histogram

	// Wall time of a full expansion
	Duration prometheus.Histogram
}

// New creates a Metrics instance with all expansion metrics registered in
// a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "provtmpl_expansion_runs_total",
			Help: "Total expansion runs by outcome",
		}, []string{"outcome"}),

		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "provtmpl_expansion_errors_total",
			Help: "Total failed expansions by error code",
		}, []string{"code"}),

		Statements: factory.NewCounter(prometheus.CounterOpts{
			Name: "provtmpl_output_statements_total",
			Help: "Total statements emitted by successful expansions",
		}),

		Batches: factory.NewCounter(prometheus.CounterOpts{
			Name: "provtmpl_instantiation_batches_total",
			Help: "Total instantiation batches rewritten",
		}),

		Groups: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "provtmpl_template_groups",
			Help:    "Number of link groups per expanded template",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),

		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "provtmpl_expansion_duration_seconds",
			Help:    "Duration of template expansion including planning and rewriting",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
	}
}

// ObserveSuccess records a successful run.
func (m *Metrics) ObserveSuccess(statements, batches, groups int, d time.Duration) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues("ok").Inc()
	m.Statements.Add(float64(statements))
	m.Batches.Add(float64(batches))
	m.Groups.Observe(float64(groups))
	m.Duration.Observe(d.Seconds())
}

// ObserveFailure records a failed run with its error code.
func (m *Metrics) ObserveFailure(code string, d time.Duration) {
	if m == nil {
		return
	}
	if code == "" {
		code = "UNKNOWN"
	}
	m.Runs.WithLabelValues("error").Inc()
	m.Errors.WithLabelValues(code).Inc()
	m.Duration.Observe(d.Seconds())
}

// Gatherer exposes the private registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteFile writes all metrics to path in the textfile collector format.
// The file is written atomically.
func (m *Metrics) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
