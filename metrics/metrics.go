// Package metrics holds the Prometheus collectors shared by ingestion,
// evaluation and synthesis.
//
// The CLI is a batch tool, so metrics are not served over HTTP. They are
// gathered from a private registry and, when a path is configured, written in
// the node_exporter textfile format at the end of each command.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion outcomes.
const (
	OutcomeIngested = "ingested"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Evaluation outcomes.
const (
	OutcomePersisted = "persisted"
	OutcomeDuplicate = "duplicate"
)

// Metrics holds Prometheus metrics for a pedagogue process.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion
	FilesTotal    *prometheus.CounterVec
	SectionsTotal prometheus.Counter

	// Evaluation
	ProviderCallsTotal *prometheus.CounterVec
	SectionsEvaluated  *prometheus.CounterVec
	ProviderDuration   *prometheus.HistogramVec

	// Synthesis
	SynthesesTotal *prometheus.CounterVec
}

// New creates metrics registered on a fresh registry.
//
// Metrics:
//   - pedagogue_ingest_files_total{outcome} - PDF files by ingestion outcome
//   - pedagogue_ingest_sections_total - sections written by ingestion
//   - pedagogue_provider_calls_total{provider,kind} - provider calls by result kind ("ok" or a failure kind)
//   - pedagogue_sections_evaluated_total{model,outcome} - sections by evaluation outcome
//   - pedagogue_provider_call_duration_seconds{provider} - provider call latency
//   - pedagogue_syntheses_total{outcome} - course syntheses by outcome
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		FilesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pedagogue_ingest_files_total",
				Help: "Total number of PDF files processed by ingestion",
			},
			[]string{"outcome"},
		),

		SectionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pedagogue_ingest_sections_total",
				Help: "Total number of sections written by ingestion",
			},
		),

		ProviderCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pedagogue_provider_calls_total",
				Help: "Total number of evaluation provider calls",
			},
			[]string{"provider", "kind"},
		),

		SectionsEvaluated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pedagogue_sections_evaluated_total",
				Help: "Total number of sections by evaluation outcome",
			},
			[]string{"model", "outcome"},
		),

		ProviderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pedagogue_provider_call_duration_seconds",
				Help:    "Duration of evaluation provider calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 250ms to ~2m
			},
			[]string{"provider"},
		),

		SynthesesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pedagogue_syntheses_total",
				Help: "Total number of course syntheses by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Gatherer returns the registry holding every metric.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// RecordFile records the ingestion outcome of one file.
func (m *Metrics) RecordFile(outcome string, sections int) {
	if m == nil {
		return
	}
	m.FilesTotal.WithLabelValues(outcome).Inc()
	m.SectionsTotal.Add(float64(sections))
}

// RecordProviderCall records one provider call. kind is "ok" on success.
func (m *Metrics) RecordProviderCall(provider, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProviderCallsTotal.WithLabelValues(provider, kind).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// RecordSection records the evaluation outcome of one section.
func (m *Metrics) RecordSection(model, outcome string) {
	if m == nil {
		return
	}
	m.SectionsEvaluated.WithLabelValues(model, outcome).Inc()
}

// RecordSynthesis records the outcome of one course synthesis.
func (m *Metrics) RecordSynthesis(outcome string) {
	if m == nil {
		return
	}
	m.SynthesesTotal.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes every metric to path in the Prometheus text format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
