// Package middleware provides cross-cutting concerns for the classification
// engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/docketlabs/go-docket/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It exposes LLM traffic, per-stage latency, and judgment
// outcome metrics for the classification engine.
type PrometheusMetrics struct {
	llmRequests   *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
	llmTokens     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	judgments     *prometheus.CounterVec
	gauges        *prometheus.GaugeVec
}

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// all metrics in the given registerer. Pass prometheus.DefaultRegisterer
// for the global registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		llmRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total LLM requests by provider, model, and status.",
			},
			[]string{"provider", "model", "status"},
		),
		llmLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_latency_seconds",
				Help:    "LLM request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model", "status"},
		),
		llmTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Tokens consumed across all LLM interactions.",
			},
			[]string{"provider", "model", "token_type"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "classification_stage_duration_seconds",
				Help:    "Execution time of workflow stages.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		judgments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "classification_judgments_total",
				Help: "Judgments produced, by confidence tier and outcome.",
			},
			[]string{"tier", "status"},
		),
		gauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "classification_engine_info",
				Help: "Engine-level gauge values.",
			},
			[]string{"metric"},
		),
	}
}

// RecordLatency records the execution time of an operation as a histogram
// sample under the stage duration metric.
func (p *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, _ map[string]string) {
	p.stageDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCounter increments a counter metric. Unknown metric names are
// dropped; the exported metric set is fixed at construction.
func (p *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "llm_requests_total":
		p.llmRequests.WithLabelValues(labels["provider"], labels["model"], labels["status"]).Add(value)
	case "llm_tokens_total":
		p.llmTokens.WithLabelValues(labels["provider"], labels["model"], labels["token_type"]).Add(value)
	case "classification_judgments_total":
		p.judgments.WithLabelValues(labels["tier"], labels["status"]).Add(value)
	}
}

// RecordGauge sets the current value of a gauge metric.
func (p *PrometheusMetrics) RecordGauge(metric string, value float64, _ map[string]string) {
	p.gauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram records a value in a histogram metric.
func (p *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	switch metric {
	case "llm_latency_seconds":
		p.llmLatency.WithLabelValues(labels["provider"], labels["model"], labels["status"]).Observe(value)
	case "classification_stage_duration_seconds":
		p.stageDuration.WithLabelValues(labels["stage"]).Observe(value)
	}
}
