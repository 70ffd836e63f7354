// Package metrics provides Prometheus metrics export for the answer
// pipeline.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Answer outcomes recorded by RecordAnswer.
const (
	OutcomeCacheHit  = "cache_hit"
	OutcomeGenerated = "generated"
	OutcomeDegraded  = "degraded"
	OutcomeError     = "error"
)

// PrometheusExporter exports answer pipeline metrics in Prometheus format.
type PrometheusExporter struct {
	registry *prometheus.Registry

	// Answer metrics
	answerLatency  *prometheus.HistogramVec
	answerRequests *prometheus.CounterVec
	answersActive  prometheus.Gauge

	// Retrieval metrics
	retrievalLatency  *prometheus.HistogramVec
	retrievalFailures *prometheus.CounterVec

	// Semantic cache metrics
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheEvictions *prometheus.CounterVec

	// LLM metrics
	llmTokensUsed *prometheus.CounterVec
	llmLatency    *prometheus.HistogramVec
}

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one)
	Registry *prometheus.Registry

	// Buckets for latency histograms (in seconds)
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{
		registry: registry,
	}

	// Answer metrics
	e.answerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wayfarer",
			Subsystem: "rag",
			Name:      "answer_latency_seconds",
			Help:      "End-to-end answer latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"outcome"},
	)

	e.answerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wayfarer",
			Subsystem: "rag",
			Name:      "answer_requests_total",
			Help:      "Total number of answer requests",
		},
		[]string{"outcome"},
	)

	e.answersActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wayfarer",
			Subsystem: "rag",
			Name:      "answers_active",
			Help:      "Number of answer requests currently in flight",
		},
	)

	// Retrieval metrics
	e.retrievalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wayfarer",
			Subsystem: "rag",
			Name:      "retrieval_latency_seconds",
			Help:      "Retrieval branch latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"source"},
	)

	e.retrievalFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wayfarer",
			Subsystem: "rag",
			Name:      "retrieval_failures_total",
			Help:      "Total number of failed retrieval branches",
		},
		[]string{"source", "kind"},
	)

	// Semantic cache metrics
	e.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wayfarer",
			Subsystem: "rag",
			Name:      "cache_hits_total",
			Help:      "Total number of semantic cache hits",
		},
		[]string{"backend"},
	)

	e.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wayfarer",
			Subsystem: "rag",
			Name:      "cache_misses_total",
			Help:      "Total number of semantic cache misses",
		},
		[]string{"backend"},
	)

	e.cacheEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wayfarer",
			Subsystem: "rag",
			Name:      "cache_evictions_total",
			Help:      "Total number of semantic cache entries evicted",
		},
		[]string{"backend"},
	)

	// LLM metrics
	e.llmTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wayfarer",
			Subsystem: "rag",
			Name:      "llm_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "token_type"},
	)

	e.llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wayfarer",
			Subsystem: "rag",
			Name:      "llm_latency_seconds",
			Help:      "LLM request latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"model", "provider"},
	)

	registry.MustRegister(
		e.answerLatency,
		e.answerRequests,
		e.answersActive,
		e.retrievalLatency,
		e.retrievalFailures,
		e.cacheHits,
		e.cacheMisses,
		e.cacheEvictions,
		e.llmTokensUsed,
		e.llmLatency,
	)

	return e
}

// RecordAnswer records a completed answer request.
func (e *PrometheusExporter) RecordAnswer(outcome string, latency time.Duration) {
	e.answerRequests.WithLabelValues(outcome).Inc()
	e.answerLatency.WithLabelValues(outcome).Observe(latency.Seconds())
}

// AnswerStarted marks one answer request as in flight.
func (e *PrometheusExporter) AnswerStarted() {
	e.answersActive.Inc()
}

// AnswerFinished marks one answer request as done.
func (e *PrometheusExporter) AnswerFinished() {
	e.answersActive.Dec()
}

// RecordRetrieval records the latency of one retrieval branch.
func (e *PrometheusExporter) RecordRetrieval(source string, latency time.Duration) {
	e.retrievalLatency.WithLabelValues(source).Observe(latency.Seconds())
}

// RecordRetrievalFailure records a failed retrieval branch.
func (e *PrometheusExporter) RecordRetrievalFailure(source, kind string) {
	e.retrievalFailures.WithLabelValues(source, kind).Inc()
}

// RecordCacheHit records a semantic cache hit.
func (e *PrometheusExporter) RecordCacheHit(backend string) {
	e.cacheHits.WithLabelValues(backend).Inc()
}

// RecordCacheMiss records a semantic cache miss.
func (e *PrometheusExporter) RecordCacheMiss(backend string) {
	e.cacheMisses.WithLabelValues(backend).Inc()
}

// RecordCacheEvictions records evicted semantic cache entries.
func (e *PrometheusExporter) RecordCacheEvictions(backend string, count int64) {
	e.cacheEvictions.WithLabelValues(backend).Add(float64(count))
}

// RecordLLMTokens records LLM token usage.
func (e *PrometheusExporter) RecordLLMTokens(model, tokenType string, count int) {
	e.llmTokensUsed.WithLabelValues(model, tokenType).Add(float64(count))
}

// RecordLLMLatency records LLM request latency.
func (e *PrometheusExporter) RecordLLMLatency(model, provider string, latency time.Duration) {
	e.llmLatency.WithLabelValues(model, provider).Observe(latency.Seconds())
}

// GetHandler returns the HTTP handler for Prometheus metrics.
func (e *PrometheusExporter) GetHandler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP implements http.Handler for the metrics endpoint.
func (e *PrometheusExporter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.GetHandler().ServeHTTP(w, r)
}

// GetRegistry returns the Prometheus registry.
func (e *PrometheusExporter) GetRegistry() *prometheus.Registry {
	return e.registry
}

// Snapshot captures a snapshot of all metrics for debugging.
func (e *PrometheusExporter) Snapshot() map[string]interface{} {
	snapshot := make(map[string]interface{})
	snapshot["timestamp"] = time.Now().Unix()
	gatherResult, err := e.registry.Gather()
	if err != nil {
		slog.Error("failed to gather metrics", "error", err)
	}
	snapshot["registry"] = gatherResult

	return snapshot
}
