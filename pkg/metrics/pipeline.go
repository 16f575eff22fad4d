package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pdf_summarizer"

// Outcome labels shared by the pipeline collectors.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Pipeline exports summarization pipeline metrics to Prometheus.
// A nil *Pipeline is valid and records nothing.
type Pipeline struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	requestTime   *prometheus.HistogramVec
	stageTime     *prometheus.HistogramVec
	stageFailures *prometheus.CounterVec
	historyWrites *prometheus.CounterVec
	tokens        *prometheus.CounterVec
}

// Config configures the exporter.
type Config struct {
	// Registry to use; a private registry is created when nil.
	Registry *prometheus.Registry
	// LatencyBuckets in seconds.
	LatencyBuckets []float64
}

// DefaultConfig returns buckets sized for multi-second generation calls.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 20, 30, 60, 90},
	}
}

// NewPipeline registers the pipeline collectors.
func NewPipeline(cfg Config) *Pipeline {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}
	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	p := &Pipeline{registry: registry}

	p.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "requests_total",
			Help:      "Summarization requests by input kind and result code",
		},
		[]string{"kind", "code"},
	)
	p.requestTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "request_duration_seconds",
			Help:      "End to end summarization latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"kind"},
	)
	p.stageTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Latency of individual pipeline stages in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
		[]string{"stage"},
	)
	p.stageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_failures_total",
			Help:      "Pipeline stage failures by error code",
		},
		[]string{"stage", "code"},
	)
	p.historyWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "writes_total",
			Help:      "History record writes by outcome",
		},
		[]string{"action", "outcome"},
	)
	p.tokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "tokens_total",
			Help:      "Tokens reported by the generation backend",
		},
		[]string{"model", "type"},
	)

	registry.MustRegister(p.requests, p.requestTime, p.stageTime, p.stageFailures, p.historyWrites, p.tokens)
	return p
}

// ObserveRequest records one finished pipeline run. code is empty on success.
func (p *Pipeline) ObserveRequest(kind, code string, latency time.Duration) {
	if p == nil {
		return
	}
	if code == "" {
		code = OutcomeOK
	}
	p.requests.WithLabelValues(kind, code).Inc()
	p.requestTime.WithLabelValues(kind).Observe(latency.Seconds())
}

// ObserveStage records a stage latency and, when code is set, a failure.
func (p *Pipeline) ObserveStage(stage, code string, latency time.Duration) {
	if p == nil {
		return
	}
	p.stageTime.WithLabelValues(stage).Observe(latency.Seconds())
	if code != "" {
		p.stageFailures.WithLabelValues(stage, code).Inc()
	}
}

// ObserveHistoryWrite counts a history append attempt.
func (p *Pipeline) ObserveHistoryWrite(action string, ok bool) {
	if p == nil {
		return
	}
	outcome := OutcomeOK
	if !ok {
		outcome = OutcomeFailed
	}
	p.historyWrites.WithLabelValues(action, outcome).Inc()
}

// ObserveTokens records token usage for a model.
func (p *Pipeline) ObserveTokens(model string, usage TokenUsage) {
	if p == nil || usage.IsZero() {
		return
	}
	p.tokens.WithLabelValues(model, "prompt").Add(float64(usage.PromptTokens))
	p.tokens.WithLabelValues(model, "completion").Add(float64(usage.CompletionTokens))
}

// Handler serves the registry in the Prometheus text format.
func (p *Pipeline) Handler() http.Handler {
	if p == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (p *Pipeline) Registry() *prometheus.Registry {
	if p == nil {
		return nil
	}
	return p.registry
}
