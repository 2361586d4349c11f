package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the scan pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Completed scans by pass (pre, post) and verdict
	Scans *prometheus.CounterVec

	// Risk score distribution by pass
	RiskScore *prometheus.HistogramVec

	// Orchestrator stage latency
	StageLatency *prometheus.HistogramVec

	// Sanitizer outcomes by engine and result (changed, unchanged, error, passthrough)
	SanitizerOutcomes *prometheus.CounterVec

	// Removed constructs by engine and tag
	RemovedConstructs *prometheus.CounterVec

	// Scans answered with the fail-open fallback result
	Fallbacks prometheus.Counter

	// Learned scorer failures by format family
	LearnedErrors *prometheus.CounterVec
}

// New creates a Metrics instance on its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Scans: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docsentry_scans_total",
			Help: "Total completed scans by pass and verdict",
		}, []string{"pass", "verdict"}),

		RiskScore: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docsentry_risk_score",
			Help:    "Distribution of final risk scores by pass",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"pass"}),

		StageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docsentry_stage_duration_seconds",
			Help:    "Duration of orchestrator stages",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"stage"}),

		SanitizerOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docsentry_sanitizer_outcomes_total",
			Help: "Sanitizer outcomes by engine and result",
		}, []string{"engine", "result"}),

		RemovedConstructs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docsentry_removed_constructs_total",
			Help: "Constructs removed by sanitizers",
		}, []string{"engine", "construct"}),

		Fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "docsentry_scan_fallbacks_total",
			Help: "Scans that returned the fallback result after an internal failure",
		}),

		LearnedErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "docsentry_learned_errors_total",
			Help: "Learned scorer failures by format family",
		}, []string{"family"}),
	}
}

// Registry returns the registry holding all collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveScan records a finished scan pass
func (m *Metrics) ObserveScan(pass, verdict string, risk float64) {
	if m != nil {
		m.Scans.WithLabelValues(pass, verdict).Inc()
		m.RiskScore.WithLabelValues(pass).Observe(risk)
	}
}

// ObserveStage records the duration of an orchestrator stage
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// ObserveSanitizer records a sanitizer outcome and its removed constructs
func (m *Metrics) ObserveSanitizer(engine, result string, removed []string) {
	if m == nil {
		return
	}
	m.SanitizerOutcomes.WithLabelValues(engine, result).Inc()
	for _, r := range removed {
		m.RemovedConstructs.WithLabelValues(engine, r).Inc()
	}
}

// IncrementFallback records a fallback scan result
func (m *Metrics) IncrementFallback() {
	if m != nil {
		m.Fallbacks.Inc()
	}
}

// IncrementLearnedError records a learned scorer failure for a format family
func (m *Metrics) IncrementLearnedError(family string) {
	if m != nil {
		m.LearnedErrors.WithLabelValues(family).Inc()
	}
}

// WriteTextfile writes all metrics in the node_exporter textfile format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
