package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the law module.
type Metrics struct {
	// Overall protocol evaluation latency
	EvaluateLatency prometheus.Histogram

	// Protocols by outcome: "active" or "fallback"
	ProtocolOutcome *prometheus.CounterVec

	// Rules seen per status across evaluations
	RuleStatus *prometheus.CounterVec

	// Observance writes by result: "recorded", "conflict", "error"
	ObservanceResult *prometheus.CounterVec

	// Catalog reloads by result: "ok", "rejected"
	CatalogReloads *prometheus.CounterVec

	// Rules in the published catalog
	CatalogRules prometheus.Gauge
}

// New creates a Metrics instance registered with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EvaluateLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "altar_law_evaluate_duration_seconds",
			Help:    "Duration of daily protocol evaluation",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		}),

		ProtocolOutcome: f.NewCounterVec(prometheus.CounterOpts{
			Name: "altar_law_protocols_total",
			Help: "Total protocols evaluated by outcome",
		}, []string{"outcome"}),

		RuleStatus: f.NewCounterVec(prometheus.CounterOpts{
			Name: "altar_law_rule_status_total",
			Help: "Total rules resolved per status across evaluations",
		}, []string{"status"}),

		ObservanceResult: f.NewCounterVec(prometheus.CounterOpts{
			Name: "altar_law_observances_total",
			Help: "Total observance writes by result",
		}, []string{"result"}),

		CatalogReloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "altar_law_catalog_reloads_total",
			Help: "Total catalog reload attempts by result",
		}, []string{"result"}),

		CatalogRules: f.NewGauge(prometheus.GaugeOpts{
			Name: "altar_law_catalog_rules",
			Help: "Number of rules in the published catalog",
		}),
	}
}

// ObserveEvaluateLatency records the duration of one evaluation.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// IncrementProtocol records a protocol outcome and its status counts.
func (m *Metrics) IncrementProtocol(fallback bool, active, training, dormant, inactive int) {
	if m == nil {
		return
	}
	outcome := "active"
	if fallback {
		outcome = "fallback"
	}
	m.ProtocolOutcome.WithLabelValues(outcome).Inc()
	m.RuleStatus.WithLabelValues("active").Add(float64(active))
	m.RuleStatus.WithLabelValues("training").Add(float64(training))
	m.RuleStatus.WithLabelValues("dormant").Add(float64(dormant))
	m.RuleStatus.WithLabelValues("inactive").Add(float64(inactive))
}

// IncrementObservance records an observance write result.
func (m *Metrics) IncrementObservance(result string) {
	if m != nil {
		m.ObservanceResult.WithLabelValues(result).Inc()
	}
}

// RecordCatalogReload records a reload attempt and, on success, the new size.
func (m *Metrics) RecordCatalogReload(ok bool, rules int) {
	if m == nil {
		return
	}
	if !ok {
		m.CatalogReloads.WithLabelValues("rejected").Inc()
		return
	}
	m.CatalogReloads.WithLabelValues("ok").Inc()
	m.CatalogRules.Set(float64(rules))
}

// SetCatalogRules records the size of the published catalog.
func (m *Metrics) SetCatalogRules(n int) {
	if m != nil {
		m.CatalogRules.Set(float64(n))
	}
}
