package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementProtocol(false, 3, 1, 2, 4)
	m.IncrementProtocol(true, 0, 1, 0, 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProtocolOutcome.WithLabelValues("active")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProtocolOutcome.WithLabelValues("fallback")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RuleStatus.WithLabelValues("training")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RuleStatus.WithLabelValues("inactive")))

	m.IncrementObservance("conflict")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ObservanceResult.WithLabelValues("conflict")))

	m.RecordCatalogReload(true, 75)
	m.RecordCatalogReload(false, 0)
	assert.Equal(t, 75.0, testutil.ToFloat64(m.CatalogRules))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CatalogReloads.WithLabelValues("rejected")))

	m.ObserveEvaluateLatency(time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(m.EvaluateLatency))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveEvaluateLatency(time.Second)
		m.IncrementProtocol(true, 0, 0, 0, 0)
		m.IncrementObservance("recorded")
		m.RecordCatalogReload(true, 1)
		m.SetCatalogRules(1)
	})
}
