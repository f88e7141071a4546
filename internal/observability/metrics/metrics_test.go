package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestObserveProviderCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCoreMetrics(reg)

	m.ObserveProviderCall("local-risk", "ok", 0.02)
	m.ObserveProviderCall("local-risk", "ok", 0.04)
	m.ObserveProviderCall("bedrock-differential", "timeout", 8.0)

	mf := gather(t, reg, "carelink_council_provider_calls_total")
	require.NotNil(t, mf)

	total := 0.0
	for _, metric := range mf.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	assert.Equal(t, 3.0, total)

	latency := gather(t, reg, "carelink_council_provider_latency_seconds")
	require.NotNil(t, latency)
}

func TestObserveDecision(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCoreMetrics(reg)

	m.ObserveDecision("reports", "lock", true)
	m.ObserveDecision("reports", "lock", false)

	mf := gather(t, reg, "carelink_access_decisions_total")
	require.NotNil(t, mf)
	assert.Len(t, mf.GetMetric(), 2, "granted and denied tracked separately")
}

func TestObserveLockConflict(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCoreMetrics(reg)

	m.ObserveLockConflict()
	m.ObserveLockConflict()

	mf := gather(t, reg, "carelink_reports_lock_conflicts_total")
	require.NotNil(t, mf)
	require.Len(t, mf.GetMetric(), 1)
	assert.Equal(t, 2.0, mf.GetMetric()[0].GetCounter().GetValue())
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *CoreMetrics
	m.ObserveProviderCall("x", "ok", 1)
	m.ObserveDecision("r", "a", true)
	m.ObserveLockConflict()
}
