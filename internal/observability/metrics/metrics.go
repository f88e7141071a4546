package metrics

import "github.com/prometheus/client_golang/prometheus"

// CoreMetrics exposes counters/histograms for the decision-support core.
type CoreMetrics struct {
	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	accessDecisions *prometheus.CounterVec
	lockConflicts   prometheus.Counter
}

func NewCoreMetrics(reg prometheus.Registerer) *CoreMetrics {
	m := &CoreMetrics{
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carelink",
			Subsystem: "council",
			Name:      "provider_calls_total",
			Help:      "Total inference provider calls by settlement status",
		}, []string{"provider", "status"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carelink",
			Subsystem: "council",
			Name:      "provider_latency_seconds",
			Help:      "Latency of inference provider calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		accessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carelink",
			Subsystem: "access",
			Name:      "decisions_total",
			Help:      "Total access control decisions",
		}, []string{"resource", "action", "decision"}),
		lockConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "carelink",
			Subsystem: "reports",
			Name:      "lock_conflicts_total",
			Help:      "Concurrent report mutations that lost the per-report race",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.providerCalls, m.providerLatency, m.accessDecisions, m.lockConflicts)
	return m
}

// ObserveProviderCall satisfies the council orchestrator's Metrics hook.
func (m *CoreMetrics) ObserveProviderCall(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, status).Inc()
	m.providerLatency.WithLabelValues(provider).Observe(seconds)
}

// ObserveDecision satisfies the access engine's Observer hook.
func (m *CoreMetrics) ObserveDecision(resource, action string, granted bool) {
	if m == nil {
		return
	}
	decision := "denied"
	if granted {
		decision = "granted"
	}
	m.accessDecisions.WithLabelValues(resource, action, decision).Inc()
}

// ObserveLockConflict counts a lost lock race.
func (m *CoreMetrics) ObserveLockConflict() {
	if m == nil {
		return
	}
	m.lockConflicts.Inc()
}
