package collaborator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records backend call latency and breaker transitions.
type Metrics struct {
	CallDuration       *prometheus.HistogramVec
	BreakerTransitions *prometheus.CounterVec
}

// NewMetrics registers collaborator metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		CallDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "policywriter_collaborator_call_duration_seconds",
			Help:    "Policy backend call latency by operation and outcome",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"operation", "outcome"}),
		BreakerTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "policywriter_collaborator_breaker_transitions_total",
			Help: "Circuit breaker transitions by operation group and new state",
		}, []string{"group", "state"}),
	}
}

func (m *Metrics) observeCall(op Operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.CallDuration.WithLabelValues(string(op), outcome).Observe(d.Seconds())
}

func (m *Metrics) incBreaker(group, state string) {
	if m == nil {
		return
	}
	m.BreakerTransitions.WithLabelValues(group, state).Inc()
}
