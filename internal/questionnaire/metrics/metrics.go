package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for questionnaire sessions.
type Metrics struct {
	SessionsStarted    *prometheus.CounterVec
	SessionsEnded      *prometheus.CounterVec
	SessionsEvicted    prometheus.Counter
	Transitions        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	SubmitDuration     prometheus.Histogram
	Documents          *prometheus.CounterVec
}

// New registers questionnaire metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "policywriter_sessions_started_total",
			Help: "Questionnaire sessions started, by module selection",
		}, []string{"modules"}),
		SessionsEnded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "policywriter_sessions_ended_total",
			Help: "Questionnaire sessions explicitly ended, by final status",
		}, []string{"status"}),
		SessionsEvicted: f.NewCounter(prometheus.CounterOpts{
			Name: "policywriter_sessions_evicted_total",
			Help: "Idle questionnaire sessions removed by the sweeper",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "policywriter_section_transitions_total",
			Help: "Section navigation by direction and result",
		}, []string{"direction", "result"}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "policywriter_validation_failures_total",
			Help: "Failed section validations by section id",
		}, []string{"section"}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "policywriter_submissions_total",
			Help: "Questionnaire submissions by outcome",
		}, []string{"outcome"}),
		SubmitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "policywriter_submission_duration_seconds",
			Help:    "Time spent handing a questionnaire to the policy backend",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}),
		Documents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "policywriter_document_generations_total",
			Help: "Policy document generations by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncSessionStarted(modules string) {
	if m == nil {
		return
	}
	m.SessionsStarted.WithLabelValues(modules).Inc()
}

func (m *Metrics) IncSessionEnded(status string) {
	if m == nil {
		return
	}
	m.SessionsEnded.WithLabelValues(status).Inc()
}

func (m *Metrics) AddSessionsEvicted(n int) {
	if m == nil {
		return
	}
	m.SessionsEvicted.Add(float64(n))
}

// IncTransition counts a Next or Back call; result is "moved", "blocked" or "stayed".
func (m *Metrics) IncTransition(direction, result string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(direction, result).Inc()
}

func (m *Metrics) IncValidationFailure(section string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(section).Inc()
}

// ObserveSubmission records outcome ("submitted", "invalid", "failed", "rejected") and latency.
func (m *Metrics) ObserveSubmission(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
	if outcome == "submitted" || outcome == "failed" {
		m.SubmitDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncDocument(outcome string) {
	if m == nil {
		return
	}
	m.Documents.WithLabelValues(outcome).Inc()
}
