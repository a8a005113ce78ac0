package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the risk-decision steps.
type Metrics struct {
	// Remote call latencies by operation (risk, filter, log, approve_device)
	RemoteCallLatency *prometheus.HistogramVec

	// Remote call failures by operation and class (recoverable, fatal)
	RemoteCallFailures *prometheus.CounterVec

	// Fallback verdicts synthesized, by failover strategy
	FallbackVerdicts *prometheus.CounterVec

	// Decision step outcomes by step and outcome
	StepOutcome *prometheus.CounterVec
}

// New creates a Metrics instance with all step metrics registered.
func New() *Metrics {
	return &Metrics{
		RemoteCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "riskgate_castle_call_duration_seconds",
			Help:    "Duration of calls to the remote risk service by operation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation"}),

		RemoteCallFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgate_castle_call_failures_total",
			Help: "Total remote risk service failures by operation and class",
		}, []string{"operation", "class"}),

		FallbackVerdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgate_fallback_verdicts_total",
			Help: "Total verdicts synthesized by the failover policy, by strategy",
		}, []string{"strategy"}),

		StepOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "riskgate_step_outcomes_total",
			Help: "Total step outcomes by step name and outcome",
		}, []string{"step", "outcome"}),
	}
}

// ObserveRemoteCall records the duration of one remote call.
func (m *Metrics) ObserveRemoteCall(operation string, d time.Duration) {
	if m != nil {
		m.RemoteCallLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// IncrementFailure records a classified remote call failure.
func (m *Metrics) IncrementFailure(operation, class string) {
	if m != nil {
		m.RemoteCallFailures.WithLabelValues(operation, class).Inc()
	}
}

// IncrementFallback records a synthesized fallback verdict.
func (m *Metrics) IncrementFallback(strategy string) {
	if m != nil {
		m.FallbackVerdicts.WithLabelValues(strategy).Inc()
	}
}

// IncrementOutcome records a step outcome.
func (m *Metrics) IncrementOutcome(step, outcome string) {
	if m != nil {
		m.StepOutcome.WithLabelValues(step, outcome).Inc()
	}
}
