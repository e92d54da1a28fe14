package guard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records guard decisions and auth checks. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	decisions     *prometheus.CounterVec
	checks        *prometheus.CounterVec
	checkDuration prometheus.Histogram
}

// NewMetrics registers the guard collectors with reg. A nil registerer
// uses the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guard_decisions_total",
			Help: "Total number of route guard decisions",
		}, []string{"guard", "outcome", "reason"}),
		checks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guard_auth_checks_total",
			Help: "Total number of completed auth checks by result",
		}, []string{"result"}),
		checkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "guard_auth_check_duration_seconds",
			Help:    "Histogram of auth check latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordDecision counts a guard outcome
func (m *Metrics) RecordDecision(guardName string, outcome Outcome) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(guardName, outcome.Kind.String(), outcome.Reason).Inc()
}

// RecordCheck records a finished auth check
func (m *Metrics) RecordCheck(duration time.Duration, authenticated bool, err error) {
	if m == nil {
		return
	}

	result := "anonymous"
	switch {
	case err != nil:
		result = "error"
	case authenticated:
		result = "authenticated"
	}

	m.checkDuration.Observe(duration.Seconds())
	m.checks.WithLabelValues(result).Inc()
}
