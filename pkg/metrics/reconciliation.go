package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconciliationMetrics records how payment claims were resolved.
type ReconciliationMetrics struct {
	outcomes       *prometheus.CounterVec
	oversold       prometheus.Counter
	verifyDuration *prometheus.HistogramVec
}

// NewReconciliationMetrics registers the reconciliation metrics on the
// provided registerer.
func NewReconciliationMetrics(reg prometheus.Registerer) *ReconciliationMetrics {
	if reg == nil {
		return &ReconciliationMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_claim_outcomes",
		Help: "Payment claims processed, labelled by channel and outcome.",
	}, []string{"channel", "outcome"})
	oversold := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "inventory_oversold_total",
		Help: "Orders whose stock commit found less inventory than sold.",
	})
	verifyDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_verify_duration_seconds",
		Help:    "Duration of gateway verification calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	reg.MustRegister(outcomes, oversold, verifyDuration)
	return &ReconciliationMetrics{
		outcomes:       outcomes,
		oversold:       oversold,
		verifyDuration: verifyDuration,
	}
}

// IncOutcome increments the counter for a processed claim.
func (r *ReconciliationMetrics) IncOutcome(channel, outcome string) {
	if r == nil || r.outcomes == nil {
		return
	}
	r.outcomes.WithLabelValues(normalizeLabel(channel), normalizeLabel(outcome)).Inc()
}

// IncOversold increments the oversold counter.
func (r *ReconciliationMetrics) IncOversold() {
	if r == nil || r.oversold == nil {
		return
	}
	r.oversold.Inc()
}

// ObserveVerifyDuration records how long a gateway verification took.
func (r *ReconciliationMetrics) ObserveVerifyDuration(result string, duration time.Duration) {
	if r == nil || r.verifyDuration == nil {
		return
	}
	r.verifyDuration.WithLabelValues(normalizeLabel(result)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
