// Package metrics exposes prometheus collectors for the recall engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "recall"

// Metrics groups the engine's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Reviews      *prometheus.CounterVec
	Fallbacks    prometheus.Counter
	Intervals    *prometheus.HistogramVec
	Attempts     *prometheus.CounterVec
	NewMasteries prometheus.Counter
	Decays       prometheus.Counter
	StaleResets  prometheus.Counter
}

// New creates the collectors and registers them with reg. Passing nil
// skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reviews_total",
			Help:      "Graded reviews by grade.",
		}, []string{"grade"}),
		Fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_fallbacks_total",
			Help:      "Reviews scheduled with the fail-closed fallback.",
		}),
		Intervals: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduled_interval_units",
			Help:      "Scheduled interval in policy units (days or points).",
			Buckets:   []float64{1, 3, 7, 14, 30, 90, 180, 365, 1000, 3000, 7300},
		}, []string{"policy"}),
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Skill attempts by context and outcome.",
		}, []string{"context", "outcome"}),
		NewMasteries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "new_masteries_total",
			Help:      "Skills that reached mastery for the first time.",
		}),
		Decays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decay_applications_total",
			Help:      "Lazy decay recalculations that were applied.",
		}),
		StaleResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_resets_total",
			Help:      "Review items reset after going stale.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Reviews, m.Fallbacks, m.Intervals, m.Attempts, m.NewMasteries, m.Decays, m.StaleResets)
	}
	return m
}

// ObserveReview records one scheduled review.
func (m *Metrics) ObserveReview(grade, policy string, interval float64, fallback bool) {
	if m == nil {
		return
	}
	m.Reviews.WithLabelValues(grade).Inc()
	m.Intervals.WithLabelValues(policy).Observe(interval)
	if fallback {
		m.Fallbacks.Inc()
	}
}

// ObserveAttempt records one skill attempt.
func (m *Metrics) ObserveAttempt(context string, success, newlyMastered bool) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.Attempts.WithLabelValues(context, outcome).Inc()
	if newlyMastered {
		m.NewMasteries.Inc()
	}
}

func (m *Metrics) ObserveDecay() {
	if m == nil {
		return
	}
	m.Decays.Inc()
}

func (m *Metrics) ObserveStaleResets(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StaleResets.Add(float64(n))
}
