package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveReview("good", "time", 3, false)
	m.ObserveReview("again", "time", 1, true)
	m.ObserveReview("good", "progress", 48, false)
	m.ObserveAttempt("quiz", true, true)
	m.ObserveAttempt("quiz", false, false)
	m.ObserveDecay()
	m.ObserveStaleResets(2)
	m.ObserveStaleResets(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Reviews.WithLabelValues("good")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("quiz", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Attempts.WithLabelValues("quiz", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NewMasteries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decays))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StaleResets))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["recall_scheduled_interval_units"])
	assert.True(t, names["recall_reviews_total"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReview("good", "time", 1, true)
		m.ObserveAttempt("lab", true, true)
		m.ObserveDecay()
		m.ObserveStaleResets(3)
	})
}

func TestNewWithoutRegistry(t *testing.T) {
	m := New(nil)
	m.ObserveDecay()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decays))
}
