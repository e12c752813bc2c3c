package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webpage-chatter/internal/models"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveAttempt("complete", nil)
	m.ObserveAttempt("complete", errors.New("boom"))
	m.ObserveAttempt("complete", errors.New("boom"))
	m.ObserveFailure("stream", "quota_exceeded")
	m.ObserveModelChoice(models.ModelChoice{ID: "small", Fallback: true})
	m.ObserveFragment()
	m.ObserveHTTP("GET", "/api/health", 200, 3*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamAttempts.WithLabelValues("complete", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.upstreamAttempts.WithLabelValues("complete", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.upstreamFailures.WithLabelValues("stream", "quota_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.modelSelections.WithLabelValues("small", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamFragments))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/health", "200")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveFragment()

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "stream_fragments_total" {
			assert.Equal(t, 0.0, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
}
