package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.JobCreated()
	m.JobCreated()
	m.Transition("QUEUED", "PROCESSING")
	m.UpdateRejected("INVALID_TRANSITION")
	m.UpdateIgnored()
	m.PublishFailed()
	m.Uploaded(1024)
	m.Uploaded(-1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.JobsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JobTransitions.WithLabelValues("QUEUED", "PROCESSING")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpdatesRejected.WithLabelValues("INVALID_TRANSITION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpdatesIgnored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishFailures))
	assert.Equal(t, 1024.0, testutil.ToFloat64(m.UploadBytes))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.JobCreated()
		m.Transition("a", "b")
		m.UpdateRejected("x")
		m.UpdateIgnored()
		m.PublishFailed()
		m.Uploaded(1)
		m.ObserveHTTP("GET", "/", "200", 0.1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.JobCreated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "dubber_jobs_created_total 1"))
}
