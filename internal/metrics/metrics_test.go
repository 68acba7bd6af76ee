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

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun("simulated", "ok", 1.1)
	m.ObserveRun("simulated", "ok", 1.0)
	m.ObserveRun("live", "timed_out", 10)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Runs.WithLabelValues("simulated", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("live", "timed_out")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun("live", "ok", 1)
		m.ObservePoll(3)
		m.LedgerFailed()
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.LedgerFailed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "humanize_ledger_failures_total 1"))
}
