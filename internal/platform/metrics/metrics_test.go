package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRecorded_CountsByTypeAndFlag(t *testing.T) {
	m := New()

	m.AuditRecorded("prescription", true)
	m.AuditRecorded("prescription", true)
	m.AuditRecorded("access", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AuditRecords.WithLabelValues("prescription", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditRecords.WithLabelValues("access", "false")))

	series, err := testutil.GatherAndCount(m.Registry(), "rxcore_audit_records_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveHTTP(http.MethodGet, "/health", http.StatusOK, 5*time.Millisecond)
	m.DispenseCompleted("completed")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rxcore_http_requests_total")
	assert.Contains(t, rec.Body.String(), "rxcore_dispense_completions_total")
}
