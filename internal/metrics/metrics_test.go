package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.CheckIn("granted")
	m.CheckIn("granted")
	m.CheckIn("already_used")
	m.TicketsIssued(3)
	m.TicketsIssued(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.checkins.WithLabelValues("granted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.checkins.WithLabelValues("already_used")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ticketsIssued))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Reservation("CHECKOUT", "ok")
		m.SeatsExpired(2)
		m.Payment("paid")
		m.Webhook("x")
		m.TicketsIssued(1)
		m.Delivery("sent")
		m.CheckIn("granted")
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.Payment("paid")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `boxoffice_payments_total{result="paid"} 1`)
}
