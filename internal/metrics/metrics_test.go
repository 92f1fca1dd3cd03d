package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePayment(t *testing.T) {
	m := New()

	m.ObservePayment("Bacs", OutcomeSuccess, 0.01)
	m.ObservePayment("Bacs", OutcomeSuccess, 0.02)
	m.ObservePayment("Chaps", "ACCOUNT_NOT_LIVE", 0.01)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.paymentsTotal.WithLabelValues("Bacs", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.paymentsTotal.WithLabelValues("Chaps", "ACCOUNT_NOT_LIVE")))
}

func TestObservePayment_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObservePayment("Bacs", OutcomeSuccess, 0)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObservePayment("FasterPayments", OutcomeError, 0.5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	res := rec.Result()
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `payments_requests_total{outcome="error",scheme="FasterPayments"} 1`))
}
