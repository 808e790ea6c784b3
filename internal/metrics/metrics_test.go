package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveFiscalCall("submit", time.Now(), nil)
	m.ObserveFiscalCall("submit", time.Now(), errors.New("boom"))
	m.IncTokenRefresh()
	m.IncTransition("DRAFT", "EMITTED")

	assert.Equal(t, 1.0, promtest.ToFloat64(m.fiscalRequests.WithLabelValues("submit", OutcomeSuccess)))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.fiscalRequests.WithLabelValues("submit", OutcomeError)))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.fiscalTokenRefresh))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.invoiceTransitions.WithLabelValues("draft", "emitted")))

	count, err := promtest.GatherAndCount(reg, "factusapp_fiscal_requests_total")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveFiscalCall("submit", time.Now(), nil)
	m.IncTokenRefresh()
	m.IncTransition("a", "b")
	m.IncInvoiceCreated(nil)
}
