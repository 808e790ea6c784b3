package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "factusapp"

// Outcome labels for fiscal provider calls
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors of the service
type Metrics struct {
	fiscalRequests      *prometheus.CounterVec
	fiscalDuration      *prometheus.HistogramVec
	fiscalTokenRefresh  prometheus.Counter
	invoiceTransitions  *prometheus.CounterVec
	invoiceCreateResult *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fiscalRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fiscal",
				Name:      "requests_total",
				Help:      "Calls to the fiscal provider by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		fiscalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fiscal",
				Name:      "request_duration_seconds",
				Help:      "Latency of fiscal provider calls",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		fiscalTokenRefresh: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fiscal",
				Name:      "token_refresh_total",
				Help:      "Access token round trips to the fiscal provider",
			},
		),
		invoiceTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "invoice",
				Name:      "transitions_total",
				Help:      "Invoice status transitions",
			},
			[]string{"from", "to"},
		),
		invoiceCreateResult: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "invoice",
				Name:      "created_total",
				Help:      "Invoice creation attempts by outcome",
			},
			[]string{"outcome"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.fiscalRequests,
			m.fiscalDuration,
			m.fiscalTokenRefresh,
			m.invoiceTransitions,
			m.invoiceCreateResult,
		)
	}
	return m
}

// NewNoop returns collectors that are not registered anywhere
func NewNoop() *Metrics {
	return New(nil)
}

// ObserveFiscalCall records one provider call started at start
func (m *Metrics) ObserveFiscalCall(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	op := sanitizeLabel(operation)
	m.fiscalRequests.WithLabelValues(op, outcome).Inc()
	m.fiscalDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// IncTokenRefresh counts a token round trip
func (m *Metrics) IncTokenRefresh() {
	if m == nil {
		return
	}
	m.fiscalTokenRefresh.Inc()
}

// IncTransition counts an invoice moving between two statuses
func (m *Metrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	m.invoiceTransitions.WithLabelValues(sanitizeLabel(from), sanitizeLabel(to)).Inc()
}

// IncInvoiceCreated counts an invoice creation attempt
func (m *Metrics) IncInvoiceCreated(err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.invoiceCreateResult.WithLabelValues(outcome).Inc()
}

const maxLabelLen = 64

func sanitizeLabel(s string) string {
	if s == "" {
		return "unknown"
	}
	s = strings.ToLower(strings.ReplaceAll(s, " ", "_"))
	if len(s) > maxLabelLen {
		s = s[:maxLabelLen]
	}
	return s
}
