package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Metrics exposes application-level prometheus instruments.
type Metrics struct {
	usageEvents   *prometheus.CounterVec
	ledgerEntries *prometheus.CounterVec
	syncReports   *prometheus.CounterVec
}

// Default returns the singleton metrics registry backed by the default registerer.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// ResetForTest resets the metrics singleton for tests.
func ResetForTest() {
	defaultOnce = sync.Once{}
	defaultMetrics = nil
}

func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	usageEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zenpay_usage_events_total",
		Help: "Usage events recorded by item code.",
	}, []string{"item_code"})
	ledgerEntries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zenpay_ledger_entries_total",
		Help: "Ledger entries appended by kind.",
	}, []string{"kind"})
	syncReports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "zenpay_billing_sync_reports_total",
		Help: "Billing sync report attempts by outcome.",
	}, []string{"status"})

	registerer.MustRegister(usageEvents, ledgerEntries, syncReports)

	return &Metrics{
		usageEvents:   usageEvents,
		ledgerEntries: ledgerEntries,
		syncReports:   syncReports,
	}
}

func (m *Metrics) RecordUsageEvent(itemCode string) {
	if m == nil {
		return
	}
	m.usageEvents.WithLabelValues(itemCode).Inc()
}

func (m *Metrics) RecordLedgerEntry(kind string) {
	if m == nil {
		return
	}
	m.ledgerEntries.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordSyncReport(status string) {
	if m == nil {
		return
	}
	m.syncReports.WithLabelValues(status).Inc()
}
