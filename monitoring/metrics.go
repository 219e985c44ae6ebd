package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticketsOutstanding = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tickets_outstanding_total",
			Help: "Current number of tickets per ledger",
		},
		[]string{"ledger_id"},
	)

	activeListings = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketplace_active_listings_total",
			Help: "Current number of active marketplace listings",
		},
	)

	ledgerCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_count_total",
			Help: "Current number of event ledgers",
		},
	)

	ledgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Total ledger and marketplace operations",
		},
		[]string{"operation", "status"},
	)

	salePrice = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_sale_price_units",
			Help:    "Settled sale prices in smallest currency units",
			Buckets: prometheus.ExponentialBuckets(1000, 10, 8),
		},
		[]string{"ledger_id"},
	)
)

// StateReader is the view of core state the collector polls.
type StateReader interface {
	LedgerCounts() map[string]int
	ActiveListingCount() int
}

type Monitor struct {
	state StateReader
}

func NewMonitor(state StateReader) *Monitor {
	monitor := &Monitor{state: state}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		counts := m.state.LedgerCounts()
		ledgerCount.Set(float64(len(counts)))
		for ledgerID, count := range counts {
			ticketsOutstanding.WithLabelValues(ledgerID).Set(float64(count))
		}
		activeListings.Set(float64(m.state.ActiveListingCount()))
	}
}

// TrackOperation counts one ledger or marketplace operation outcome.
func (m *Monitor) TrackOperation(operation, status string) {
	ledgerOperations.WithLabelValues(operation, status).Inc()
}

// TrackSale records a settled sale price.
func (m *Monitor) TrackSale(ledgerID string, price int64) {
	salePrice.WithLabelValues(ledgerID).Observe(float64(price))
}
