package metrics

import (
	"conecta-core-integrations-layer/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes the operational telemetry of the integration layer.
// It implements the ledger's OperationObserver and the health service's
// StatusObserver.
type Collector struct {
	operationsTotal *prometheus.CounterVec
	connected       *prometheus.GaugeVec
	ledgerEntries   prometheus.Gauge
}

// NewCollector creates and registers the collector on a registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "integration_operations_total",
			Help: "Operations recorded in the ledger by type, platform and status.",
		}, []string{"type", "platform", "status"}),
		connected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "integration_connected",
			Help: "Whether an integration's last health probe reported connected.",
		}, []string{"id", "type", "platform"}),
		ledgerEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "operation_ledger_entries",
			Help: "Number of operation records currently retained.",
		}),
	}
	reg.MustRegister(c.operationsTotal, c.connected, c.ledgerEntries)
	return c
}

// ObserveOperation counts one recorded operation.
func (c *Collector) ObserveOperation(record domain.OperationRecord) {
	c.operationsTotal.WithLabelValues(
		string(record.IntegrationType),
		record.Platform,
		string(record.Status),
	).Inc()
}

// SetLedgerSize tracks the retained record count.
func (c *Collector) SetLedgerSize(n int) {
	c.ledgerEntries.Set(float64(n))
}

// ObserveStatus tracks the derived status of one integration.
func (c *Collector) ObserveStatus(integration domain.Integration, status domain.IntegrationStatus) {
	value := 0.0
	if status == domain.StatusConnected {
		value = 1.0
	}
	c.connected.WithLabelValues(
		integration.ID,
		string(integration.Type),
		integration.Platform,
	).Set(value)
}
