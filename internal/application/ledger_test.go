package application

import (
	"fmt"
	"testing"
	"time"

	"conecta-core-integrations-layer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	records []domain.OperationRecord
}

func (p *capturingPublisher) Publish(record domain.OperationRecord) {
	p.records = append(p.records, record)
}

type capturingObserver struct {
	observed []domain.OperationRecord
	lastSize int
}

func (o *capturingObserver) ObserveOperation(record domain.OperationRecord) {
	o.observed = append(o.observed, record)
}

func (o *capturingObserver) SetLedgerSize(n int) {
	o.lastSize = n
}

func TestLedgerAppendAssignsIdentityAndNotifies(t *testing.T) {
	registry := NewIntegrationRegistry(testLogger())
	require.NoError(t, registry.Register("wa-1", nil, domain.IntegrationTypeMessaging, "whatsapp"))

	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	ledger := NewOperationLedgerWithClock(registry, testLogger(), func() time.Time { return at })
	publisher := &capturingPublisher{}
	observer := &capturingObserver{}
	ledger.SetPublisher(publisher)
	ledger.SetObserver(observer)

	record := ledger.Append(domain.OperationRecord{
		IntegrationID:   "wa-1",
		IntegrationType: domain.IntegrationTypeMessaging,
		Platform:        "whatsapp",
		Operation:       "send_message",
		Status:          domain.OperationSuccess,
	})

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, at, record.Timestamp)
	assert.Equal(t, 1, ledger.Size())

	require.Len(t, publisher.records, 1)
	assert.Equal(t, record.ID, publisher.records[0].ID)
	require.Len(t, observer.observed, 1)
	assert.Equal(t, 1, observer.lastSize)

	integration, ok := registry.Get("wa-1")
	require.True(t, ok)
	assert.Equal(t, int64(1), integration.OperationCount)
	require.NotNil(t, integration.LastActivity)
	assert.Equal(t, at, *integration.LastActivity)
}

func TestLedgerTrimsAtHardCap(t *testing.T) {
	ledger := NewOperationLedger(nil, testLogger())

	for i := 0; i < ledgerHardCap+1; i++ {
		ledger.Append(domain.OperationRecord{
			IntegrationType: domain.IntegrationTypeCRM,
			Platform:        "hubspot",
			Operation:       fmt.Sprintf("op-%d", i),
			Status:          domain.OperationSuccess,
		})
	}

	assert.Equal(t, ledgerTrimTarget, ledger.Size())

	// The newest entry survives the trim.
	newest := ledger.Query(domain.OperationFilter{Limit: 1})
	require.Len(t, newest, 1)
	assert.Equal(t, fmt.Sprintf("op-%d", ledgerHardCap), newest[0].Operation)
}

func TestLedgerQueryFiltersAndSorts(t *testing.T) {
	current := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	ledger := NewOperationLedgerWithClock(nil, testLogger(), func() time.Time {
		current = current.Add(time.Minute)
		return current
	})

	ledger.Append(domain.OperationRecord{IntegrationType: domain.IntegrationTypeCRM, Platform: "pipedrive", Operation: "create_contact", Status: domain.OperationSuccess})
	ledger.Append(domain.OperationRecord{IntegrationType: domain.IntegrationTypeCRM, Platform: "hubspot", Operation: "create_deal", Status: domain.OperationError})
	ledger.Append(domain.OperationRecord{IntegrationType: domain.IntegrationTypeERP, Platform: "omie", Operation: "create_invoice", Status: domain.OperationSuccess})
	ledger.Append(domain.OperationRecord{IntegrationType: domain.IntegrationTypeCRM, Platform: "pipedrive", Operation: "create_activity", Status: domain.OperationSuccess})

	byType := ledger.Query(domain.OperationFilter{Type: domain.IntegrationTypeCRM})
	require.Len(t, byType, 3)
	// Newest first.
	assert.Equal(t, "create_activity", byType[0].Operation)
	assert.Equal(t, "create_contact", byType[2].Operation)

	byPlatform := ledger.Query(domain.OperationFilter{Platform: "omie"})
	require.Len(t, byPlatform, 1)
	assert.Equal(t, "create_invoice", byPlatform[0].Operation)

	byStatus := ledger.Query(domain.OperationFilter{Status: domain.OperationError})
	require.Len(t, byStatus, 1)

	limited := ledger.Query(domain.OperationFilter{Limit: 2})
	assert.Len(t, limited, 2)

	windowStart := time.Date(2026, 5, 1, 0, 2, 30, 0, time.UTC)
	windowed := ledger.Query(domain.OperationFilter{StartDate: &windowStart})
	require.Len(t, windowed, 2)
	assert.Equal(t, "create_activity", windowed[0].Operation)
}

func TestLedgerCleanupRemovesExpiredRecords(t *testing.T) {
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ledger := NewOperationLedgerWithClock(nil, testLogger(), func() time.Time { return current })

	ledger.Append(domain.OperationRecord{Operation: "old", Status: domain.OperationSuccess})
	current = current.Add(89 * 24 * time.Hour)
	ledger.Append(domain.OperationRecord{Operation: "recent", Status: domain.OperationSuccess})

	// 91 days after the first append: only the first record expired.
	current = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(91 * 24 * time.Hour)
	removed := ledger.Cleanup()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, ledger.Size())
	remaining := ledger.Query(domain.OperationFilter{})
	require.Len(t, remaining, 1)
	assert.Equal(t, "recent", remaining[0].Operation)

	assert.Zero(t, ledger.Cleanup())
}

func TestLedgerStats(t *testing.T) {
	ledger := NewOperationLedger(nil, testLogger())
	ledger.Append(domain.OperationRecord{IntegrationType: domain.IntegrationTypePayments, Platform: "mercadopago", Status: domain.OperationSuccess})
	ledger.Append(domain.OperationRecord{IntegrationType: domain.IntegrationTypePayments, Platform: "mercadopago", Status: domain.OperationPending})
	ledger.Append(domain.OperationRecord{IntegrationType: domain.IntegrationTypeERP, Platform: "bling", Status: domain.OperationError})

	stats := ledger.Stats()
	assert.Equal(t, 3, stats.TotalOperations)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 1, stats.ErrorCount)
	assert.Equal(t, 1, stats.PendingCount)
	assert.Equal(t, 2, stats.ByPlatform["mercadopago"])
	assert.Equal(t, 2, stats.ByType[domain.IntegrationTypePayments])
}
