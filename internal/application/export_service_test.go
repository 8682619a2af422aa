package application

import (
	"context"
	"testing"
	"time"

	"conecta-core-integrations-layer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportSnapshotComposesState(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	registry := NewIntegrationRegistry(testLogger())
	ledger := NewOperationLedgerWithClock(registry, testLogger(), clock)
	health := NewHealthServiceWithClock(registry, ledger, testLogger(), clock)
	service := NewExportService(registry, ledger, health)
	service.now = clock

	require.NoError(t, registry.Register("wa-1", &fakeChecker{ok: true}, domain.IntegrationTypeMessaging, "whatsapp"))
	require.NoError(t, registry.Register("erp-1", nil, domain.IntegrationTypeERP, "omie"))

	ledger.Append(domain.OperationRecord{
		IntegrationID:   "wa-1",
		IntegrationType: domain.IntegrationTypeMessaging,
		Platform:        "whatsapp",
		Operation:       "send_message",
		Status:          domain.OperationSuccess,
	})
	ledger.Append(domain.OperationRecord{
		IntegrationID:   "erp-1",
		IntegrationType: domain.IntegrationTypeERP,
		Platform:        "omie",
		Operation:       "create_invoice",
		Status:          domain.OperationError,
	})

	snapshot := service.Snapshot(context.Background())

	assert.Equal(t, now, snapshot.ExportedAt)

	require.Len(t, snapshot.Integrations, 2)
	statuses := make(map[string]domain.IntegrationStatus, len(snapshot.Integrations))
	for _, integration := range snapshot.Integrations {
		statuses[integration.ID] = integration.Status
	}
	assert.Equal(t, domain.StatusConnected, statuses["wa-1"])
	assert.Equal(t, domain.StatusDisconnected, statuses["erp-1"])

	require.Len(t, snapshot.Operations, 2)
	for _, record := range snapshot.Operations {
		assert.NotEmpty(t, record.ID)
		assert.Equal(t, now, record.Timestamp)
	}

	assert.Equal(t, 2, snapshot.Stats.TotalOperations)
	assert.Equal(t, 1, snapshot.Stats.SuccessCount)
	assert.Equal(t, 1, snapshot.Stats.ErrorCount)
	assert.Equal(t, 1, snapshot.Stats.ByPlatform["omie"])
	assert.Equal(t, 1, snapshot.Stats.ByType[domain.IntegrationTypeMessaging])
}

func TestExportSnapshotWithEmptyState(t *testing.T) {
	registry := NewIntegrationRegistry(testLogger())
	ledger := NewOperationLedger(registry, testLogger())
	health := NewHealthService(registry, ledger, testLogger())
	service := NewExportService(registry, ledger, health)

	snapshot := service.Snapshot(context.Background())
	assert.Empty(t, snapshot.Integrations)
	assert.Empty(t, snapshot.Operations)
	assert.Zero(t, snapshot.Stats.TotalOperations)
	assert.False(t, snapshot.ExportedAt.IsZero())
}
