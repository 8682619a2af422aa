package application

import (
	"context"
	"testing"

	"conecta-core-integrations-layer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	fakeTester
	report domain.SyncReport
	panic  bool
	calls  int
}

func (f *fakeSyncer) Sync(ctx context.Context) domain.SyncReport {
	f.calls++
	if f.panic {
		panic("vendor returned garbage")
	}
	return f.report
}

func newSyncFixture(t *testing.T) (*IntegrationRegistry, *SyncService) {
	t.Helper()
	registry := NewIntegrationRegistry(testLogger())
	ledger := NewOperationLedger(registry, testLogger())
	health := NewHealthService(registry, ledger, testLogger())
	return registry, NewSyncService(registry, health, testLogger())
}

func TestSyncAllFansOutToConnectedIntegrations(t *testing.T) {
	registry, service := newSyncFixture(t)

	healthy := &fakeSyncer{fakeTester: fakeTester{ok: true}, report: domain.SyncReport{Success: true, Synchronized: 12}}
	failing := &fakeSyncer{fakeTester: fakeTester{ok: true}, report: domain.SyncReport{Success: false, Errors: 2, Details: []string{"deals sync failed: 429 too many requests"}}}
	disconnected := &fakeSyncer{fakeTester: fakeTester{ok: false}, report: domain.SyncReport{Success: true}}

	require.NoError(t, registry.Register("crm-1", healthy, domain.IntegrationTypeCRM, "pipedrive"))
	require.NoError(t, registry.Register("erp-1", failing, domain.IntegrationTypeERP, "omie"))
	require.NoError(t, registry.Register("erp-2", disconnected, domain.IntegrationTypeERP, "bling"))

	outcome := service.SyncAll(context.Background())

	assert.Equal(t, 1, outcome.Successful)
	assert.Equal(t, 1, outcome.Failed)
	require.Len(t, outcome.Details, 2)

	byID := make(map[string]domain.SyncDetail)
	for _, d := range outcome.Details {
		byID[d.ID] = d
	}
	assert.Equal(t, "success", byID["crm-1"].Status)
	assert.Equal(t, "error", byID["erp-1"].Status)
	assert.Equal(t, "deals sync failed: 429 too many requests", byID["erp-1"].Error)

	assert.Equal(t, 1, healthy.calls)
	assert.Zero(t, disconnected.calls, "disconnected integrations are skipped")
}

func TestSyncAllHandleWithoutSyncCapability(t *testing.T) {
	registry, service := newSyncFixture(t)
	require.NoError(t, registry.Register("pay-1", &fakeChecker{ok: true}, domain.IntegrationTypePayments, "mercadopago"))

	outcome := service.SyncAll(context.Background())

	assert.Zero(t, outcome.Successful)
	assert.Equal(t, 1, outcome.Failed)
	require.Len(t, outcome.Details, 1)
	assert.Equal(t, "integration does not support sync", outcome.Details[0].Error)
}

func TestSyncAllRecoversFromPanic(t *testing.T) {
	registry, service := newSyncFixture(t)
	exploding := &fakeSyncer{fakeTester: fakeTester{ok: true}, panic: true}
	require.NoError(t, registry.Register("crm-1", exploding, domain.IntegrationTypeCRM, "hubspot"))

	outcome := service.SyncAll(context.Background())

	assert.Equal(t, 1, outcome.Failed)
	require.Len(t, outcome.Details, 1)
	assert.Equal(t, "sync panicked: vendor returned garbage", outcome.Details[0].Error)
}

func TestSyncAllReportWithoutDetailMessage(t *testing.T) {
	registry, service := newSyncFixture(t)
	failing := &fakeSyncer{fakeTester: fakeTester{ok: true}, report: domain.SyncReport{Success: false, Errors: 3}}
	require.NoError(t, registry.Register("erp-1", failing, domain.IntegrationTypeERP, "tiny"))

	outcome := service.SyncAll(context.Background())

	require.Len(t, outcome.Details, 1)
	assert.Equal(t, "sync finished with 3 errors", outcome.Details[0].Error)
}

func TestSyncAllWithNoIntegrations(t *testing.T) {
	_, service := newSyncFixture(t)

	outcome := service.SyncAll(context.Background())

	assert.Zero(t, outcome.Successful)
	assert.Zero(t, outcome.Failed)
	assert.Empty(t, outcome.Details)
}
