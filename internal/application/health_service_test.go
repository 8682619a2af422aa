package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"conecta-core-integrations-layer/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	ok    bool
	err   error
	panic bool
}

func (f *fakeChecker) CheckConnection(ctx context.Context) (bool, error) {
	if f.panic {
		panic("probe exploded")
	}
	return f.ok, f.err
}

func (f *fakeChecker) Configuration() domain.ConfigurationInfo {
	return domain.ConfigurationInfo{
		IsConfigured:   true,
		RequiredFields: []string{"accessToken"},
	}
}

type fakeTester struct {
	ok  bool
	err error
}

func (f *fakeTester) TestConnection(ctx context.Context) (bool, error) {
	return f.ok, f.err
}

func TestHealthProbeByIntegrationType(t *testing.T) {
	tests := []struct {
		name       string
		typ        domain.IntegrationType
		handle     interface{}
		wantStatus domain.IntegrationStatus
		wantErrMsg string
	}{
		{"messaging connected", domain.IntegrationTypeMessaging, &fakeChecker{ok: true}, domain.StatusConnected, ""},
		{"payments probe says no", domain.IntegrationTypePayments, &fakeChecker{ok: false}, domain.StatusDisconnected, ""},
		{"payments probe error", domain.IntegrationTypePayments, &fakeChecker{err: errors.New("401 unauthorized")}, domain.StatusError, "401 unauthorized"},
		{"messaging probe panics", domain.IntegrationTypeMessaging, &fakeChecker{panic: true}, domain.StatusError, "probe panicked: probe exploded"},
		{"crm connected", domain.IntegrationTypeCRM, &fakeTester{ok: true}, domain.StatusConnected, ""},
		{"erp probe error", domain.IntegrationTypeERP, &fakeTester{err: errors.New("timeout")}, domain.StatusError, "timeout"},
		{"nil handle", domain.IntegrationTypeCRM, nil, domain.StatusDisconnected, ""},
		{"handle without probe method", domain.IntegrationTypeERP, struct{}{}, domain.StatusDisconnected, ""},
		{"crm handle with wrong probe method", domain.IntegrationTypeCRM, &fakeChecker{ok: true}, domain.StatusDisconnected, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewIntegrationRegistry(testLogger())
			ledger := NewOperationLedger(registry, testLogger())
			service := NewHealthService(registry, ledger, testLogger())
			require.NoError(t, registry.Register("it-1", tt.handle, tt.typ, "whatsapp"))

			snapshots := service.CheckAll(context.Background())

			require.Len(t, snapshots, 1)
			assert.Equal(t, tt.wantStatus, snapshots[0].Status)
			assert.Equal(t, tt.wantErrMsg, snapshots[0].ErrorMessage)
		})
	}
}

func TestHealthMetricsFromLedgerWindow(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	registry := NewIntegrationRegistry(testLogger())
	ledger := NewOperationLedgerWithClock(registry, testLogger(), clock)
	service := NewHealthServiceWithClock(registry, ledger, testLogger(), clock)
	require.NoError(t, registry.Register("crm-1", &fakeTester{ok: true}, domain.IntegrationTypeCRM, "pipedrive"))

	appendAt := func(at time.Time, status domain.OperationStatus) {
		ledger.now = func() time.Time { return at }
		ledger.Append(domain.OperationRecord{
			IntegrationID:   "crm-1",
			IntegrationType: domain.IntegrationTypeCRM,
			Platform:        "pipedrive",
			Operation:       "create_contact",
			Status:          status,
		})
	}

	// Outside the 30-day window: counted in lifetime totals only.
	appendAt(now.Add(-40*24*time.Hour), domain.OperationSuccess)
	// Inside the window: one success, one error.
	appendAt(now.Add(-10*24*time.Hour), domain.OperationSuccess)
	appendAt(now.Add(-5*24*time.Hour), domain.OperationError)

	snapshots := service.CheckAll(context.Background())
	require.Len(t, snapshots, 1)

	metrics := snapshots[0].Metrics
	assert.Equal(t, int64(3), metrics.TotalOperations)
	assert.Equal(t, 2, metrics.MonthlyVolume)
	assert.Equal(t, 50.0, metrics.SuccessRate)
	require.NotNil(t, metrics.LastActivity)
}

func TestHealthMetricsWithoutRecords(t *testing.T) {
	registry := NewIntegrationRegistry(testLogger())
	ledger := NewOperationLedger(registry, testLogger())
	service := NewHealthService(registry, ledger, testLogger())
	require.NoError(t, registry.Register("erp-1", &fakeTester{ok: true}, domain.IntegrationTypeERP, "tiny"))

	snapshots := service.CheckAll(context.Background())
	require.Len(t, snapshots, 1)
	assert.Zero(t, snapshots[0].Metrics.SuccessRate)
	assert.Zero(t, snapshots[0].Metrics.MonthlyVolume)
}

func TestHealthSnapshotConfiguration(t *testing.T) {
	registry := NewIntegrationRegistry(testLogger())
	ledger := NewOperationLedger(registry, testLogger())
	service := NewHealthService(registry, ledger, testLogger())

	require.NoError(t, registry.Register("wa-1", &fakeChecker{ok: true}, domain.IntegrationTypeMessaging, "whatsapp"))
	require.NoError(t, registry.Register("crm-1", &fakeTester{ok: true}, domain.IntegrationTypeCRM, "rdstation"))

	snapshots := service.CheckAll(context.Background())
	require.Len(t, snapshots, 2)

	byID := make(map[string]domain.HealthSnapshot, len(snapshots))
	for _, snap := range snapshots {
		byID[snap.ID] = snap
	}

	assert.True(t, byID["wa-1"].Configuration.IsConfigured)
	assert.Equal(t, []string{"accessToken"}, byID["wa-1"].Configuration.RequiredFields)
	// Handles without the capability report unconfigured.
	assert.False(t, byID["crm-1"].Configuration.IsConfigured)
}

type statusRecordingObserver struct {
	statuses map[string]domain.IntegrationStatus
}

func (o *statusRecordingObserver) ObserveStatus(integration domain.Integration, status domain.IntegrationStatus) {
	o.statuses[integration.ID] = status
}

func TestHealthServiceNotifiesObserver(t *testing.T) {
	registry := NewIntegrationRegistry(testLogger())
	ledger := NewOperationLedger(registry, testLogger())
	service := NewHealthService(registry, ledger, testLogger())
	observer := &statusRecordingObserver{statuses: make(map[string]domain.IntegrationStatus)}
	service.SetObserver(observer)

	require.NoError(t, registry.Register("pay-1", &fakeChecker{ok: true}, domain.IntegrationTypePayments, "mercadopago"))
	require.NoError(t, registry.Register("erp-1", nil, domain.IntegrationTypeERP, "omie"))

	service.CheckAll(context.Background())

	assert.Equal(t, domain.StatusConnected, observer.statuses["pay-1"])
	assert.Equal(t, domain.StatusDisconnected, observer.statuses["erp-1"])
}
