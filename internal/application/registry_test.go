package application

import (
	"testing"
	"time"

	"conecta-core-integrations-layer/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registry := NewIntegrationRegistry(testLogger())
	handle := struct{ name string }{"whatsapp handle"}

	err := registry.Register("wa-1", handle, domain.IntegrationTypeMessaging, "whatsapp")
	require.NoError(t, err)

	integration, ok := registry.Get("wa-1")
	require.True(t, ok)
	assert.Equal(t, "wa-1", integration.ID)
	assert.Equal(t, domain.IntegrationTypeMessaging, integration.Type)
	assert.Equal(t, "whatsapp", integration.Platform)
	assert.False(t, integration.RegisteredAt.IsZero())

	got, ok := registry.Handle("wa-1")
	require.True(t, ok)
	assert.Equal(t, handle, got)
}

func TestRegistryRejectsInvalidRegistrations(t *testing.T) {
	registry := NewIntegrationRegistry(testLogger())

	err := registry.Register("", nil, domain.IntegrationTypeMessaging, "whatsapp")
	var validationErr *domain.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "id", validationErr.Field)

	err = registry.Register("x-1", nil, domain.IntegrationType("warehouse"), "whatsapp")
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "type", validationErr.Field)
}

func TestRegistryRejectsDuplicateID(t *testing.T) {
	registry := NewIntegrationRegistry(testLogger())
	require.NoError(t, registry.Register("crm-1", nil, domain.IntegrationTypeCRM, "pipedrive"))

	err := registry.Register("crm-1", nil, domain.IntegrationTypeCRM, "hubspot")
	var dupErr *domain.DuplicateIDError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "crm-1", dupErr.ID)

	// Same (type, platform) under a different id is allowed.
	require.NoError(t, registry.Register("crm-2", nil, domain.IntegrationTypeCRM, "pipedrive"))
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	registry := NewIntegrationRegistry(testLogger())
	require.NoError(t, registry.Register("erp-1", nil, domain.IntegrationTypeERP, "omie"))

	registry.Unregister("erp-1")
	registry.Unregister("erp-1")
	registry.Unregister("never-existed")

	_, ok := registry.Get("erp-1")
	assert.False(t, ok)
	assert.Empty(t, registry.List())
}

func TestRegistryRecordActivity(t *testing.T) {
	registry := NewIntegrationRegistry(testLogger())
	require.NoError(t, registry.Register("pay-1", nil, domain.IntegrationTypePayments, "mercadopago"))

	first := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	second := first.Add(time.Minute)
	registry.RecordActivity("pay-1", domain.OperationSuccess, first)
	registry.RecordActivity("pay-1", domain.OperationError, second)
	registry.RecordActivity("ghost", domain.OperationSuccess, second)

	integration, ok := registry.Get("pay-1")
	require.True(t, ok)
	assert.Equal(t, int64(2), integration.OperationCount)
	assert.Equal(t, int64(1), integration.ErrorCount)
	require.NotNil(t, integration.LastActivity)
	assert.Equal(t, second, *integration.LastActivity)
}

func TestRegistryListReturnsCopies(t *testing.T) {
	registry := NewIntegrationRegistry(testLogger())
	require.NoError(t, registry.Register("wa-1", nil, domain.IntegrationTypeMessaging, "whatsapp"))

	list := registry.List()
	require.Len(t, list, 1)
	list[0].Platform = "mutated"

	integration, _ := registry.Get("wa-1")
	assert.Equal(t, "whatsapp", integration.Platform)
}
