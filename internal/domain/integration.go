package domain

import "time"

// IntegrationType identifies which business domain an integration serves.
type IntegrationType string

const (
	IntegrationTypeMessaging IntegrationType = "messaging"
	IntegrationTypePayments  IntegrationType = "payments"
	IntegrationTypeCRM       IntegrationType = "crm"
	IntegrationTypeERP       IntegrationType = "erp"
)

// Valid reports whether t is one of the known integration types.
func (t IntegrationType) Valid() bool {
	switch t {
	case IntegrationTypeMessaging, IntegrationTypePayments, IntegrationTypeCRM, IntegrationTypeERP:
		return true
	}
	return false
}

// IntegrationStatus is the connectivity status derived on every health pass.
// It is never persisted; an integration can move freely between statuses
// on successive polls.
type IntegrationStatus string

const (
	StatusConfiguring  IntegrationStatus = "configuring"
	StatusConnected    IntegrationStatus = "connected"
	StatusDisconnected IntegrationStatus = "disconnected"
	StatusError        IntegrationStatus = "error"
)

// Integration is a live integration instance tracked by the registry.
// The registry owns it exclusively: created on register, counters mutated
// on every recorded operation, removed on unregister.
type Integration struct {
	ID             string          `json:"id"`
	Type           IntegrationType `json:"type"`
	Platform       string          `json:"platform"`
	RegisteredAt   time.Time       `json:"registeredAt"`
	OperationCount int64           `json:"operationCount"`
	ErrorCount     int64           `json:"errorCount"`
	LastActivity   *time.Time      `json:"lastActivity,omitempty"`
}

// platformNames maps platform identifiers to their display names.
var platformNames = map[string]string{
	"whatsapp":    "WhatsApp Business",
	"mercadopago": "Mercado Pago",
	"rdstation":   "RD Station",
	"pipedrive":   "Pipedrive",
	"hubspot":     "HubSpot",
	"omie":        "Omie",
	"bling":       "Bling",
	"tiny":        "Tiny",
}

// DisplayName returns a human-readable name for a platform identifier.
func DisplayName(platform string) string {
	if name, ok := platformNames[platform]; ok {
		return name
	}
	return platform
}
