package domain

import "time"

// HealthMetrics are rolling metrics derived from the operation ledger.
// SuccessRate and MonthlyVolume cover the trailing 30 days; TotalOperations
// is the lifetime counter on the Integration.
type HealthMetrics struct {
	TotalOperations int64      `json:"totalOperations"`
	SuccessRate     float64    `json:"successRate"`
	MonthlyVolume   int        `json:"monthlyVolume"`
	LastActivity    *time.Time `json:"lastActivity,omitempty"`
}

// ConfigurationInfo describes how an integration is configured, without
// exposing credential values.
type ConfigurationInfo struct {
	IsConfigured   bool     `json:"isConfigured"`
	RequiredFields []string `json:"requiredFields"`
	OptionalFields []string `json:"optionalFields"`
}

// HealthSnapshot is a point-in-time derived view of one integration's
// connectivity and rolling metrics. It is computed on demand, never stored.
type HealthSnapshot struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Type          IntegrationType   `json:"type"`
	Status        IntegrationStatus `json:"status"`
	Platform      string            `json:"platform"`
	LastSync      *time.Time        `json:"lastSync,omitempty"`
	ErrorMessage  string            `json:"errorMessage,omitempty"`
	Metrics       HealthMetrics     `json:"metrics"`
	Configuration ConfigurationInfo `json:"configuration"`
}
