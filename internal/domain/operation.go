package domain

import "time"

// OperationStatus is the outcome of one recorded business call.
type OperationStatus string

const (
	OperationSuccess OperationStatus = "success"
	OperationError   OperationStatus = "error"
	OperationPending OperationStatus = "pending"
)

// OperationRecord is an immutable ledger entry describing one business
// call's outcome. ID and Timestamp are assigned by the ledger at append
// time.
type OperationRecord struct {
	ID              string                 `json:"id"`
	IntegrationID   string                 `json:"integrationId,omitempty"`
	IntegrationType IntegrationType        `json:"integrationType"`
	Platform        string                 `json:"platform"`
	Operation       string                 `json:"operation"`
	Status          OperationStatus        `json:"status"`
	Timestamp       time.Time              `json:"timestamp"`
	Data            map[string]interface{} `json:"data,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// OperationFilter selects ledger entries. All set fields are conjunctive;
// zero values mean "any".
type OperationFilter struct {
	Type      IntegrationType
	Platform  string
	Status    OperationStatus
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// IntegrationStats aggregates ledger contents for the export contract.
type IntegrationStats struct {
	TotalOperations int                    `json:"totalOperations"`
	SuccessCount    int                    `json:"successCount"`
	ErrorCount      int                    `json:"errorCount"`
	PendingCount    int                    `json:"pendingCount"`
	ByPlatform      map[string]int         `json:"byPlatform"`
	ByType          map[IntegrationType]int `json:"byType"`
}

// IntegrationExport is the per-integration slice of an export snapshot.
type IntegrationExport struct {
	ID       string            `json:"id"`
	Type     IntegrationType   `json:"type"`
	Platform string            `json:"platform"`
	Status   IntegrationStatus `json:"status"`
}

// ExportSnapshot is the full state dump exposed to external collaborators.
type ExportSnapshot struct {
	Integrations []IntegrationExport `json:"integrations"`
	Operations   []OperationRecord   `json:"operations"`
	Stats        IntegrationStats    `json:"stats"`
	ExportedAt   time.Time           `json:"exportedAt"`
}
