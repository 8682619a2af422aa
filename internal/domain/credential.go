package domain

import "time"

// IntegrationCredential holds the vendor credentials backing one
// integration instance. Secret field values are stored encrypted; the
// credentials service is the only component that sees them in the clear.
type IntegrationCredential struct {
	IntegrationID string            `json:"integrationId"`
	Type          IntegrationType   `json:"type"`
	Platform      string            `json:"platform"`
	Fields        map[string]string `json:"fields"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}
