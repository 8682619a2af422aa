package domain

// WebhookResult is the canonical normalization of a vendor-specific
// webhook payload. Every adapter reduces its vendor's shape to this.
type WebhookResult struct {
	Processed  bool   `json:"processed"`
	Action     string `json:"action"`
	EntityType string `json:"entityType"`
	EntityID   string `json:"entityId,omitempty"`
}

// GenericWebhookEvent is the shared inbound envelope CRM and ERP vendors
// deliver: {event, data, timestamp, source}.
type GenericWebhookEvent struct {
	Event     string                 `json:"event"`
	Data      map[string]interface{} `json:"data"`
	Timestamp string                 `json:"timestamp,omitempty"`
	Source    string                 `json:"source,omitempty"`
}
