package erp

import (
	"encoding/json"
	"strconv"
	"strings"

	"conecta-core-integrations-layer/internal/domain"
)

// parseGenericWebhook normalizes the shared ERP envelope
// {event, data, timestamp, source}. Events are dotted, entity first:
// "invoice.issued", "stock.updated". Unknown events are reported as not
// processed rather than as errors.
func parseGenericWebhook(platform string, payload []byte) (domain.WebhookResult, error) {
	var event domain.GenericWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.WebhookResult{}, domain.NewUpstreamError(platform, "process_webhook", "malformed webhook payload", err)
	}
	if event.Event == "" {
		return domain.WebhookResult{Processed: false, Action: "ignored"}, nil
	}

	entityType := event.Event
	if idx := strings.Index(event.Event, "."); idx > 0 {
		entityType = event.Event[:idx]
	}

	var entityID string
	switch raw := event.Data["id"].(type) {
	case string:
		entityID = raw
	case float64:
		entityID = strconv.FormatFloat(raw, 'f', -1, 64)
	}

	return domain.WebhookResult{
		Processed:  true,
		Action:     event.Event,
		EntityType: entityType,
		EntityID:   entityID,
	}, nil
}
