package application

import (
	"context"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/rs/zerolog"
)

// MessagingService is the canonical messaging adapter. It validates
// requests before any network attempt, dispatches to the configured
// vendor provider and records every outcome in the operation ledger.
// The provider is fixed at construction and never changes.
type MessagingService struct {
	operationRecorder
	provider ports.MessagingProvider
	logger   zerolog.Logger
}

// NewMessagingService creates a messaging adapter for one integration
// instance.
func NewMessagingService(integrationID, platform string, provider ports.MessagingProvider, ledger *OperationLedger, logger zerolog.Logger) *MessagingService {
	return &MessagingService{
		operationRecorder: operationRecorder{
			integrationID: integrationID,
			typ:           domain.IntegrationTypeMessaging,
			platform:      platform,
			ledger:        ledger,
		},
		provider: provider,
		logger:   logger,
	}
}

// SendMessage validates and delivers an outbound message. Validation
// failures surface as ValidationError before any transport; vendor
// failures surface as UpstreamError.
func (s *MessagingService) SendMessage(ctx context.Context, req domain.OutboundMessage) (*domain.Message, error) {
	if req.To == "" {
		return nil, domain.NewValidationError("to", "recipient is required")
	}
	switch req.Type {
	case domain.MessageTypeText:
		if req.Text == "" {
			return nil, domain.NewValidationError("text", "text body is required for text messages")
		}
	case domain.MessageTypeTemplate:
		if req.TemplateName == "" {
			return nil, domain.NewValidationError("templateName", "template name is required for template messages")
		}
	default:
		return nil, domain.NewValidationError("type", "unknown message type: "+string(req.Type))
	}

	msg, err := s.provider.SendMessage(ctx, req)
	s.recordOutcome("send_message", err, map[string]interface{}{"to": req.To, "messageType": string(req.Type)})
	if err != nil {
		s.logger.Error().Err(err).Str("to", req.To).Msg("Failed to send message")
		return nil, err
	}
	return msg, nil
}

// FindMessageByID retrieves a message, or nil when not found. Lookups are
// best-effort: vendor failures degrade to nil after logging.
func (s *MessagingService) FindMessageByID(ctx context.Context, id string) (*domain.Message, error) {
	msg, err := s.provider.FindMessageByID(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("messageId", id).Msg("Message lookup failed, degrading to empty result")
		return nil, nil
	}
	return msg, nil
}

// ProcessWebhook normalizes a vendor webhook payload. It mutates no local
// state besides the append-only ledger entry, so replaying a payload is
// safe; deduplication is the transport collaborator's responsibility.
func (s *MessagingService) ProcessWebhook(ctx context.Context, payload []byte) (domain.WebhookResult, error) {
	result, err := s.provider.ParseWebhook(payload)
	s.recordOutcome("process_webhook", err, map[string]interface{}{"action": result.Action})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to process messaging webhook")
		return domain.WebhookResult{}, err
	}
	return result, nil
}

// CheckConnection probes vendor connectivity.
func (s *MessagingService) CheckConnection(ctx context.Context) (bool, error) {
	return s.provider.CheckConnection(ctx)
}

// Sync runs a best-effort reconciliation pass. It never returns an error.
func (s *MessagingService) Sync(ctx context.Context) domain.SyncReport {
	report := s.provider.Sync(ctx)
	status := domain.OperationSuccess
	if !report.Success {
		status = domain.OperationError
	}
	s.record("sync", status, map[string]interface{}{"synchronized": report.Synchronized, "errors": report.Errors}, "")
	return report
}

// Configuration describes the provider's credential requirements.
func (s *MessagingService) Configuration() domain.ConfigurationInfo {
	return s.provider.Configuration()
}
