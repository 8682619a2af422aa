package application

import (
	"context"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/rs/zerolog"
)

// PaymentsService is the canonical payments adapter for PIX charges.
type PaymentsService struct {
	operationRecorder
	provider ports.PaymentsProvider
	logger   zerolog.Logger
}

// NewPaymentsService creates a payments adapter for one integration
// instance.
func NewPaymentsService(integrationID, platform string, provider ports.PaymentsProvider, ledger *OperationLedger, logger zerolog.Logger) *PaymentsService {
	return &PaymentsService{
		operationRecorder: operationRecorder{
			integrationID: integrationID,
			typ:           domain.IntegrationTypePayments,
			platform:      platform,
			ledger:        ledger,
		},
		provider: provider,
		logger:   logger,
	}
}

// CreatePayment validates and creates a PIX charge. A malformed payer
// document fails with ValidationError before any network attempt.
func (s *PaymentsService) CreatePayment(ctx context.Context, req domain.PaymentRequest) (*domain.Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "amount must be greater than zero")
	}
	if req.Description == "" {
		return nil, domain.NewValidationError("description", "description is required")
	}
	if req.PayerEmail == "" {
		return nil, domain.NewValidationError("payerEmail", "payer email is required")
	}
	if req.PayerDocument != "" && !domain.ValidateDocument(req.PayerDocument) {
		return nil, domain.NewValidationError("payerDocument", "invalid CPF/CNPJ")
	}

	payment, err := s.provider.CreatePayment(ctx, req)
	s.recordOutcome("create_payment", err, map[string]interface{}{
		"amount":            req.Amount.String(),
		"externalReference": req.ExternalReference,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("externalReference", req.ExternalReference).Msg("Failed to create payment")
		return nil, err
	}
	return payment, nil
}

// FindPaymentByID retrieves a payment, or nil when not found. Lookups are
// best-effort: vendor failures degrade to nil after logging.
func (s *PaymentsService) FindPaymentByID(ctx context.Context, id string) (*domain.Payment, error) {
	payment, err := s.provider.FindPaymentByID(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Str("paymentId", id).Msg("Payment lookup failed, degrading to empty result")
		return nil, nil
	}
	return payment, nil
}

// ProcessWebhook normalizes a payment-processor webhook payload.
func (s *PaymentsService) ProcessWebhook(ctx context.Context, payload []byte) (domain.WebhookResult, error) {
	result, err := s.provider.ParseWebhook(payload)
	s.recordOutcome("process_webhook", err, map[string]interface{}{"action": result.Action})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to process payment webhook")
		return domain.WebhookResult{}, err
	}
	return result, nil
}

// CheckConnection probes vendor connectivity.
func (s *PaymentsService) CheckConnection(ctx context.Context) (bool, error) {
	return s.provider.CheckConnection(ctx)
}

// Sync runs a best-effort reconciliation pass. It never returns an error.
func (s *PaymentsService) Sync(ctx context.Context) domain.SyncReport {
	report := s.provider.Sync(ctx)
	status := domain.OperationSuccess
	if !report.Success {
		status = domain.OperationError
	}
	s.record("sync", status, map[string]interface{}{"synchronized": report.Synchronized, "errors": report.Errors}, "")
	return report
}

// Configuration describes the provider's credential requirements.
func (s *PaymentsService) Configuration() domain.ConfigurationInfo {
	return s.provider.Configuration()
}
