package application

import (
	"context"
	"strings"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/rs/zerolog"
)

// CRMService is the canonical CRM adapter. The vendor provider is
// selected at construction from the configured platform and never
// changes afterwards.
type CRMService struct {
	operationRecorder
	provider ports.CRMProvider
	logger   zerolog.Logger
}

// NewCRMService creates a CRM adapter for one integration instance.
func NewCRMService(integrationID, platform string, provider ports.CRMProvider, ledger *OperationLedger, logger zerolog.Logger) *CRMService {
	return &CRMService{
		operationRecorder: operationRecorder{
			integrationID: integrationID,
			typ:           domain.IntegrationTypeCRM,
			platform:      platform,
			ledger:        ledger,
		},
		provider: provider,
		logger:   logger,
	}
}

// CreateContact validates and creates a contact. Name and email are
// required; a document, when present, must be a valid CPF/CNPJ.
func (s *CRMService) CreateContact(ctx context.Context, req domain.ContactRequest) (*domain.Contact, error) {
	if req.Name == "" {
		return nil, domain.NewValidationError("name", "contact name is required")
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return nil, domain.NewValidationError("email", "a valid contact email is required")
	}
	if req.Document != "" && !domain.ValidateDocument(req.Document) {
		return nil, domain.NewValidationError("document", "invalid CPF/CNPJ")
	}

	contact, err := s.provider.CreateContact(ctx, req)
	s.recordOutcome("create_contact", err, map[string]interface{}{"email": req.Email})
	if err != nil {
		s.logger.Error().Err(err).Str("email", req.Email).Msg("Failed to create contact")
		return nil, err
	}
	return contact, nil
}

// FindContactByEmail retrieves a contact, or nil when not found. Lookups
// are best-effort: vendor failures degrade to nil after logging.
func (s *CRMService) FindContactByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	contact, err := s.provider.FindContactByEmail(ctx, email)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("Contact lookup failed, degrading to empty result")
		return nil, nil
	}
	return contact, nil
}

// CreateDeal validates and creates a deal.
func (s *CRMService) CreateDeal(ctx context.Context, req domain.DealRequest) (*domain.Deal, error) {
	if req.Title == "" {
		return nil, domain.NewValidationError("title", "deal title is required")
	}
	if req.Value.IsNegative() {
		return nil, domain.NewValidationError("value", "deal value cannot be negative")
	}

	deal, err := s.provider.CreateDeal(ctx, req)
	s.recordOutcome("create_deal", err, map[string]interface{}{"title": req.Title})
	if err != nil {
		s.logger.Error().Err(err).Str("title", req.Title).Msg("Failed to create deal")
		return nil, err
	}
	return deal, nil
}

// UpdateDealStatus maps the canonical deal status onto the vendor's
// stage/status fields and returns the updated canonical deal.
func (s *CRMService) UpdateDealStatus(ctx context.Context, dealID string, status domain.DealStatus) (*domain.Deal, error) {
	if dealID == "" {
		return nil, domain.NewValidationError("dealId", "deal id is required")
	}
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "unknown deal status: "+string(status))
	}

	deal, err := s.provider.UpdateDealStatus(ctx, dealID, status)
	s.recordOutcome("update_deal_status", err, map[string]interface{}{"dealId": dealID, "status": string(status)})
	if err != nil {
		s.logger.Error().Err(err).Str("dealId", dealID).Msg("Failed to update deal status")
		return nil, err
	}
	return deal, nil
}

// CreateActivity validates and logs an activity.
func (s *CRMService) CreateActivity(ctx context.Context, req domain.ActivityRequest) (*domain.Activity, error) {
	if req.Type == "" {
		return nil, domain.NewValidationError("type", "activity type is required")
	}
	if req.Subject == "" {
		return nil, domain.NewValidationError("subject", "activity subject is required")
	}

	activity, err := s.provider.CreateActivity(ctx, req)
	s.recordOutcome("create_activity", err, map[string]interface{}{"activityType": req.Type})
	if err != nil {
		s.logger.Error().Err(err).Str("activityType", req.Type).Msg("Failed to create activity")
		return nil, err
	}
	return activity, nil
}

// ProcessWebhook normalizes a CRM webhook payload.
func (s *CRMService) ProcessWebhook(ctx context.Context, payload []byte) (domain.WebhookResult, error) {
	result, err := s.provider.ParseWebhook(payload)
	s.recordOutcome("process_webhook", err, map[string]interface{}{"action": result.Action})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to process CRM webhook")
		return domain.WebhookResult{}, err
	}
	return result, nil
}

// TestConnection probes vendor connectivity.
func (s *CRMService) TestConnection(ctx context.Context) (bool, error) {
	return s.provider.TestConnection(ctx)
}

// Sync runs a best-effort reconciliation pass. It never returns an error.
func (s *CRMService) Sync(ctx context.Context) domain.SyncReport {
	report := s.provider.Sync(ctx)
	status := domain.OperationSuccess
	if !report.Success {
		status = domain.OperationError
	}
	s.record("sync", status, map[string]interface{}{"synchronized": report.Synchronized, "errors": report.Errors}, "")
	return report
}

// Configuration describes the provider's credential requirements.
func (s *CRMService) Configuration() domain.ConfigurationInfo {
	return s.provider.Configuration()
}
