package application

import (
	"context"
	"fmt"
	"time"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/ports"

	"github.com/rs/zerolog"
)

// platformFieldSpec declares the credential fields a platform accepts and
// which of them are stored encrypted.
type platformFieldSpec struct {
	typ      domain.IntegrationType
	required []string
	optional []string
	secret   []string
}

var platformFields = map[string]platformFieldSpec{
	"whatsapp": {
		typ:      domain.IntegrationTypeMessaging,
		required: []string{"accessToken", "phoneNumberId"},
		optional: []string{"businessAccountId", "appSecret"},
		secret:   []string{"accessToken", "appSecret"},
	},
	"mercadopago": {
		typ:      domain.IntegrationTypePayments,
		required: []string{"accessToken"},
		optional: []string{"webhookSecret", "notificationUrl"},
		secret:   []string{"accessToken", "webhookSecret"},
	},
	"rdstation": {
		typ:      domain.IntegrationTypeCRM,
		required: []string{"token"},
		secret:   []string{"token"},
	},
	"pipedrive": {
		typ:      domain.IntegrationTypeCRM,
		required: []string{"apiToken"},
		optional: []string{"companyDomain"},
		secret:   []string{"apiToken"},
	},
	"hubspot": {
		typ:      domain.IntegrationTypeCRM,
		required: []string{"accessToken"},
		secret:   []string{"accessToken"},
	},
	"omie": {
		typ:      domain.IntegrationTypeERP,
		required: []string{"appKey", "appSecret"},
		secret:   []string{"appSecret"},
	},
	"bling": {
		typ:      domain.IntegrationTypeERP,
		required: []string{"accessToken"},
		secret:   []string{"accessToken"},
	},
	"tiny": {
		typ:      domain.IntegrationTypeERP,
		required: []string{"token"},
		secret:   []string{"token"},
	},
}

// PlatformConfiguration returns the configuration contract for a platform,
// used to populate health snapshots for unconfigured integrations.
func PlatformConfiguration(platform string) domain.ConfigurationInfo {
	spec, ok := platformFields[platform]
	if !ok {
		return domain.ConfigurationInfo{}
	}
	return domain.ConfigurationInfo{
		RequiredFields: spec.required,
		OptionalFields: spec.optional,
	}
}

// CredentialsService manages vendor credentials for integration
// instances. Secret fields are encrypted before they reach the repository
// and decrypted only when a provider is being constructed.
type CredentialsService struct {
	repo          ports.CredentialRepository
	encryptionSvc ports.EncryptionService
	logger        zerolog.Logger
	now           func() time.Time
}

// NewCredentialsService creates a new credentials service.
func NewCredentialsService(
	repo ports.CredentialRepository,
	encryptionSvc ports.EncryptionService,
	logger zerolog.Logger,
) *CredentialsService {
	return &CredentialsService{
		repo:          repo,
		encryptionSvc: encryptionSvc,
		logger:        logger,
		now:           time.Now,
	}
}

// ConfigureIntegrationInput represents input for configuring an integration.
type ConfigureIntegrationInput struct {
	IntegrationID string
	Platform      string
	Fields        map[string]string
}

// ConfigureIntegration validates and stores the credential set for an
// integration. Missing required fields fail with ConfigurationError so a
// half-configured integration can never be constructed later. The
// returned credential carries the plaintext fields so the caller can
// construct the provider immediately; only the stored copy is encrypted.
// Reconfiguring keeps the original CreatedAt.
func (s *CredentialsService) ConfigureIntegration(ctx context.Context, input ConfigureIntegrationInput) (*domain.IntegrationCredential, error) {
	spec, ok := platformFields[input.Platform]
	if !ok {
		return nil, domain.NewValidationError("platform", "unknown platform: "+input.Platform)
	}

	var missing []string
	for _, field := range spec.required {
		if input.Fields[field] == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.ConfigurationError{Platform: input.Platform, Missing: missing}
	}

	existing, err := s.repo.GetByIntegrationID(ctx, input.IntegrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing credentials: %w", err)
	}

	plain := make(map[string]string, len(input.Fields))
	stored := make(map[string]string, len(input.Fields))
	for key, value := range input.Fields {
		if value == "" {
			continue
		}
		plain[key] = value
		if isSecretField(spec, key) {
			encrypted, err := s.encryptionSvc.Encrypt(value)
			if err != nil {
				return nil, fmt.Errorf("failed to encrypt credential field %s: %w", key, err)
			}
			stored[key] = encrypted
			continue
		}
		stored[key] = value
	}

	now := s.now()
	createdAt := now
	if existing != nil {
		createdAt = existing.CreatedAt
	}

	record := &domain.IntegrationCredential{
		IntegrationID: input.IntegrationID,
		Type:          spec.typ,
		Platform:      input.Platform,
		Fields:        stored,
		CreatedAt:     createdAt,
		UpdatedAt:     now,
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		s.logger.Error().Err(err).Str("integrationId", input.IntegrationID).Msg("Failed to store credentials")
		return nil, fmt.Errorf("failed to store credentials: %w", err)
	}

	s.logger.Info().
		Str("integrationId", input.IntegrationID).
		Str("platform", input.Platform).
		Msg("Configured integration credentials")

	credential := *record
	credential.Fields = plain
	return &credential, nil
}

// GetDecrypted retrieves the credential set for an integration with
// secret fields decrypted, for provider construction. Returns nil when
// the integration has no stored credentials.
func (s *CredentialsService) GetDecrypted(ctx context.Context, integrationID string) (*domain.IntegrationCredential, error) {
	credential, err := s.repo.GetByIntegrationID(ctx, integrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}
	if credential == nil {
		return nil, nil
	}
	if err := s.decryptSecrets(credential); err != nil {
		return nil, err
	}
	return credential, nil
}

// ListDecrypted retrieves every stored credential set with secret fields
// decrypted. Used at boot to reconstruct all providers.
func (s *CredentialsService) ListDecrypted(ctx context.Context) ([]*domain.IntegrationCredential, error) {
	credentials, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	for _, credential := range credentials {
		if err := s.decryptSecrets(credential); err != nil {
			return nil, err
		}
	}
	return credentials, nil
}

// Delete removes the credential set for an integration.
func (s *CredentialsService) Delete(ctx context.Context, integrationID string) error {
	if err := s.repo.Delete(ctx, integrationID); err != nil {
		return fmt.Errorf("failed to delete credentials: %w", err)
	}
	s.logger.Info().Str("integrationId", integrationID).Msg("Deleted integration credentials")
	return nil
}

func (s *CredentialsService) decryptSecrets(credential *domain.IntegrationCredential) error {
	spec, ok := platformFields[credential.Platform]
	if !ok {
		return nil
	}
	for key, value := range credential.Fields {
		if !isSecretField(spec, key) {
			continue
		}
		plaintext, err := s.encryptionSvc.Decrypt(value)
		if err != nil {
			return fmt.Errorf("failed to decrypt credential field %s: %w", key, err)
		}
		credential.Fields[key] = plaintext
	}
	return nil
}

func isSecretField(spec platformFieldSpec, field string) bool {
	for _, s := range spec.secret {
		if s == field {
			return true
		}
	}
	return false
}
