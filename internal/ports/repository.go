package ports

import (
	"context"

	"conecta-core-integrations-layer/internal/domain"
)

// CredentialRepository defines the interface for integration credential
// persistence.
type CredentialRepository interface {
	// Upsert creates or replaces the credential set for an integration.
	Upsert(ctx context.Context, credential *domain.IntegrationCredential) error

	// GetByIntegrationID retrieves a credential set, or nil when absent.
	GetByIntegrationID(ctx context.Context, integrationID string) (*domain.IntegrationCredential, error)

	// List retrieves every stored credential set.
	List(ctx context.Context) ([]*domain.IntegrationCredential, error)

	// Delete removes the credential set for an integration.
	Delete(ctx context.Context, integrationID string) error
}

// EncryptionService defines the interface for credential encryption at rest.
type EncryptionService interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
