package entity

import (
	"time"

	"conecta-core-integrations-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoCredentialDoc represents an integration credential set in MongoDB
type MongoCredentialDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	IntegrationID string             `bson:"integrationId"`
	Type          string             `bson:"type"`
	Platform      string             `bson:"platform"`
	Fields        map[string]string  `bson:"fields"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoCredentialDoc) ToDomain() *domain.IntegrationCredential {
	return &domain.IntegrationCredential{
		IntegrationID: d.IntegrationID,
		Type:          domain.IntegrationType(d.Type),
		Platform:      d.Platform,
		Fields:        d.Fields,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// MongoCredentialDocFromDomain converts a domain entity to a MongoDB document
func MongoCredentialDocFromDomain(credential *domain.IntegrationCredential) *MongoCredentialDoc {
	return &MongoCredentialDoc{
		IntegrationID: credential.IntegrationID,
		Type:          string(credential.Type),
		Platform:      credential.Platform,
		Fields:        credential.Fields,
		CreatedAt:     credential.CreatedAt,
		UpdatedAt:     credential.UpdatedAt,
	}
}
