package repository

import (
	"context"
	"fmt"
	"time"

	"conecta-core-integrations-layer/internal/domain"
	"conecta-core-integrations-layer/internal/infrastructure/repository/entity"
	"conecta-core-integrations-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCredentialRepository implements CredentialRepository using MongoDB
type MongoCredentialRepository struct {
	collection *mongo.Collection
}

// NewMongoCredentialRepository creates a new MongoDB credential repository
func NewMongoCredentialRepository(db *mongo.Database) ports.CredentialRepository {
	return &MongoCredentialRepository{
		collection: db.Collection("integration_credentials"),
	}
}

// EnsureIndexes creates the unique index on integrationId. Call once at
// startup.
func (r *MongoCredentialRepository) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "integrationId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("failed to create credential index: %w", err)
	}
	return nil
}

// Upsert creates or replaces the credential set for an integration
func (r *MongoCredentialRepository) Upsert(ctx context.Context, credential *domain.IntegrationCredential) error {
	doc := entity.MongoCredentialDocFromDomain(credential)
	doc.UpdatedAt = time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = doc.UpdatedAt
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"integrationId": credential.IntegrationID}
	// createdAt is written only on insert so reconfiguration keeps the
	// original timestamp.
	update := bson.M{
		"$set": bson.M{
			"integrationId": doc.IntegrationID,
			"type":          doc.Type,
			"platform":      doc.Platform,
			"fields":        doc.Fields,
			"updatedAt":     doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{"createdAt": doc.CreatedAt},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}

	return nil
}

// GetByIntegrationID retrieves a credential set, or nil when absent
func (r *MongoCredentialRepository) GetByIntegrationID(ctx context.Context, integrationID string) (*domain.IntegrationCredential, error) {
	var doc entity.MongoCredentialDoc
	filter := bson.M{"integrationId": integrationID}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return doc.ToDomain(), nil
}

// List retrieves every stored credential set
func (r *MongoCredentialRepository) List(ctx context.Context) ([]*domain.IntegrationCredential, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}
	defer cursor.Close(ctx)

	var credentials []*domain.IntegrationCredential
	for cursor.Next(ctx) {
		var doc entity.MongoCredentialDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode credential: %w", err)
		}
		credentials = append(credentials, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return credentials, nil
}

// Delete removes the credential set for an integration
func (r *MongoCredentialRepository) Delete(ctx context.Context, integrationID string) error {
	filter := bson.M{"integrationId": integrationID}

	_, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	return nil
}
