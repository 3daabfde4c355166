package docstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parlorchat/functions/internal/models"
)

// TokenStore provides typed access to the device-token collection.
type TokenStore struct {
	client *Client
}

// NewTokenStore creates a token store backed by the given client.
func NewTokenStore(client *Client) *TokenStore {
	return &TokenStore{client: client}
}

// All returns every registered device token. The read is unbounded; the
// registration set is expected to stay small enough that pagination is not
// worth its complexity here.
func (s *TokenStore) All(ctx context.Context) ([]string, error) {
	var docs []models.DeviceToken
	if err := s.client.ListAll(ctx, CollectionDeviceTokens, &docs); err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(docs))
	for _, doc := range docs {
		tokens = append(tokens, doc.Token)
	}
	return tokens, nil
}

// Register upserts a device token registration.
func (s *TokenStore) Register(ctx context.Context, token string) error {
	doc := models.DeviceToken{
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.client.Collection(CollectionDeviceTokens).ReplaceOne(
		ctx,
		bson.M{"_id": token},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to register device token: %w", err)
	}
	return nil
}

// Delete removes a device token registration. Removing an already-gone token
// is not an error.
func (s *TokenStore) Delete(ctx context.Context, token string) error {
	return s.client.Delete(ctx, CollectionDeviceTokens, token)
}
