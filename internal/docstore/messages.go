package docstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/parlorchat/functions/internal/models"
)

// MessageStore provides typed access to the messages collection.
type MessageStore struct {
	client *Client
}

// NewMessageStore creates a message store backed by the given client.
func NewMessageStore(client *Client) *MessageStore {
	return &MessageStore{client: client}
}

// Add appends a message and returns its new id. A zero CreatedAt is replaced
// with a server-assigned timestamp.
func (s *MessageStore) Add(ctx context.Context, msg *models.Message) (string, error) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	return s.client.Add(ctx, CollectionMessages, msg)
}

// Get loads a single message by id.
func (s *MessageStore) Get(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	if err := s.client.Get(ctx, CollectionMessages, id, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SetModerated marks the message as moderated. The flag only ever moves from
// false to true.
func (s *MessageStore) SetModerated(ctx context.Context, id string) error {
	return s.client.Update(ctx, CollectionMessages, id, map[string]any{"moderated": true})
}

// ListUnmoderatedWithImages returns messages that reference an image but have
// not been marked moderated. Used by the reconcile pass.
func (s *MessageStore) ListUnmoderatedWithImages(ctx context.Context) ([]models.Message, error) {
	filter := bson.M{
		"moderated": false,
		"image_url": bson.M{"$exists": true, "$ne": ""},
	}

	cursor, err := s.client.Collection(CollectionMessages).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list unmoderated messages: %w", err)
	}

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode unmoderated messages: %w", err)
	}
	return messages, nil
}
