// Package docstore wraps the MongoDB document store that holds chat messages
// and device-token registrations.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/config"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/telemetry"
)

// ErrNotFound is returned when a document lookup or update matches nothing.
var ErrNotFound = errors.New("docstore: document not found")

// CollectionName identifies a document collection.
type CollectionName string

const (
	// CollectionMessages holds chat messages, keyed by ObjectID.
	CollectionMessages CollectionName = "messages"
	// CollectionDeviceTokens holds push registrations, keyed by the raw
	// token string.
	CollectionDeviceTokens CollectionName = "device_tokens"
)

// Client is a connected document-store handle.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
}

// Connect dials the document store and verifies the connection with a primary
// ping before returning.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Client, error) {
	opts := options.Client().ApplyURI(cfg.URI).SetDirect(cfg.Direct)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping document store: %w", err)
	}

	logger.Log.Info("Document store connected",
		zap.String("database", cfg.Database),
	)

	return &Client{
		client:   client,
		database: client.Database(cfg.Database),
	}, nil
}

// Collection returns a raw handle to the named collection.
func (c *Client) Collection(name CollectionName) *mongo.Collection {
	return c.database.Collection(string(name))
}

// Ping verifies the connection is still healthy.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from the document store.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Add inserts a document and returns its id.
func (c *Client) Add(ctx context.Context, collection CollectionName, fields any) (string, error) {
	ctx, span := telemetry.TraceDocstoreCall(ctx, "insert", string(collection))
	defer span.End()

	res, err := c.Collection(collection).InsertOne(ctx, fields)
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return "", fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	telemetry.RecordServiceSuccess(span)

	switch id := res.InsertedID.(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	case string:
		return id, nil
	default:
		return fmt.Sprintf("%v", id), nil
	}
}

// Get decodes the document with the given id into out.
func (c *Client) Get(ctx context.Context, collection CollectionName, id string, out any) error {
	ctx, span := telemetry.TraceDocstoreCall(ctx, "find_one", string(collection))
	defer span.End()

	err := c.Collection(collection).FindOne(ctx, idFilter(id)).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	telemetry.RecordServiceSuccess(span)
	return nil
}

// Update applies a $set of the given fields to the document with the given
// id. Returns ErrNotFound when no document matched.
func (c *Client) Update(ctx context.Context, collection CollectionName, id string, fields map[string]any) error {
	ctx, span := telemetry.TraceDocstoreCall(ctx, "update_one", string(collection))
	defer span.End()

	res, err := c.Collection(collection).UpdateOne(ctx, idFilter(id), bson.M{"$set": fields})
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	telemetry.RecordServiceSuccess(span)
	return nil
}

// Delete removes the document with the given id. Deleting an absent document
// is not an error, matching the idempotent delete semantics of the hosted
// stores this replaces.
func (c *Client) Delete(ctx context.Context, collection CollectionName, id string) error {
	ctx, span := telemetry.TraceDocstoreCall(ctx, "delete_one", string(collection))
	defer span.End()

	if _, err := c.Collection(collection).DeleteOne(ctx, idFilter(id)); err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	telemetry.RecordServiceSuccess(span)
	return nil
}

// ListAll decodes every document in the collection into out, which must be a
// pointer to a slice. The read is unbounded; collections here are expected to
// stay small.
func (c *Client) ListAll(ctx context.Context, collection CollectionName, out any) error {
	ctx, span := telemetry.TraceDocstoreCall(ctx, "find_all", string(collection))
	defer span.End()

	cursor, err := c.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to list %s: %w", collection, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	telemetry.RecordServiceSuccess(span)
	return nil
}

// idFilter builds an _id filter for either ObjectID-keyed or string-keyed
// collections. Hex strings of ObjectID length are treated as ObjectIDs.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": oid}
	}
	return bson.M{"_id": id}
}
