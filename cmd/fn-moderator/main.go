package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/config"
	"github.com/parlorchat/functions/internal/docstore"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/moderation"
	"github.com/parlorchat/functions/internal/storage"
	"github.com/parlorchat/functions/internal/vision"
)

var pipeline *moderation.Pipeline

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Only /tmp is writable in the function sandbox
	if err := logger.Initialize(cfg.Log.Level, "/tmp/functions.log"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ctx := context.Background()

	docs, err := docstore.Connect(ctx, cfg.Mongo)
	if err != nil {
		logger.FatalWithFields("Failed to connect to document store", err)
	}

	blobs, err := storage.NewS3BlobStore(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.BaseURL)
	if err != nil {
		logger.FatalWithFields("Failed to initialize blob store", err)
	}

	classifier, err := vision.NewClient(ctx, cfg.Vision)
	if err != nil {
		logger.FatalWithFields("Failed to initialize image classifier", err)
	}

	pipeline = moderation.NewPipeline(blobs, classifier, docstore.NewMessageStore(docs), cfg.Moderation.ScratchDir)

	logger.Log.Info("Moderator function initialized", zap.String("bucket", cfg.S3.Bucket))
}

// HandleS3Event runs the moderation pipeline for each created object in the
// event. Records are processed independently; a failure on one does not stop
// the rest, but any failure fails the invocation so the records are retried.
func HandleS3Event(ctx context.Context, s3Event events.S3Event) error {
	failed := 0
	for _, record := range s3Event.Records {
		if !strings.HasPrefix(record.EventName, "ObjectCreated") {
			continue
		}

		bucket := record.S3.Bucket.Name
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			// Not retryable: the record itself is broken
			logger.Log.Error("Undecodable object key in event record",
				logger.WithBucket(bucket),
				zap.String("raw_key", record.S3.Object.Key),
				zap.Error(err),
			)
			continue
		}

		if err := pipeline.HandleObjectFinalized(ctx, bucket, key); err != nil {
			logger.Log.Error("Moderation failed for object",
				logger.WithBucket(bucket),
				logger.WithObjectKey(key),
				zap.Error(err),
			)
			failed++
			continue
		}
	}

	if failed > 0 {
		return fmt.Errorf("moderation failed for %d of %d records", failed, len(s3Event.Records))
	}
	return nil
}

func main() {
	lambda.Start(HandleS3Event)
}
