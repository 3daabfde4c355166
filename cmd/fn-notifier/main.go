package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/config"
	"github.com/parlorchat/functions/internal/docstore"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/models"
	"github.com/parlorchat/functions/internal/notify"
	"github.com/parlorchat/functions/internal/push"
)

var notifier *notify.Notifier

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

	dispatcher, err := push.NewFCMDispatcher(ctx, cfg.FCM)
	if err != nil {
		logger.FatalWithFields("Failed to initialize push dispatcher", err)
	}

	notifier = notify.NewNotifier(docstore.NewTokenStore(docs), dispatcher, cfg.AppURL)

	logger.Log.Info("Notifier function initialized")
}

// HandleChatEvents fans out each message.created event in the batch. The
// topic carries every chat event type; others are skipped. Malformed records
// are logged and dropped rather than retried forever.
func HandleChatEvents(ctx context.Context, snsEvent events.SNSEvent) error {
	failed := 0
	for _, record := range snsEvent.Records {
		var evt models.ChatEvent
		if err := json.Unmarshal([]byte(record.SNS.Message), &evt); err != nil {
			logger.Log.Error("Error parsing chat event",
				zap.String("sns_message_id", record.SNS.MessageID),
				zap.Error(err),
			)
			continue
		}

		if evt.Type != models.EventMessageCreated {
			continue
		}
		if evt.Message == nil {
			logger.Log.Error("message.created event without message payload",
				zap.String("event_id", evt.ID),
			)
			continue
		}

		if err := notifier.HandleMessageCreated(ctx, evt.Message); err != nil {
			logger.Log.Error("Message fan-out failed",
				zap.String("event_id", evt.ID),
				logger.WithMessageID(evt.Message.ID),
				zap.Error(err),
			)
			failed++
			continue
		}
	}

	if failed > 0 {
		return fmt.Errorf("fan-out failed for %d of %d records", failed, len(snsEvent.Records))
	}
	return nil
}

func main() {
	lambda.Start(HandleChatEvents)
}
