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
	"github.com/parlorchat/functions/internal/welcome"
)

var emitter *welcome.Emitter

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Only /tmp is writable in the function sandbox
	if err := logger.Initialize(cfg.Log.Level, "/tmp/functions.log"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	docs, err := docstore.Connect(context.Background(), cfg.Mongo)
	if err != nil {
		logger.FatalWithFields("Failed to connect to document store", err)
	}

	emitter = welcome.NewEmitter(docstore.NewMessageStore(docs))

	logger.Log.Info("Greeter function initialized")
}

// HandleAccountEvents welcomes each newly created account in the batch.
func HandleAccountEvents(ctx context.Context, snsEvent events.SNSEvent) error {
	failed := 0
	for _, record := range snsEvent.Records {
		var evt models.ChatEvent
		if err := json.Unmarshal([]byte(record.SNS.Message), &evt); err != nil {
			logger.Log.Error("Error parsing account event",
				zap.String("sns_message_id", record.SNS.MessageID),
				zap.Error(err),
			)
			continue
		}

		if evt.Type != models.EventUserCreated {
			continue
		}
		if evt.User == nil {
			logger.Log.Error("user.created event without user payload",
				zap.String("event_id", evt.ID),
			)
			continue
		}

		if _, err := emitter.HandleAccountCreated(ctx, *evt.User); err != nil {
			logger.Log.Error("Welcome message failed",
				zap.String("event_id", evt.ID),
				zap.String("uid", evt.User.UID),
				zap.Error(err),
			)
			failed++
			continue
		}
	}

	if failed > 0 {
		return fmt.Errorf("welcome failed for %d of %d records", failed, len(snsEvent.Records))
	}
	return nil
}

func main() {
	lambda.Start(HandleAccountEvents)
}
