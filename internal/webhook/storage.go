package webhook

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/metrics"
)

// HandleStorageEvent runs the moderation pipeline for each finalized object
// in an S3 notification. Records are processed independently; one failing
// record does not stop the rest, but any failure yields a 500 so the
// delivery is retried.
// POST /webhooks/storage
func (s *Server) HandleStorageEvent(c *gin.Context) {
	var evt events.S3Event
	if err := c.ShouldBindJSON(&evt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed_event"})
		return
	}
	if len(evt.Records) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no_records"})
		return
	}

	c.Set("event_type", "storage.finalized")

	ctx := c.Request.Context()
	processed := 0
	failed := 0
	for _, record := range evt.Records {
		metrics.Get().EventsTotal.WithLabelValues("storage", record.EventName).Inc()

		if !strings.HasPrefix(record.EventName, "ObjectCreated") {
			continue
		}

		bucket := record.S3.Bucket.Name
		key, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil {
			// Notification keys are URL-encoded; an undecodable key would
			// fail identically on every redelivery, so drop the record
			logger.Log.Error("Undecodable object key in storage event",
				zap.String("bucket", bucket),
				zap.String("raw_key", record.S3.Object.Key),
				zap.Error(err),
			)
			continue
		}

		dedupeKey := storageDedupeKey(bucket, key, record.S3.Object.Sequencer)
		if s.guard != nil && !s.guard.FirstDelivery(ctx, dedupeKey) {
			metrics.Get().DuplicateEventsTotal.WithLabelValues("storage.finalized").Inc()
			logger.Log.Info("Skipping redelivered storage record",
				zap.String("bucket", bucket),
				zap.String("object_key", key),
			)
			continue
		}

		if err := s.moderator.HandleObjectFinalized(ctx, bucket, key); err != nil {
			logger.Log.Error("Moderation failed for object",
				zap.String("bucket", bucket),
				zap.String("object_key", key),
				zap.Error(err),
			)
			if s.guard != nil {
				s.guard.Forget(ctx, dedupeKey)
			}
			failed++
			continue
		}
		processed++
	}

	if failed > 0 {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "processing_failed",
			"failed":    failed,
			"processed": processed,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "processed": processed})
}

// storageDedupeKey identifies one object-finalized record. The sequencer
// distinguishes successive writes to the same key.
func storageDedupeKey(bucket, key, sequencer string) string {
	if sequencer == "" {
		return ""
	}
	return "storage:" + bucket + "/" + key + "@" + sequencer
}
