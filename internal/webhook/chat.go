package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/metrics"
	"github.com/parlorchat/functions/internal/models"
)

// chatDedupeKey identifies a chat event in the delivery guard. Events
// without an id are never deduplicated.
func chatDedupeKey(evt *models.ChatEvent) string {
	if evt.ID == "" {
		return ""
	}
	return "chat:" + evt.ID
}

// HandleChatEvent dispatches a chat platform event to its flow
// POST /webhooks/chat
func (s *Server) HandleChatEvent(c *gin.Context) {
	var evt models.ChatEvent
	if err := c.ShouldBindJSON(&evt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed_event"})
		return
	}

	c.Set("event_type", evt.Type)
	metrics.Get().EventsTotal.WithLabelValues("chat", evt.Type).Inc()

	ctx := c.Request.Context()
	key := chatDedupeKey(&evt)
	if s.guard != nil && !s.guard.FirstDelivery(ctx, key) {
		metrics.Get().DuplicateEventsTotal.WithLabelValues(evt.Type).Inc()
		logger.Log.Info("Skipping redelivered chat event",
			zap.String("event_type", evt.Type),
			zap.String("event_id", evt.ID),
		)
		c.JSON(http.StatusAccepted, gin.H{"status": "duplicate"})
		return
	}

	switch evt.Type {
	case models.EventMessageCreated:
		if evt.Message == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_message"})
			return
		}
		if err := s.notifier.HandleMessageCreated(ctx, evt.Message); err != nil {
			logger.Log.Error("Message fan-out failed",
				zap.String("event_id", evt.ID),
				zap.String("message_id", evt.Message.ID),
				zap.Error(err),
			)
			// Let the platform retry this delivery
			if s.guard != nil {
				s.guard.Forget(ctx, key)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "fanout_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})

	case models.EventUserCreated:
		if evt.User == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing_user"})
			return
		}
		messageID, err := s.greeter.HandleAccountCreated(ctx, *evt.User)
		if err != nil {
			logger.Log.Error("Welcome message failed",
				zap.String("event_id", evt.ID),
				zap.String("uid", evt.User.UID),
				zap.Error(err),
			)
			if s.guard != nil {
				s.guard.Forget(ctx, key)
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "welcome_failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message_id": messageID})

	default:
		// Unknown types are acknowledged so the platform stops retrying them
		logger.Log.Debug("Ignoring unhandled chat event type",
			zap.String("event_type", evt.Type),
		)
		c.JSON(http.StatusAccepted, gin.H{"status": "ignored"})
	}
}
