package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/trace"
)

// DeliveryIDMiddleware propagates the platform's delivery attempt ID
// This middleware should run early in the chain, after RequestIDMiddleware
//
// The chat platform stamps every webhook delivery with X-Parlor-Delivery and
// reuses the value when it retries a failed delivery, so the same ID showing
// up twice means a redelivery rather than a new event.
func DeliveryIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		deliveryID := c.GetHeader("X-Parlor-Delivery")
		if deliveryID == "" {
			// Fall back to the request ID so downstream logs always carry something
			if reqID, exists := c.Get("request_id"); exists {
				if s, ok := reqID.(string); ok {
					deliveryID = s
				}
			}
		}

		c.Set("delivery_id", deliveryID)
		c.Header("X-Parlor-Delivery", deliveryID)

		// Get current span and add delivery metadata
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() && deliveryID != "" {
			span.SetAttributes(
				attribute.String("webhook.delivery_id", deliveryID),
			)
		}

		// Carry the delivery ID in baggage so it survives into background
		// operations spawned from this request
		ctx := c.Request.Context()
		if deliveryID != "" {
			member, err := baggage.NewMember("delivery_id", deliveryID)
			if err == nil {
				newBaggage, err := baggage.New(member)
				if err == nil {
					ctx = baggage.ContextWithBaggage(ctx, newBaggage)
				}
			}
		}

		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetDeliveryIDFromContext extracts the delivery ID from context
// Useful in background tasks that need to reference the originating delivery
func GetDeliveryIDFromContext(ctx context.Context) string {
	b := baggage.FromContext(ctx)

	for _, member := range b.Members() {
		if member.Key() == "delivery_id" {
			return member.Value()
		}
	}

	return ""
}
