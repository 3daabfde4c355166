package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/telemetry"
)

// DefaultEventTTL is how long a processed event id stays marked as seen.
// Platform redeliveries land well inside this window.
const DefaultEventTTL = 24 * time.Hour

// EventGuard deduplicates redelivered platform events. Event delivery is
// at-least-once, so handlers consult the guard before processing. A nil
// guard, or one without a cache, lets every delivery through.
type EventGuard struct {
	cache *RedisClient
	ttl   time.Duration
}

// NewEventGuard creates a guard over the given cache. The cache may be nil,
// in which case the guard is a no-op.
func NewEventGuard(cache *RedisClient, ttl time.Duration) *EventGuard {
	if ttl <= 0 {
		ttl = DefaultEventTTL
	}
	return &EventGuard{cache: cache, ttl: ttl}
}

// FirstDelivery marks the event id as seen and reports whether this was the
// first delivery. Cache failures fail open and the delivery is processed.
func (g *EventGuard) FirstDelivery(ctx context.Context, eventID string) bool {
	if g == nil || g.cache == nil || eventID == "" {
		return true
	}

	key := eventKey(eventID)

	ctx, span := telemetry.TraceCacheCall(ctx, "set_nx", key)
	defer span.End()

	first, err := g.cache.SetNX(ctx, key, 1, g.ttl)
	if err != nil {
		telemetry.RecordServiceError(span, err)
		logger.Log.Warn("Event guard unavailable, processing anyway",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
		return true
	}

	telemetry.RecordServiceSuccess(span)
	return first
}

// Forget clears the seen marker for an event id. Handlers call it when
// processing fails so the platform's retry is not suppressed as a duplicate.
func (g *EventGuard) Forget(ctx context.Context, eventID string) {
	if g == nil || g.cache == nil || eventID == "" {
		return
	}

	if err := g.cache.Del(ctx, eventKey(eventID)); err != nil {
		logger.Log.Warn("Failed to clear event marker",
			zap.String("event_id", eventID),
			zap.Error(err),
		)
	}
}

// eventKey namespaces event ids in the shared cache.
func eventKey(id string) string {
	return "events:seen:" + id
}
