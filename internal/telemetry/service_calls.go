package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ============================================================================
// CLOUD VISION CALLS
// ============================================================================

// TraceClassifierCall creates a span for SafeSearch classifier calls
// Examples: detect_safe_search
func TraceClassifierCall(ctx context.Context, operation, imageURL string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("vision").Start(ctx, "vision."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("vision.operation", operation),
		),
	)

	if imageURL != "" {
		span.SetAttributes(attribute.String("vision.image_url", imageURL))
	}

	return ctx, span
}

// ============================================================================
// S3 / BLOB STORE CALLS
// ============================================================================

// TraceStorageCall creates a span for blob store operations
// Examples: get_object, put_object, head_object
func TraceStorageCall(ctx context.Context, operation, key string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("s3").Start(ctx, "s3."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("s3.operation", operation),
		),
	)

	if key != "" {
		span.SetAttributes(attribute.String("s3.key", key))
	}

	return ctx, span
}

// ============================================================================
// DOCUMENT STORE CALLS
// ============================================================================

// TraceDocstoreCall creates a span for document store operations
// Examples: insert, find_one, update_one, delete_one, find_all
func TraceDocstoreCall(ctx context.Context, operation, collection string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("docstore").Start(ctx, "docstore."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.operation", operation),
		),
	)

	if collection != "" {
		span.SetAttributes(attribute.String("db.collection", collection))
	}

	return ctx, span
}

// ============================================================================
// PUSH DISPATCH CALLS
// ============================================================================

// TracePushCall creates a span for push-dispatch operations
// Examples: send_multicast
func TracePushCall(ctx context.Context, operation string, tokenCount int) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("push").Start(ctx, "push."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("push.operation", operation),
		),
	)

	if tokenCount > 0 {
		span.SetAttributes(attribute.Int("push.token_count", tokenCount))
	}

	return ctx, span
}

// ============================================================================
// CACHE OPERATIONS
// ============================================================================

// TraceCacheCall creates a span for cache (Redis) operations
// Examples: set_nx, get, del
func TraceCacheCall(ctx context.Context, operation, key string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer("cache").Start(ctx, "cache."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cache.operation", operation),
		),
	)

	if key != "" {
		span.SetAttributes(attribute.String("cache.key", key))
	}

	return ctx, span
}

// ============================================================================
// ERROR AND SUCCESS RECORDING
// ============================================================================

// RecordServiceError records a service error in the current span
func RecordServiceError(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err, trace.WithStackTrace(true))
		span.SetAttributes(attribute.String("error.type", "service_error"))
	}
}

// RecordServiceSuccess marks the span as successfully completed
func RecordServiceSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
