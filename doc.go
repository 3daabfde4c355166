// Package functions provides the Parlor chat backend functions.

// This package is documentation only. The behavior lives in subpackages:

// - internal/moderation: image classification and blur pipeline
// - internal/notify: push-notification fan-out and token pruning
// - internal/welcome: welcome message for new accounts
// - internal/reconcile: repair of interrupted moderation runs
// - internal/webhook: HTTP receiver for platform event deliveries
// - internal/docstore: MongoDB document store access
// - internal/storage: blob storage (S3) operations
// - internal/vision: SafeSearch likelihood classifier
// - internal/push: FCM dispatch with per-token results
// - internal/blur: Gaussian blur transform
// - internal/cache: Redis client and event idempotency guard
// - internal/container: per-process service wiring
// - internal/middleware: HTTP middleware (request ids, rate limiting, etc.)
// - internal/metrics: Prometheus collectors
// - internal/telemetry: OpenTelemetry tracing helpers
// - internal/seed: development data seeder

// Entrypoints are under cmd/: webhookd (HTTP receiver), fn-moderator,
// fn-notifier, fn-greeter (Lambda), and parlorfn (operations CLI).
package functions
