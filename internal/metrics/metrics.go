package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics (webhook receiver)
	HTTPRequestsTotal     prometheus.CounterVec
	HTTPRequestDuration   prometheus.HistogramVec
	HTTPActiveConnections prometheus.GaugeVec

	// Moderation pipeline metrics
	ImagesClassifiedTotal         prometheus.CounterVec
	ImagesBlurredTotal            prometheus.Counter
	ModerationFailuresTotal       prometheus.CounterVec
	ModerationPartialCommitsTotal prometheus.Counter
	ModerationDuration            prometheus.Histogram

	// Notification fan-out metrics
	NotificationsSentTotal prometheus.CounterVec
	TokensPrunedTotal      prometheus.Counter
	FanoutDuration         prometheus.Histogram

	// Welcome emitter metrics
	WelcomeMessagesTotal prometheus.Counter

	// Event delivery metrics
	EventsTotal          prometheus.CounterVec
	DuplicateEventsTotal prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Initialize creates and registers all Prometheus metrics
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			// HTTP metrics
			HTTPRequestsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: *promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request latency in seconds",
					Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
				},
				[]string{"method", "path", "status"},
			),
			HTTPActiveConnections: *promauto.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "http_active_connections",
					Help: "Number of currently active HTTP connections",
				},
				[]string{"method", "path"},
			),

			// Moderation pipeline metrics
			ImagesClassifiedTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "images_classified_total",
					Help: "Total number of images classified, by verdict",
				},
				[]string{"verdict"},
			),
			ImagesBlurredTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "images_blurred_total",
					Help: "Total number of images blurred and re-uploaded",
				},
			),
			ModerationFailuresTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "moderation_failures_total",
					Help: "Total number of moderation pipeline failures, by stage",
				},
				[]string{"stage"},
			),
			ModerationPartialCommitsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "moderation_partial_commits_total",
					Help: "Blurred uploads whose message update failed, leaving an unmarked message",
				},
			),
			ModerationDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "moderation_duration_seconds",
					Help:    "End-to-end moderation pipeline latency in seconds",
					Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
				},
			),

			// Notification fan-out metrics
			NotificationsSentTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "notifications_sent_total",
					Help: "Per-token notification dispatch outcomes, by status",
				},
				[]string{"status"},
			),
			TokensPrunedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "device_tokens_pruned_total",
					Help: "Device tokens deleted after the dispatcher reported them gone",
				},
			),
			FanoutDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "notification_fanout_duration_seconds",
					Help:    "End-to-end notification fan-out latency in seconds",
					Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
				},
			),

			// Welcome emitter metrics
			WelcomeMessagesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "welcome_messages_total",
					Help: "Welcome messages appended for new accounts",
				},
			),

			// Event delivery metrics
			EventsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "platform_events_total",
					Help: "Platform events received, by source and type",
				},
				[]string{"source", "type"},
			),
			DuplicateEventsTotal: *promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "duplicate_events_total",
					Help: "Events skipped by the idempotency guard, by type",
				},
				[]string{"type"},
			),
		}
	})

	return instance
}

// Get returns the metrics instance, initializing it if needed
func Get() *Metrics {
	if instance == nil {
		return Initialize()
	}
	return instance
}
