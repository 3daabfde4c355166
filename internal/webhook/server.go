// Package webhook receives platform event deliveries over HTTP and routes
// them into the moderation, notification, and welcome flows. Deliveries are
// at-least-once; handlers consult the delivery guard and otherwise tolerate
// repeats.
package webhook

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/config"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/middleware"
	"github.com/parlorchat/functions/internal/models"
)

// ImageModerator runs the moderation pipeline for a finalized object.
// *moderation.Pipeline satisfies it.
type ImageModerator interface {
	HandleObjectFinalized(ctx context.Context, bucket, key string) error
}

// MessageNotifier fans a new message out to registered devices.
// *notify.Notifier satisfies it.
type MessageNotifier interface {
	HandleMessageCreated(ctx context.Context, msg *models.Message) error
}

// AccountGreeter posts the welcome message for a new account.
// *welcome.Emitter satisfies it.
type AccountGreeter interface {
	HandleAccountCreated(ctx context.Context, acct models.Account) (string, error)
}

// DeliveryGuard suppresses redelivered events. *cache.EventGuard satisfies
// it. A nil guard lets every delivery through.
type DeliveryGuard interface {
	FirstDelivery(ctx context.Context, eventID string) bool
	Forget(ctx context.Context, eventID string)
}

// healthCheck names a backing service and how to probe it.
type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// Server holds the webhook receiver's dependencies and builds its router.
type Server struct {
	cfg       *config.Config
	moderator ImageModerator
	notifier  MessageNotifier
	greeter   AccountGreeter
	guard     DeliveryGuard
	checks    []healthCheck
}

// NewServer creates a webhook server. The guard may be nil when no cache is
// configured.
func NewServer(cfg *config.Config, moderator ImageModerator, notifier MessageNotifier, greeter AccountGreeter, guard DeliveryGuard) *Server {
	if cfg.Webhook.Secret == "" {
		logger.Log.Warn("WEBHOOK_SECRET not set, accepting unsigned deliveries")
	}

	return &Server{
		cfg:       cfg,
		moderator: moderator,
		notifier:  notifier,
		greeter:   greeter,
		guard:     guard,
	}
}

// AddHealthCheck registers a named probe for the /health endpoint.
func (s *Server) AddHealthCheck(name string, check func(ctx context.Context) error) {
	s.checks = append(s.checks, healthCheck{name: name, check: check})
}

// Router builds the gin engine with the full middleware chain and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.DeliveryIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.TracingMiddleware(s.cfg.Telemetry.ServiceName))

	r.GET("/health", s.HandleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	hooks := r.Group("/webhooks")
	hooks.Use(middleware.RateLimitWebhooks())
	hooks.Use(s.verifySignature())
	hooks.POST("/chat", s.HandleChatEvent)
	hooks.POST("/storage", s.HandleStorageEvent)

	return r
}

// HandleHealth reports the reachability of the backing services
// GET /health
func (s *Server) HandleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := gin.H{}
	for _, hc := range s.checks {
		if err := hc.check(ctx); err != nil {
			logger.Log.Warn("Health check failed",
				zap.String("check", hc.name),
				zap.Error(err),
			)
			results[hc.name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[hc.name] = "ok"
	}

	body := gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"service":   "parlor-functions",
		"checks":    results,
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}

	c.JSON(status, body)
}
