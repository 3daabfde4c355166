package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/cache"
	"github.com/parlorchat/functions/internal/config"
	"github.com/parlorchat/functions/internal/container"
	"github.com/parlorchat/functions/internal/docstore"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/moderation"
	"github.com/parlorchat/functions/internal/notify"
	"github.com/parlorchat/functions/internal/push"
	"github.com/parlorchat/functions/internal/storage"
	"github.com/parlorchat/functions/internal/telemetry"
	"github.com/parlorchat/functions/internal/vision"
	"github.com/parlorchat/functions/internal/webhook"
	"github.com/parlorchat/functions/internal/welcome"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Parlor functions webhookd starting ===",
		zap.String("env", cfg.Env),
		zap.String("addr", cfg.Webhook.Addr),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  cfg.Telemetry.ServiceName,
		Environment:  cfg.Env,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		Enabled:      cfg.Telemetry.Enabled,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.FatalWithFields("Failed to initialize tracing", err)
	}

	ctx := context.Background()
	c := container.New().WithConfig(cfg).WithLogger(logger.Log)

	// Document store
	docs, err := docstore.Connect(ctx, cfg.Mongo)
	if err != nil {
		logger.FatalWithFields("Failed to connect to document store", err)
	}
	messages := docstore.NewMessageStore(docs)
	tokens := docstore.NewTokenStore(docs)
	c.WithDocstore(docs).WithMessageStore(messages).WithTokenStore(tokens)
	c.OnCleanup(func(ctx context.Context) error { return docs.Close(ctx) })

	// Blob store
	blobs, err := storage.NewS3BlobStore(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.BaseURL)
	if err != nil {
		logger.FatalWithFields("Failed to initialize blob store", err)
	}
	if err := blobs.CheckBucketAccess(ctx); err != nil {
		logger.Log.Warn("S3 bucket access failed, moderation will fail until it recovers",
			zap.String("bucket", cfg.S3.Bucket),
			zap.Error(err),
		)
	}
	c.WithBlobStore(blobs)

	// Image classifier
	classifier, err := vision.NewClient(ctx, cfg.Vision)
	if err != nil {
		logger.FatalWithFields("Failed to initialize image classifier", err)
	}
	c.WithClassifier(classifier)
	c.OnCleanup(func(ctx context.Context) error { return classifier.Close() })

	// Push dispatcher
	dispatcher, err := push.NewFCMDispatcher(ctx, cfg.FCM)
	if err != nil {
		logger.FatalWithFields("Failed to initialize push dispatcher", err)
	}
	c.WithPushDispatcher(dispatcher)

	// Optional Redis event guard
	var guard *cache.EventGuard
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, duplicate deliveries will be processed",
				zap.String("addr", cfg.Redis.Addr),
				zap.Error(err),
			)
		} else {
			guard = cache.NewEventGuard(redisClient, cache.DefaultEventTTL)
			c.WithCache(redisClient).WithEventGuard(guard)
			c.OnCleanup(func(ctx context.Context) error { return redisClient.Close() })
		}
	}

	// Event flows
	pipeline := moderation.NewPipeline(blobs, classifier, messages, cfg.Moderation.ScratchDir)
	notifier := notify.NewNotifier(tokens, dispatcher, cfg.AppURL)
	emitter := welcome.NewEmitter(messages)
	c.WithModerationPipeline(pipeline).WithNotifier(notifier).WithWelcomeEmitter(emitter)

	if err := c.Validate(); err != nil {
		logger.FatalWithFields("Container validation failed", err)
	}

	// HTTP server
	server := webhook.NewServer(cfg, pipeline, notifier, emitter, guard)
	server.AddHealthCheck("mongo", docs.Ping)
	server.AddHealthCheck("s3", blobs.CheckBucketAccess)
	if cached := c.Cache(); cached != nil {
		server.AddHealthCheck("redis", cached.Ping)
	}

	srv := &http.Server{
		Addr:    cfg.Webhook.Addr,
		Handler: server.Router(),
	}

	go func() {
		logger.Log.Info("Webhook receiver listening", zap.String("addr", cfg.Webhook.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding deliveries 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}

	if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
		logger.ErrorWithFields("Tracer shutdown failed", err)
	}

	if err := c.Cleanup(shutdownCtx); err != nil {
		logger.ErrorWithFields("Cleanup finished with errors", err)
	}

	logger.Log.Info("Server exited")
}
