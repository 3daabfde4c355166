// Package container provides dependency injection management for the Parlor
// functions backend. It consolidates all services and provides type-safe
// access to dependencies.
package container

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/cache"
	"github.com/parlorchat/functions/internal/config"
	"github.com/parlorchat/functions/internal/docstore"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/moderation"
	"github.com/parlorchat/functions/internal/notify"
	"github.com/parlorchat/functions/internal/push"
	"github.com/parlorchat/functions/internal/storage"
	"github.com/parlorchat/functions/internal/vision"
	"github.com/parlorchat/functions/internal/welcome"
)

// Container holds all application dependencies and provides type-safe access.
// It implements the Service Locator pattern with additional lifecycle
// management.
type Container struct {
	// Core infrastructure
	cfg    *config.Config
	logger *zap.Logger
	cache  *cache.RedisClient
	docs   *docstore.Client

	// Document stores
	messages *docstore.MessageStore
	tokens   *docstore.TokenStore

	// API clients
	blobs      storage.BlobStore
	classifier vision.Classifier
	push       push.Dispatcher

	// Event handlers
	moderation *moderation.Pipeline
	notifier   *notify.Notifier
	welcome    *welcome.Emitter
	guard      *cache.EventGuard

	// Lifecycle hooks
	cleanupFuncs []func(context.Context) error
	mu           sync.RWMutex
}

// New creates a new empty container.
// Services should be registered using Set* methods.
func New() *Container {
	return &Container{
		cleanupFuncs: make([]func(context.Context) error, 0),
	}
}

// ============================================================================
// CORE INFRASTRUCTURE SETTERS/GETTERS
// ============================================================================

// SetConfig registers the loaded configuration
func (c *Container) SetConfig(cfg *config.Config) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
	return c
}

// Config returns the loaded configuration
func (c *Container) Config() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// SetLogger registers the logger
func (c *Container) SetLogger(l *zap.Logger) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
	return c
}

// Logger returns the logger instance
func (c *Container) Logger() *zap.Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.logger == nil {
		return logger.Log
	}
	return c.logger
}

// SetCache registers the Redis cache client
func (c *Container) SetCache(client *cache.RedisClient) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = client
	return c
}

// Cache returns the Redis cache client
func (c *Container) Cache() *cache.RedisClient {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// SetDocstore registers the document store client
func (c *Container) SetDocstore(client *docstore.Client) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = client
	return c
}

// Docstore returns the document store client
func (c *Container) Docstore() *docstore.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.docs
}

// ============================================================================
// DOCUMENT STORE SETTERS/GETTERS
// ============================================================================

// SetMessageStore registers the message store
func (c *Container) SetMessageStore(store *docstore.MessageStore) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = store
	return c
}

// Messages returns the message store
func (c *Container) Messages() *docstore.MessageStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.messages
}

// SetTokenStore registers the device-token store
func (c *Container) SetTokenStore(store *docstore.TokenStore) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens = store
	return c
}

// Tokens returns the device-token store
func (c *Container) Tokens() *docstore.TokenStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

// ============================================================================
// API CLIENT SETTERS/GETTERS
// ============================================================================

// SetBlobStore registers the blob store client
func (c *Container) SetBlobStore(store storage.BlobStore) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blobs = store
	return c
}

// Blobs returns the blob store client
func (c *Container) Blobs() storage.BlobStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.blobs
}

// SetClassifier registers the image-safety classifier
func (c *Container) SetClassifier(classifier vision.Classifier) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.classifier = classifier
	return c
}

// Classifier returns the image-safety classifier
func (c *Container) Classifier() vision.Classifier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.classifier
}

// SetPushDispatcher registers the push-notification dispatcher
func (c *Container) SetPushDispatcher(dispatcher push.Dispatcher) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.push = dispatcher
	return c
}

// Push returns the push-notification dispatcher
func (c *Container) Push() push.Dispatcher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.push
}

// ============================================================================
// EVENT HANDLER SETTERS/GETTERS
// ============================================================================

// SetModerationPipeline registers the moderation pipeline
func (c *Container) SetModerationPipeline(pipeline *moderation.Pipeline) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moderation = pipeline
	return c
}

// Moderation returns the moderation pipeline
func (c *Container) Moderation() *moderation.Pipeline {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.moderation
}

// SetNotifier registers the notification fan-out
func (c *Container) SetNotifier(notifier *notify.Notifier) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notifier = notifier
	return c
}

// Notifier returns the notification fan-out
func (c *Container) Notifier() *notify.Notifier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notifier
}

// SetWelcomeEmitter registers the welcome emitter
func (c *Container) SetWelcomeEmitter(emitter *welcome.Emitter) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.welcome = emitter
	return c
}

// Welcome returns the welcome emitter
func (c *Container) Welcome() *welcome.Emitter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.welcome
}

// SetEventGuard registers the duplicate-event guard
func (c *Container) SetEventGuard(guard *cache.EventGuard) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.guard = guard
	return c
}

// Guard returns the duplicate-event guard
func (c *Container) Guard() *cache.EventGuard {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.guard
}

// ============================================================================
// LIFECYCLE MANAGEMENT
// ============================================================================

// OnCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first cleaned
// up). This ensures proper dependency ordering during shutdown.
func (c *Container) OnCleanup(fn func(context.Context) error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanupFuncs = append(c.cleanupFuncs, fn)
	return c
}

// Cleanup performs graceful shutdown of all registered services.
// It calls cleanup functions in reverse order of registration.
func (c *Container) Cleanup(ctx context.Context) error {
	log := c.Logger()

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](ctx); err != nil {
			// Log error but continue cleanup
			log.Error("Cleanup function failed",
				zap.Int("index", i),
				zap.Error(err))
		}
	}

	return nil
}

// ============================================================================
// VALIDATION
// ============================================================================

// Validate checks that all required dependencies are registered.
// This should be called after initialization and before starting the server.
func (c *Container) Validate() error {
	log := c.Logger()

	c.mu.RLock()
	defer c.mu.RUnlock()

	missingDeps := []string{}

	if c.docs == nil {
		missingDeps = append(missingDeps, "document store client")
	}
	if c.messages == nil {
		missingDeps = append(missingDeps, "message store")
	}
	if c.tokens == nil {
		missingDeps = append(missingDeps, "device-token store")
	}
	if c.blobs == nil {
		missingDeps = append(missingDeps, "blob store")
	}
	if c.classifier == nil {
		missingDeps = append(missingDeps, "image classifier")
	}
	if c.push == nil {
		missingDeps = append(missingDeps, "push dispatcher")
	}

	// Optional but worth a warning if missing
	optionalDeps := []struct {
		name    string
		missing bool
	}{
		{"Redis cache", c.cache == nil},
		{"duplicate-event guard", c.guard == nil},
	}
	for _, dep := range optionalDeps {
		if dep.missing {
			log.Warn("Optional dependency not registered",
				zap.String("dependency", dep.name))
		}
	}

	if len(missingDeps) > 0 {
		return NewInitializationError("Missing required dependencies", missingDeps)
	}

	return nil
}

// ============================================================================
// FLUENT API SUPPORT
// ============================================================================

// WithConfig is a fluent setter for configuration
func (c *Container) WithConfig(cfg *config.Config) *Container {
	return c.SetConfig(cfg)
}

// WithLogger is a fluent setter for logger
func (c *Container) WithLogger(l *zap.Logger) *Container {
	return c.SetLogger(l)
}

// WithCache is a fluent setter for cache
func (c *Container) WithCache(client *cache.RedisClient) *Container {
	return c.SetCache(client)
}

// WithDocstore is a fluent setter for the document store client
func (c *Container) WithDocstore(client *docstore.Client) *Container {
	return c.SetDocstore(client)
}

// WithMessageStore is a fluent setter for the message store
func (c *Container) WithMessageStore(store *docstore.MessageStore) *Container {
	return c.SetMessageStore(store)
}

// WithTokenStore is a fluent setter for the device-token store
func (c *Container) WithTokenStore(store *docstore.TokenStore) *Container {
	return c.SetTokenStore(store)
}

// WithBlobStore is a fluent setter for the blob store
func (c *Container) WithBlobStore(store storage.BlobStore) *Container {
	return c.SetBlobStore(store)
}

// WithClassifier is a fluent setter for the image classifier
func (c *Container) WithClassifier(classifier vision.Classifier) *Container {
	return c.SetClassifier(classifier)
}

// WithPushDispatcher is a fluent setter for the push dispatcher
func (c *Container) WithPushDispatcher(dispatcher push.Dispatcher) *Container {
	return c.SetPushDispatcher(dispatcher)
}

// WithModerationPipeline is a fluent setter for the moderation pipeline
func (c *Container) WithModerationPipeline(pipeline *moderation.Pipeline) *Container {
	return c.SetModerationPipeline(pipeline)
}

// WithNotifier is a fluent setter for the notification fan-out
func (c *Container) WithNotifier(notifier *notify.Notifier) *Container {
	return c.SetNotifier(notifier)
}

// WithWelcomeEmitter is a fluent setter for the welcome emitter
func (c *Container) WithWelcomeEmitter(emitter *welcome.Emitter) *Container {
	return c.SetWelcomeEmitter(emitter)
}

// WithEventGuard is a fluent setter for the duplicate-event guard
func (c *Container) WithEventGuard(guard *cache.EventGuard) *Container {
	return c.SetEventGuard(guard)
}
