package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/metrics"
	"github.com/parlorchat/functions/internal/models"
	"github.com/parlorchat/functions/internal/push"
)

// TokenDirectory is the device-token registry the fan-out reads and prunes.
// *docstore.TokenStore satisfies it.
type TokenDirectory interface {
	All(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, token string) error
}

// Notifier fans one new message out to every registered device.
type Notifier struct {
	tokens TokenDirectory
	push   push.Dispatcher
	appURL string
}

// NewNotifier wires a notification fan-out.
func NewNotifier(tokens TokenDirectory, dispatcher push.Dispatcher, appURL string) *Notifier {
	return &Notifier{
		tokens: tokens,
		push:   dispatcher,
		appURL: appURL,
	}
}

// HandleMessageCreated builds the payload for msg, dispatches it to every
// registered token in one batched call, and deletes registrations the
// dispatcher reports as gone. Deletions run concurrently and are all awaited
// before the handler returns.
func (n *Notifier) HandleMessageCreated(ctx context.Context, msg *models.Message) error {
	m := metrics.Get()
	start := time.Now()
	defer func() {
		m.FanoutDuration.Observe(time.Since(start).Seconds())
	}()

	tokens, err := n.tokens.All(ctx)
	if err != nil {
		return fmt.Errorf("failed to load device tokens: %w", err)
	}
	if len(tokens) == 0 {
		logger.Log.Info("No registered devices, skipping dispatch",
			logger.WithMessageID(msg.ID))
		return nil
	}

	results, err := n.push.SendToMany(ctx, tokens, BuildPayload(msg, n.appURL))
	if err != nil {
		return fmt.Errorf("failed to dispatch notifications: %w", err)
	}

	var stale []string
	for _, res := range results {
		switch {
		case res.Success():
			m.NotificationsSentTotal.WithLabelValues("success").Inc()
		case res.Kind.TokenGone():
			m.NotificationsSentTotal.WithLabelValues(res.Kind.String()).Inc()
			stale = append(stale, res.Token)
		default:
			m.NotificationsSentTotal.WithLabelValues(res.Kind.String()).Inc()
			logger.Log.Warn("Notification dispatch failed",
				zap.String("token", res.Token),
				zap.String("kind", res.Kind.String()),
				zap.Error(res.Err))
		}
	}

	logger.Log.Info("Notifications dispatched",
		logger.WithMessageID(msg.ID),
		logger.WithTokenCount(len(tokens)),
		zap.Int("stale_tokens", len(stale)))

	if len(stale) == 0 {
		return nil
	}
	return n.pruneTokens(ctx, stale)
}

// pruneTokens deletes stale token registrations concurrently and waits for
// every deletion to finish.
func (n *Notifier) pruneTokens(ctx context.Context, stale []string) error {
	m := metrics.Get()

	g, ctx := errgroup.WithContext(ctx)
	for _, token := range stale {
		g.Go(func() error {
			if err := n.tokens.Delete(ctx, token); err != nil {
				return fmt.Errorf("failed to delete stale token: %w", err)
			}
			m.TokensPrunedTotal.Inc()
			return nil
		})
	}
	return g.Wait()
}
