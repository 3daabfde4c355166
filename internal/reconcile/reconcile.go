// Package reconcile repairs messages left unmarked by a moderation run that
// failed after overwriting the stored image. Blurred uploads carry a
// "moderated" metadata flag, so the stored object is the source of truth.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/models"
	"github.com/parlorchat/functions/internal/storage"
)

// MessageLister is the message-store slice the reconciler needs.
// *docstore.MessageStore satisfies it.
type MessageLister interface {
	ListUnmoderatedWithImages(ctx context.Context) ([]models.Message, error)
	SetModerated(ctx context.Context, id string) error
}

// Reconciler scans unmoderated messages with images and marks the ones whose
// stored object was already blurred.
type Reconciler struct {
	messages MessageLister
	blobs    storage.BlobStore
	dryRun   bool
}

// Report summarizes one reconcile pass.
type Report struct {
	Scanned  int
	Repaired int
	Healthy  int
	Errors   int
}

// New wires a reconciler. In dry-run mode messages are counted but not
// updated.
func New(messages MessageLister, blobs storage.BlobStore, dryRun bool) *Reconciler {
	return &Reconciler{
		messages: messages,
		blobs:    blobs,
		dryRun:   dryRun,
	}
}

// Run performs one reconcile pass. Per-message failures are counted and
// logged, not fatal; only a failed listing aborts the pass.
func (r *Reconciler) Run(ctx context.Context) (Report, error) {
	msgs, err := r.messages.ListUnmoderatedWithImages(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list unmoderated messages: %w", err)
	}

	report := Report{Scanned: len(msgs)}
	for _, msg := range msgs {
		key, err := r.blobs.KeyFromURL(msg.ImageURL)
		if err != nil {
			report.Errors++
			logger.Log.Warn("Skipping message with unmappable image URL",
				logger.WithMessageID(msg.ID),
				zap.String("image_url", msg.ImageURL),
				zap.Error(err))
			continue
		}

		meta, err := r.blobs.Head(ctx, key)
		if err != nil {
			report.Errors++
			logger.Log.Warn("Failed to inspect stored object",
				logger.WithMessageID(msg.ID),
				logger.WithObjectKey(key),
				zap.Error(err))
			continue
		}

		if !strings.EqualFold(metadataValue(meta, "moderated"), "true") {
			report.Healthy++
			continue
		}

		if r.dryRun {
			report.Repaired++
			logger.Log.Info("Would mark message moderated (dry run)",
				logger.WithMessageID(msg.ID),
				logger.WithObjectKey(key))
			continue
		}

		if err := r.messages.SetModerated(ctx, msg.ID); err != nil {
			report.Errors++
			logger.Log.Warn("Failed to mark message moderated",
				logger.WithMessageID(msg.ID),
				zap.Error(err))
			continue
		}

		report.Repaired++
		logger.Log.Info("Marked message moderated",
			logger.WithMessageID(msg.ID),
			logger.WithObjectKey(key))
	}

	return report, nil
}

// metadataValue looks a key up ignoring case; stored metadata keys come back
// with driver-dependent casing.
func metadataValue(meta map[string]string, key string) string {
	for k, v := range meta {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}
