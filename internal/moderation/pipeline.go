package moderation

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/blur"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/metrics"
	"github.com/parlorchat/functions/internal/storage"
	"github.com/parlorchat/functions/internal/vision"
)

// MessageMarker records the moderation decision on the owning message.
// *docstore.MessageStore satisfies it.
type MessageMarker interface {
	SetModerated(ctx context.Context, id string) error
}

// Pipeline runs the moderation flow for one finalized object at a time:
// classify the image, and when it scores unsafe, blur it in place in the blob
// store and mark the owning message. Steps are strictly sequential; each
// step's output is the next step's input.
type Pipeline struct {
	blobs      storage.BlobStore
	classifier vision.Classifier
	messages   MessageMarker
	scratchDir string

	// transform blurs a local file in place. Tests swap it out to count
	// invocations or force failures.
	transform func(path string) error
}

// NewPipeline wires a moderation pipeline. scratchDir is created on first
// use.
func NewPipeline(blobs storage.BlobStore, classifier vision.Classifier, messages MessageMarker, scratchDir string) *Pipeline {
	return &Pipeline{
		blobs:      blobs,
		classifier: classifier,
		messages:   messages,
		scratchDir: scratchDir,
		transform:  blur.File,
	}
}

// HandleObjectFinalized processes one finalized object. Safe images are
// logged and left untouched; unsafe images are blurred, re-uploaded to the
// same path, and the owning message is marked moderated.
func (p *Pipeline) HandleObjectFinalized(ctx context.Context, bucket, key string) error {
	m := metrics.Get()
	start := time.Now()
	defer func() {
		m.ModerationDuration.Observe(time.Since(start).Seconds())
	}()

	ref, err := ParseObjectPath(bucket, key)
	if err != nil {
		m.ModerationFailuresTotal.WithLabelValues("parse").Inc()
		logger.Log.Error("Rejecting object with unusable path",
			logger.WithBucket(bucket),
			logger.WithObjectKey(key),
			zap.Error(err))
		return err
	}

	result, err := p.classifier.Classify(ctx, p.blobs.ObjectURL(ref.Path))
	if err != nil {
		m.ModerationFailuresTotal.WithLabelValues("classify").Inc()
		return fmt.Errorf("failed to classify %s: %w", ref.Path, err)
	}

	if !result.Unsafe() {
		m.ImagesClassifiedTotal.WithLabelValues("safe").Inc()
		logger.Log.Info("Image classified safe, leaving untouched",
			logger.WithObjectKey(ref.Path),
			logger.WithMessageID(ref.MessageID),
			zap.String("adult", result.Adult.String()),
			zap.String("violence", result.Violence.String()))
		return nil
	}

	m.ImagesClassifiedTotal.WithLabelValues("unsafe").Inc()
	logger.Log.Warn("Image classified unsafe, blurring",
		logger.WithBucket(ref.Bucket),
		logger.WithObjectKey(ref.Path),
		logger.WithMessageID(ref.MessageID),
		zap.String("adult", result.Adult.String()),
		zap.String("violence", result.Violence.String()))

	return p.blurObject(ctx, ref)
}

// blurObject stages the object in a scratch file, blurs it, overwrites the
// stored object, and marks the owning message. The scratch file never
// survives the call once the download has created it.
func (p *Pipeline) blurObject(ctx context.Context, ref ObjectRef) error {
	m := metrics.Get()

	if err := os.MkdirAll(p.scratchDir, 0o755); err != nil {
		m.ModerationFailuresTotal.WithLabelValues("download").Inc()
		return fmt.Errorf("failed to create scratch dir %s: %w", p.scratchDir, err)
	}

	// Scratch name comes from the object's base name. Concurrent invocations
	// touching objects with colliding base names share no isolation.
	scratch := filepath.Join(p.scratchDir, path.Base(ref.Path))

	if err := p.blobs.Download(ctx, ref.Path, scratch); err != nil {
		m.ModerationFailuresTotal.WithLabelValues("download").Inc()
		return fmt.Errorf("failed to download %s: %w", ref.Path, err)
	}
	defer os.Remove(scratch)

	if err := p.transform(scratch); err != nil {
		m.ModerationFailuresTotal.WithLabelValues("transform").Inc()
		return fmt.Errorf("failed to blur %s: %w", ref.Path, err)
	}

	if err := p.blobs.Upload(ctx, scratch, ref.Path, map[string]string{"moderated": "true"}); err != nil {
		m.ModerationFailuresTotal.WithLabelValues("upload").Inc()
		return fmt.Errorf("failed to re-upload %s: %w", ref.Path, err)
	}
	m.ImagesBlurredTotal.Inc()

	if err := p.messages.SetModerated(ctx, ref.MessageID); err != nil {
		// The blurred file has already replaced the original, so the store
		// and the message now disagree until a reconcile pass runs.
		m.ModerationFailuresTotal.WithLabelValues("mark").Inc()
		m.ModerationPartialCommitsTotal.Inc()
		logger.Log.Error("Blurred image stored but message left unmarked",
			logger.WithBucket(ref.Bucket),
			logger.WithObjectKey(ref.Path),
			logger.WithMessageID(ref.MessageID),
			zap.Error(err))
		return fmt.Errorf("failed to mark message %s moderated: %w", ref.MessageID, err)
	}

	logger.Log.Info("Image blurred and message marked moderated",
		logger.WithObjectKey(ref.Path),
		logger.WithMessageID(ref.MessageID))
	return nil
}
