package vision

import (
	"context"
	"fmt"

	vision "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/parlorchat/functions/internal/config"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/telemetry"
)

// Client calls the Cloud Vision SafeSearch API.
type Client struct {
	annotator *vision.ImageAnnotatorClient
}

// Compile-time check that Client satisfies the Classifier interface
var _ Classifier = (*Client)(nil)

// NewClient creates a SafeSearch client. With an empty credentials file it
// falls back to application default credentials.
func NewClient(ctx context.Context, cfg config.VisionConfig) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	annotator, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}

	return &Client{annotator: annotator}, nil
}

// Classify runs SafeSearch detection against the image at the given URL and
// returns the adult and violence likelihoods.
func (c *Client) Classify(ctx context.Context, imageURL string) (Result, error) {
	ctx, span := telemetry.TraceClassifierCall(ctx, "detect_safe_search", imageURL)
	defer span.End()

	annotation, err := c.annotator.DetectSafeSearch(ctx, vision.NewImageFromURI(imageURL), nil)
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return Result{}, fmt.Errorf("safe search detection failed: %w", err)
	}
	if annotation == nil {
		err := fmt.Errorf("safe search returned no annotation for %s", imageURL)
		telemetry.RecordServiceError(span, err)
		return Result{}, err
	}
	telemetry.RecordServiceSuccess(span)

	result := Result{
		Adult:    fromProto(annotation.Adult),
		Violence: fromProto(annotation.Violence),
	}

	logger.Log.Debug("Image classified",
		zap.String("image_url", imageURL),
		zap.String("adult", result.Adult.String()),
		zap.String("violence", result.Violence.String()),
	)

	return result, nil
}

// Close releases the underlying API connection.
func (c *Client) Close() error {
	return c.annotator.Close()
}

// fromProto converts the API's likelihood enum onto our ordinal scale.
func fromProto(l visionpb.Likelihood) Likelihood {
	switch l {
	case visionpb.Likelihood_VERY_UNLIKELY:
		return LikelihoodVeryUnlikely
	case visionpb.Likelihood_UNLIKELY:
		return LikelihoodUnlikely
	case visionpb.Likelihood_POSSIBLE:
		return LikelihoodPossible
	case visionpb.Likelihood_LIKELY:
		return LikelihoodLikely
	case visionpb.Likelihood_VERY_LIKELY:
		return LikelihoodVeryLikely
	default:
		return LikelihoodUnknown
	}
}
