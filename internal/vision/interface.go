package vision

import "context"

// Classifier scores an image, referenced by URL, for unsafe content. The
// production implementation calls Cloud Vision; tests substitute a mock.
type Classifier interface {
	Classify(ctx context.Context, imageURL string) (Result, error)
}
