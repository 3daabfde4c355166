// Package blur applies the irreversible blur used on images flagged by
// moderation.
package blur

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// DefaultSigma is the Gaussian radius applied to flagged images. Large
// enough that the original content is unrecognizable at any display size.
const DefaultSigma = 24.0

// File blurs the image at path in place, across all color channels. The
// output format follows the file extension, so the object keeps its original
// encoding when re-uploaded.
func File(path string) error {
	img, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image %s: %w", path, err)
	}

	blurred := imaging.Blur(img, DefaultSigma)

	if err := imaging.Save(blurred, path); err != nil {
		return fmt.Errorf("failed to save blurred image %s: %w", path, err)
	}

	return nil
}
