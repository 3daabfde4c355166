package moderation

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/storage"
	"github.com/parlorchat/functions/internal/vision"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

// MockMessageMarker implements MessageMarker for testing
type MockMessageMarker struct {
	MarkedIDs  []string
	ShouldFail bool
}

func (m *MockMessageMarker) SetModerated(ctx context.Context, id string) error {
	if m.ShouldFail {
		return fmt.Errorf("mock update failure")
	}
	m.MarkedIDs = append(m.MarkedIDs, id)
	return nil
}

// pipelineFixture bundles a pipeline with its mocked collaborators
type pipelineFixture struct {
	blobs      *storage.MockBlobStore
	classifier *vision.MockClassifier
	marker     *MockMessageMarker
	pipeline   *Pipeline
	scratchDir string
	transforms int
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	f := &pipelineFixture{
		blobs:      storage.NewMockBlobStore(),
		classifier: vision.NewMockClassifier(),
		marker:     &MockMessageMarker{},
		scratchDir: t.TempDir(),
	}
	f.pipeline = NewPipeline(f.blobs, f.classifier, f.marker, f.scratchDir)
	f.pipeline.transform = func(path string) error {
		f.transforms++
		return nil
	}
	return f
}

func (f *pipelineFixture) scratchPath(base string) string {
	return filepath.Join(f.scratchDir, base)
}

// =============================================================================
// CLASSIFICATION DECISION TESTS
// =============================================================================

func TestHandleObjectFinalizedLeavesSafeImageAlone(t *testing.T) {
	f := newPipelineFixture(t)

	err := f.pipeline.HandleObjectFinalized(context.Background(), "chat-uploads", "images/msg123/photo.png")
	require.NoError(t, err)

	assert.True(t, f.blobs.AssertNotCalled("Download"), "Safe image should not be downloaded")
	assert.True(t, f.blobs.AssertNotCalled("Upload"), "Safe image should not be re-uploaded")
	assert.Equal(t, 0, f.transforms, "Safe image should not be transformed")
	assert.Empty(t, f.marker.MarkedIDs, "Safe image should not mutate the message")
}

func TestHandleObjectFinalizedClassifiesByPublicURL(t *testing.T) {
	f := newPipelineFixture(t)

	err := f.pipeline.HandleObjectFinalized(context.Background(), "chat-uploads", "images/msg123/photo.png")
	require.NoError(t, err)

	calls := f.classifier.GetCallsForMethod("Classify")
	require.Len(t, calls, 1)
	assert.Equal(t, "https://cdn.test/images/msg123/photo.png", calls[0].Args[0])
}

func TestHandleObjectFinalizedBlursUnsafeImage(t *testing.T) {
	tests := []struct {
		name   string
		result vision.Result
	}{
		{
			name:   "adult likely",
			result: vision.Result{Adult: vision.LikelihoodLikely, Violence: vision.LikelihoodUnlikely},
		},
		{
			name:   "violence likely",
			result: vision.Result{Adult: vision.LikelihoodVeryUnlikely, Violence: vision.LikelihoodLikely},
		},
		{
			name:   "adult very likely",
			result: vision.Result{Adult: vision.LikelihoodVeryLikely, Violence: vision.LikelihoodUnknown},
		},
		{
			name:   "both very likely",
			result: vision.Result{Adult: vision.LikelihoodVeryLikely, Violence: vision.LikelihoodVeryLikely},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPipelineFixture(t)
			f.classifier.ClassifyFunc = func(ctx context.Context, imageURL string) (vision.Result, error) {
				return tt.result, nil
			}

			err := f.pipeline.HandleObjectFinalized(context.Background(), "chat-uploads", "images/msg123/photo.png")
			require.NoError(t, err)

			assert.True(t, f.blobs.AssertCallCount("Download", 1), "Unsafe image should be downloaded exactly once")
			assert.Equal(t, 1, f.transforms, "Unsafe image should be transformed exactly once")
			assert.True(t, f.blobs.AssertCallCount("Upload", 1), "Unsafe image should be re-uploaded exactly once")
			assert.Equal(t, []string{"msg123"}, f.marker.MarkedIDs, "Owning message should be marked moderated")

			uploads := f.blobs.GetCallsForMethod("Upload")
			require.Len(t, uploads, 1)
			assert.Equal(t, "images/msg123/photo.png", uploads[0].Args[1], "Blurred file should overwrite the original path")

			metadata, ok := uploads[0].Args[2].(map[string]string)
			require.True(t, ok)
			assert.Equal(t, "true", metadata["moderated"])
		})
	}
}

func TestHandleObjectFinalizedPossibleScoresAreSafe(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.ClassifyFunc = func(ctx context.Context, imageURL string) (vision.Result, error) {
		return vision.Result{Adult: vision.LikelihoodPossible, Violence: vision.LikelihoodPossible}, nil
	}

	err := f.pipeline.HandleObjectFinalized(context.Background(), "chat-uploads", "images/msg123/photo.png")
	require.NoError(t, err)

	assert.True(t, f.blobs.AssertNotCalled("Download"))
	assert.Empty(t, f.marker.MarkedIDs)
}

// =============================================================================
// FAILURE AND CLEANUP TESTS
// =============================================================================

func TestHandleObjectFinalizedMalformedPath(t *testing.T) {
	f := newPipelineFixture(t)

	err := f.pipeline.HandleObjectFinalized(context.Background(), "chat-uploads", "photo.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedObjectPath)

	assert.True(t, f.classifier.AssertNotCalled("Classify"), "Malformed path should fail before classification")
	assert.Empty(t, f.marker.MarkedIDs)
}

func TestHandleObjectFinalizedClassifierFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.ClassifyFunc = func(ctx context.Context, imageURL string) (vision.Result, error) {
		return vision.Result{}, fmt.Errorf("safe search unavailable")
	}

	err := f.pipeline.HandleObjectFinalized(context.Background(), "chat-uploads", "images/msg123/photo.png")
	require.Error(t, err)

	assert.True(t, f.blobs.AssertNotCalled("Download"), "Classifier failure should stop before any download")
	assert.Empty(t, f.marker.MarkedIDs)
}

func TestHandleObjectFinalizedDownloadFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.ClassifyFunc = func(ctx context.Context, imageURL string) (vision.Result, error) {
		return vision.Result{Adult: vision.LikelihoodLikely}, nil
	}
	f.blobs.DownloadFunc = func(ctx context.Context, key, localPath string) error {
		return fmt.Errorf("object gone")
	}

	err := f.pipeline.HandleObjectFinalized(context.Background(), "chat-uploads", "images/msg123/photo.png")
	require.Error(t, err)

	assert.Equal(t, 0, f.transforms, "Failed download should stop before transform")
	assert.True(t, f.blobs.AssertNotCalled("Upload"))
	assert.Empty(t, f.marker.MarkedIDs)
	assert.NoFileExists(t, f.scratchPath("photo.png"))
}

func TestHandleObjectFinalizedTransformFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.ClassifyFunc = func(ctx context.Context, imageURL string) (vision.Result, error) {
		return vision.Result{Adult: vision.LikelihoodLikely}, nil
	}
	f.pipeline.transform = func(path string) error {
		assert.FileExists(t, path, "Scratch file should exist while transforming")
		return fmt.Errorf("corrupt image")
	}

	err := f.pipeline.HandleObjectFinalized(context.Background(), "chat-uploads", "images/msg123/photo.png")
	require.Error(t, err)

	assert.True(t, f.blobs.AssertNotCalled("Upload"), "Failed transform should not upload")
	assert.Empty(t, f.marker.MarkedIDs, "Failed transform should leave the message unmodified")
	assert.NoFileExists(t, f.scratchPath("photo.png"), "Scratch file should be removed after a failed transform")
}

func TestHandleObjectFinalizedUploadFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.ClassifyFunc = func(ctx context.Context, imageURL string) (vision.Result, error) {
		return vision.Result{Adult: vision.LikelihoodLikely}, nil
	}
	f.blobs.UploadFunc = func(ctx context.Context, localPath, key string, metadata map[string]string) error {
		return fmt.Errorf("bucket unavailable")
	}

	err := f.pipeline.HandleObjectFinalized(context.Background(), "chat-uploads", "images/msg123/photo.png")
	require.Error(t, err)

	assert.Empty(t, f.marker.MarkedIDs, "Failed upload should leave the message unmodified")
	assert.NoFileExists(t, f.scratchPath("photo.png"), "Scratch file should be removed after a failed upload")
}

func TestHandleObjectFinalizedMarkFailureIsPartialCommit(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.ClassifyFunc = func(ctx context.Context, imageURL string) (vision.Result, error) {
		return vision.Result{Adult: vision.LikelihoodLikely}, nil
	}
	f.marker.ShouldFail = true

	err := f.pipeline.HandleObjectFinalized(context.Background(), "chat-uploads", "images/msg123/photo.png")
	require.Error(t, err)

	// The blurred upload has already happened; only the message update failed.
	assert.True(t, f.blobs.AssertCallCount("Upload", 1))
	assert.NoFileExists(t, f.scratchPath("photo.png"), "Scratch file should be removed even when the update fails")
}

func TestHandleObjectFinalizedScratchFileRemovedOnSuccess(t *testing.T) {
	f := newPipelineFixture(t)
	f.classifier.ClassifyFunc = func(ctx context.Context, imageURL string) (vision.Result, error) {
		return vision.Result{Violence: vision.LikelihoodVeryLikely}, nil
	}

	err := f.pipeline.HandleObjectFinalized(context.Background(), "chat-uploads", "images/msg123/photo.png")
	require.NoError(t, err)

	assert.NoFileExists(t, f.scratchPath("photo.png"))
}

// =============================================================================
// END-TO-END BLUR TEST
// =============================================================================

func writeTestPNG(t *testing.T, path string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if x < 32 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return buf.Bytes()
}

func TestHandleObjectFinalizedBlursRealImage(t *testing.T) {
	source := filepath.Join(t.TempDir(), "source.png")
	original := writeTestPNG(t, source)

	blobs := storage.NewMockBlobStore()
	blobs.DownloadFunc = func(ctx context.Context, key, localPath string) error {
		src, err := os.Open(source)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := os.Create(localPath)
		if err != nil {
			return err
		}
		defer dst.Close()

		_, err = io.Copy(dst, src)
		return err
	}

	var uploaded []byte
	blobs.UploadFunc = func(ctx context.Context, localPath, key string, metadata map[string]string) error {
		var err error
		uploaded, err = os.ReadFile(localPath)
		return err
	}

	classifier := vision.NewMockClassifier()
	classifier.ClassifyFunc = func(ctx context.Context, imageURL string) (vision.Result, error) {
		return vision.Result{Adult: vision.LikelihoodVeryLikely}, nil
	}

	marker := &MockMessageMarker{}
	pipeline := NewPipeline(blobs, classifier, marker, t.TempDir())

	err := pipeline.HandleObjectFinalized(context.Background(), "chat-uploads", "images/msg123/photo.png")
	require.NoError(t, err)

	require.NotEmpty(t, uploaded, "Blurred image should have been uploaded")
	assert.NotEqual(t, original, uploaded, "Uploaded image should differ from the original")

	_, err = png.Decode(bytes.NewReader(uploaded))
	assert.NoError(t, err, "Uploaded image should still be a valid PNG")

	assert.Equal(t, []string{"msg123"}, marker.MarkedIDs)
}
