package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/parlorchat/functions/internal/telemetry"
)

// S3BlobStore handles uploaded chat images in an S3 bucket
type S3BlobStore struct {
	client  *s3.Client
	bucket  string
	region  string
	baseURL string
}

// NewS3BlobStore creates a blob store bound to the given bucket. An empty
// baseURL derives the standard virtual-hosted bucket URL.
func NewS3BlobStore(region, bucket, baseURL string) (*S3BlobStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("S3 bucket not configured (set S3_BUCKET)")
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(region),
		config.WithHTTPClient(telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{
			ServiceName: "s3",
			Timeout:     60 * time.Second,
		})),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	return &S3BlobStore{
		client:  client,
		bucket:  bucket,
		region:  region,
		baseURL: baseURL,
	}, nil
}

// Bucket returns the bucket this store is bound to.
func (s *S3BlobStore) Bucket() string {
	return s.bucket
}

// Download copies the object at key into localPath.
func (s *S3BlobStore) Download(ctx context.Context, key, localPath string) error {
	ctx, span := telemetry.TraceStorageCall(ctx, "get_object", key)
	defer span.End()

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	f, err := os.Create(localPath)
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, out.Body); err != nil {
		// A failed download must not leave a partial file behind
		f.Close()
		os.Remove(localPath)
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to write local file %s: %w", localPath, err)
	}

	telemetry.RecordServiceSuccess(span)
	return nil
}

// Upload overwrites the object at key with the file at localPath, attaching
// the given object metadata.
func (s *S3BlobStore) Upload(ctx context.Context, localPath, key string, metadata map[string]string) error {
	ctx, span := telemetry.TraceStorageCall(ctx, "put_object", key)
	defer span.End()

	f, err := os.Open(localPath)
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to open local file %s: %w", localPath, err)
	}
	defer f.Close()

	meta := map[string]string{
		"upload-timestamp": time.Now().Format(time.RFC3339),
	}
	for k, v := range metadata {
		meta[k] = v
	}

	putObjectInput := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(getContentType(filepath.Ext(key))),

		// Cache for 1 hour (clients re-fetch overwritten objects after that)
		CacheControl: aws.String("max-age=3600"),

		Metadata: meta,

		// Note: no ACL - bucket policy handles public access
	}

	if _, err := s.client.PutObject(ctx, putObjectInput); err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.bucket, key, err)
	}

	telemetry.RecordServiceSuccess(span)
	return nil
}

// Head returns the object metadata for key.
func (s *S3BlobStore) Head(ctx context.Context, key string) (map[string]string, error) {
	ctx, span := telemetry.TraceStorageCall(ctx, "head_object", key)
	defer span.End()

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return nil, fmt.Errorf("failed to head s3://%s/%s: %w", s.bucket, key, err)
	}

	telemetry.RecordServiceSuccess(span)
	return out.Metadata, nil
}

// ObjectURL returns the public URL for key.
func (s *S3BlobStore) ObjectURL(key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimSuffix(s.baseURL, "/"), key)
}

// KeyFromURL maps a public URL produced by ObjectURL back to its object key.
func (s *S3BlobStore) KeyFromURL(objectURL string) (string, error) {
	base := strings.TrimSuffix(s.baseURL, "/") + "/"
	if !strings.HasPrefix(objectURL, base) {
		return "", fmt.Errorf("url %s is not served from %s", objectURL, s.baseURL)
	}
	return strings.TrimPrefix(objectURL, base), nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (s *S3BlobStore) CheckBucketAccess(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", s.bucket, err)
	}

	return nil
}

// getContentType returns the appropriate MIME type for file extensions
func getContentType(extension string) string {
	switch strings.ToLower(extension) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}
