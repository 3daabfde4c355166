package storage

import "context"

// BlobStore defines the object-storage operations the moderation pipeline and
// the reconcile pass need. The store is bound to a single bucket; keys are
// object paths within it. This interface allows for easy mocking in tests.
type BlobStore interface {
	// Download copies the object at key to localPath.
	Download(ctx context.Context, key, localPath string) error
	// Upload overwrites the object at key with the file at localPath,
	// attaching the given object metadata.
	Upload(ctx context.Context, localPath, key string, metadata map[string]string) error
	// Head returns the object metadata for key.
	Head(ctx context.Context, key string) (map[string]string, error)
	// ObjectURL returns the public URL for key.
	ObjectURL(key string) string
	// KeyFromURL maps a public URL produced by ObjectURL back to its key.
	KeyFromURL(objectURL string) (string, error)
}

// Ensure S3BlobStore implements BlobStore
var _ BlobStore = (*S3BlobStore)(nil)
