package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockBlobStore is a mock implementation of BlobStore for testing. It allows
// configuring responses per method and tracks all calls for assertions.
type MockBlobStore struct {
	mu sync.Mutex

	// Call tracking
	Calls []MockCall

	// Configurable function overrides - set these to customize behavior
	DownloadFunc   func(ctx context.Context, key, localPath string) error
	UploadFunc     func(ctx context.Context, localPath, key string, metadata map[string]string) error
	HeadFunc       func(ctx context.Context, key string) (map[string]string, error)
	ObjectURLFunc  func(key string) string
	KeyFromURLFunc func(objectURL string) (string, error)

	// Default responses for simple cases
	DefaultError error
}

// NewMockBlobStore creates a new mock store with sensible defaults
func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{
		Calls: make([]MockCall, 0),
	}
}

var _ BlobStore = (*MockBlobStore)(nil)

func (m *MockBlobStore) Download(ctx context.Context, key, localPath string) error {
	m.recordCall("Download", key, localPath)
	if m.DownloadFunc != nil {
		return m.DownloadFunc(ctx, key, localPath)
	}
	if m.DefaultError != nil {
		return m.DefaultError
	}
	// Create an empty local file so cleanup behavior is observable
	return os.WriteFile(localPath, []byte{}, 0o644)
}

func (m *MockBlobStore) Upload(ctx context.Context, localPath, key string, metadata map[string]string) error {
	m.recordCall("Upload", localPath, key, metadata)
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, localPath, key, metadata)
	}
	return m.DefaultError
}

func (m *MockBlobStore) Head(ctx context.Context, key string) (map[string]string, error) {
	m.recordCall("Head", key)
	if m.HeadFunc != nil {
		return m.HeadFunc(ctx, key)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return map[string]string{}, nil
}

func (m *MockBlobStore) ObjectURL(key string) string {
	m.recordCall("ObjectURL", key)
	if m.ObjectURLFunc != nil {
		return m.ObjectURLFunc(key)
	}
	return fmt.Sprintf("https://cdn.test/%s", key)
}

func (m *MockBlobStore) KeyFromURL(objectURL string) (string, error) {
	m.recordCall("KeyFromURL", objectURL)
	if m.KeyFromURLFunc != nil {
		return m.KeyFromURLFunc(objectURL)
	}
	if !strings.HasPrefix(objectURL, "https://cdn.test/") {
		return "", fmt.Errorf("url %s is not served from https://cdn.test", objectURL)
	}
	return strings.TrimPrefix(objectURL, "https://cdn.test/"), nil
}

// recordCall records a method call for later assertion
func (m *MockBlobStore) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCallsForMethod returns calls for a specific method
func (m *MockBlobStore) GetCallsForMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

// Reset clears all recorded calls
func (m *MockBlobStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]MockCall, 0)
}

// AssertCalled checks if a method was called at least once
func (m *MockBlobStore) AssertCalled(method string) bool {
	return len(m.GetCallsForMethod(method)) > 0
}

// AssertNotCalled checks if a method was never called
func (m *MockBlobStore) AssertNotCalled(method string) bool {
	return len(m.GetCallsForMethod(method)) == 0
}

// AssertCallCount checks if a method was called exactly n times
func (m *MockBlobStore) AssertCallCount(method string, count int) bool {
	return len(m.GetCallsForMethod(method)) == count
}
