package container

import (
	"context"

	"go.uber.org/zap"

	"github.com/parlorchat/functions/internal/docstore"
	"github.com/parlorchat/functions/internal/push"
	"github.com/parlorchat/functions/internal/storage"
	"github.com/parlorchat/functions/internal/vision"
)

// MockContainer is a container designed for testing.
// It allows easy overriding of dependencies with test doubles (mocks, stubs,
// fakes).
type MockContainer struct {
	*Container
}

// NewMock creates a new mock container
func NewMock() *MockContainer {
	return &MockContainer{
		Container: New(),
	}
}

// WithMockLogger sets a test logger
func (m *MockContainer) WithMockLogger(l *zap.Logger) *MockContainer {
	m.SetLogger(l)
	return m
}

// WithMockDocstore sets the document store client for testing
func (m *MockContainer) WithMockDocstore(client *docstore.Client) *MockContainer {
	m.SetDocstore(client)
	return m
}

// WithMockBlobStore sets a mock blob store
func (m *MockContainer) WithMockBlobStore(store storage.BlobStore) *MockContainer {
	m.SetBlobStore(store)
	return m
}

// WithMockClassifier sets a mock image classifier
func (m *MockContainer) WithMockClassifier(classifier vision.Classifier) *MockContainer {
	m.SetClassifier(classifier)
	return m
}

// WithMockPushDispatcher sets a mock push dispatcher
func (m *MockContainer) WithMockPushDispatcher(dispatcher push.Dispatcher) *MockContainer {
	m.SetPushDispatcher(dispatcher)
	return m
}

// Clean cleans up test containers after tests complete
func (m *MockContainer) Clean(ctx context.Context) error {
	return m.Cleanup(ctx)
}
