package container

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorchat/functions/internal/docstore"
	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/push"
	"github.com/parlorchat/functions/internal/storage"
	"github.com/parlorchat/functions/internal/vision"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

func TestNewContainerIsEmpty(t *testing.T) {
	c := New()

	assert.Nil(t, c.Config())
	assert.Nil(t, c.Docstore())
	assert.Nil(t, c.Messages())
	assert.Nil(t, c.Tokens())
	assert.Nil(t, c.Blobs())
	assert.Nil(t, c.Classifier())
	assert.Nil(t, c.Push())
	assert.Nil(t, c.Moderation())
	assert.Nil(t, c.Notifier())
	assert.Nil(t, c.Welcome())
	assert.Nil(t, c.Guard())
}

func TestFluentRegistration(t *testing.T) {
	blobs := storage.NewMockBlobStore()
	classifier := vision.NewMockClassifier()
	dispatcher := push.NewMockDispatcher()

	c := New().
		WithBlobStore(blobs).
		WithClassifier(classifier).
		WithPushDispatcher(dispatcher)

	assert.Same(t, blobs, c.Blobs())
	assert.Same(t, classifier, c.Classifier())
	assert.Same(t, dispatcher, c.Push())
}

func TestValidateListsMissingDependencies(t *testing.T) {
	err := New().Validate()
	require.Error(t, err)

	var initErr *InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Contains(t, initErr.MissingDeps, "document store client")
	assert.Contains(t, initErr.MissingDeps, "message store")
	assert.Contains(t, initErr.MissingDeps, "device-token store")
	assert.Contains(t, initErr.MissingDeps, "blob store")
	assert.Contains(t, initErr.MissingDeps, "image classifier")
	assert.Contains(t, initErr.MissingDeps, "push dispatcher")
}

func TestValidatePassesWithRequiredDependencies(t *testing.T) {
	docs := &docstore.Client{}

	c := New().
		WithDocstore(docs).
		WithMessageStore(docstore.NewMessageStore(docs)).
		WithTokenStore(docstore.NewTokenStore(docs)).
		WithBlobStore(storage.NewMockBlobStore()).
		WithClassifier(vision.NewMockClassifier()).
		WithPushDispatcher(push.NewMockDispatcher())

	assert.NoError(t, c.Validate())
}

func TestCleanupRunsInReverseOrder(t *testing.T) {
	var order []int

	c := New().
		OnCleanup(func(ctx context.Context) error {
			order = append(order, 1)
			return nil
		}).
		OnCleanup(func(ctx context.Context) error {
			order = append(order, 2)
			return nil
		}).
		OnCleanup(func(ctx context.Context) error {
			order = append(order, 3)
			return nil
		})

	require.NoError(t, c.Cleanup(context.Background()))
	assert.Equal(t, []int{3, 2, 1}, order, "Cleanup should run LIFO")
}

func TestCleanupContinuesPastFailures(t *testing.T) {
	var order []int

	c := New().
		OnCleanup(func(ctx context.Context) error {
			order = append(order, 1)
			return nil
		}).
		OnCleanup(func(ctx context.Context) error {
			return fmt.Errorf("cleanup failed")
		}).
		OnCleanup(func(ctx context.Context) error {
			order = append(order, 3)
			return nil
		})

	require.NoError(t, c.Cleanup(context.Background()))
	assert.Equal(t, []int{3, 1}, order, "A failed cleanup should not stop the rest")
}

func TestMockContainer(t *testing.T) {
	classifier := vision.NewMockClassifier()
	blobs := storage.NewMockBlobStore()

	mock := NewMock().
		WithMockClassifier(classifier).
		WithMockBlobStore(blobs)

	assert.Same(t, classifier, mock.Classifier())
	assert.Same(t, blobs, mock.Blobs())
	assert.NoError(t, mock.Clean(context.Background()))
}
