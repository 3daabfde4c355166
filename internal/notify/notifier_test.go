package notify

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlorchat/functions/internal/logger"
	"github.com/parlorchat/functions/internal/models"
	"github.com/parlorchat/functions/internal/push"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	_ = logger.Initialize("error", "")
	os.Exit(m.Run())
}

// MockTokenDirectory implements TokenDirectory for testing
type MockTokenDirectory struct {
	mu        sync.Mutex
	Tokens    []string
	Deleted   []string
	AllErr    error
	DeleteErr error
}

func (m *MockTokenDirectory) All(ctx context.Context) ([]string, error) {
	if m.AllErr != nil {
		return nil, m.AllErr
	}
	return m.Tokens, nil
}

func (m *MockTokenDirectory) Delete(ctx context.Context, token string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deleted = append(m.Deleted, token)
	return nil
}

func newTestMessage() *models.Message {
	return &models.Message{
		ID:   "m1",
		Name: "maya",
		Text: "hello everyone",
	}
}

func TestHandleMessageCreatedWithNoTokensSkipsDispatch(t *testing.T) {
	directory := &MockTokenDirectory{}
	dispatcher := push.NewMockDispatcher()
	notifier := NewNotifier(directory, dispatcher, "https://parlor.chat")

	err := notifier.HandleMessageCreated(context.Background(), newTestMessage())
	require.NoError(t, err)

	assert.True(t, dispatcher.AssertNotCalled("SendToMany"), "Empty token set should not dispatch")
}

func TestHandleMessageCreatedDispatchesOneBatch(t *testing.T) {
	directory := &MockTokenDirectory{Tokens: []string{"tok-a", "tok-b", "tok-c"}}
	dispatcher := push.NewMockDispatcher()
	notifier := NewNotifier(directory, dispatcher, "https://parlor.chat")

	err := notifier.HandleMessageCreated(context.Background(), newTestMessage())
	require.NoError(t, err)

	calls := dispatcher.GetCallsForMethod("SendToMany")
	require.Len(t, calls, 1, "All tokens should go out in a single batched call")
	assert.Equal(t, []string{"tok-a", "tok-b", "tok-c"}, calls[0].Args[0])

	payload, ok := calls[0].Args[1].(push.Payload)
	require.True(t, ok)
	assert.Equal(t, "maya posted a message", payload.Title)

	assert.Empty(t, directory.Deleted, "Successful dispatch should not prune anything")
}

func TestHandleMessageCreatedPrunesDeadTokens(t *testing.T) {
	directory := &MockTokenDirectory{Tokens: []string{"tok-a", "tok-b", "tok-c"}}
	dispatcher := push.NewMockDispatcher()
	dispatcher.SendToManyFunc = func(ctx context.Context, tokens []string, payload push.Payload) ([]push.SendResult, error) {
		return []push.SendResult{
			{Token: "tok-a", Err: fmt.Errorf("not registered"), Kind: push.ErrorKindUnregistered},
			{Token: "tok-b", Err: fmt.Errorf("invalid token"), Kind: push.ErrorKindInvalidToken},
			{Token: "tok-c"},
		}, nil
	}
	notifier := NewNotifier(directory, dispatcher, "https://parlor.chat")

	err := notifier.HandleMessageCreated(context.Background(), newTestMessage())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"tok-a", "tok-b"}, directory.Deleted,
		"Exactly the unregistered and invalid tokens should be deleted")
	assert.NotContains(t, directory.Deleted, "tok-c", "Successful token should remain registered")
}

func TestHandleMessageCreatedIgnoresOtherDispatchErrors(t *testing.T) {
	directory := &MockTokenDirectory{Tokens: []string{"tok-a"}}
	dispatcher := push.NewMockDispatcher()
	dispatcher.SendToManyFunc = func(ctx context.Context, tokens []string, payload push.Payload) ([]push.SendResult, error) {
		return []push.SendResult{
			{Token: "tok-a", Err: fmt.Errorf("quota exceeded"), Kind: push.ErrorKindOther},
		}, nil
	}
	notifier := NewNotifier(directory, dispatcher, "https://parlor.chat")

	err := notifier.HandleMessageCreated(context.Background(), newTestMessage())
	require.NoError(t, err, "Non-token errors are logged, not surfaced")

	assert.Empty(t, directory.Deleted, "Non-token errors should not prune the registration")
}

func TestHandleMessageCreatedTokenLoadFailure(t *testing.T) {
	directory := &MockTokenDirectory{AllErr: fmt.Errorf("store down")}
	dispatcher := push.NewMockDispatcher()
	notifier := NewNotifier(directory, dispatcher, "https://parlor.chat")

	err := notifier.HandleMessageCreated(context.Background(), newTestMessage())
	require.Error(t, err)

	assert.True(t, dispatcher.AssertNotCalled("SendToMany"))
}

func TestHandleMessageCreatedDispatchFailure(t *testing.T) {
	directory := &MockTokenDirectory{Tokens: []string{"tok-a"}}
	dispatcher := push.NewMockDispatcher()
	dispatcher.SendToManyFunc = func(ctx context.Context, tokens []string, payload push.Payload) ([]push.SendResult, error) {
		return nil, fmt.Errorf("messaging backend unavailable")
	}
	notifier := NewNotifier(directory, dispatcher, "https://parlor.chat")

	err := notifier.HandleMessageCreated(context.Background(), newTestMessage())
	require.Error(t, err)

	assert.Empty(t, directory.Deleted)
}

func TestHandleMessageCreatedDeleteFailureSurfaces(t *testing.T) {
	directory := &MockTokenDirectory{
		Tokens:    []string{"tok-a"},
		DeleteErr: fmt.Errorf("store down"),
	}
	dispatcher := push.NewMockDispatcher()
	dispatcher.SendToManyFunc = func(ctx context.Context, tokens []string, payload push.Payload) ([]push.SendResult, error) {
		return []push.SendResult{
			{Token: "tok-a", Err: fmt.Errorf("not registered"), Kind: push.ErrorKindUnregistered},
		}, nil
	}
	notifier := NewNotifier(directory, dispatcher, "https://parlor.chat")

	err := notifier.HandleMessageCreated(context.Background(), newTestMessage())
	require.Error(t, err, "Cleanup outcomes count toward the handler result")
}

func TestHandleMessageCreatedPrunesManyTokensConcurrently(t *testing.T) {
	tokens := make([]string, 50)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("tok-%02d", i)
	}

	directory := &MockTokenDirectory{Tokens: tokens}
	dispatcher := push.NewMockDispatcher()
	dispatcher.SendToManyFunc = func(ctx context.Context, toks []string, payload push.Payload) ([]push.SendResult, error) {
		results := make([]push.SendResult, len(toks))
		for i, tok := range toks {
			results[i] = push.SendResult{Token: tok, Err: fmt.Errorf("gone"), Kind: push.ErrorKindUnregistered}
		}
		return results, nil
	}
	notifier := NewNotifier(directory, dispatcher, "https://parlor.chat")

	err := notifier.HandleMessageCreated(context.Background(), newTestMessage())
	require.NoError(t, err)

	assert.ElementsMatch(t, tokens, directory.Deleted, "Every dead token should be pruned before returning")
}
