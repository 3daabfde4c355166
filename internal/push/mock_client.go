package push

import (
	"context"
	"sync"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockDispatcher is a mock implementation of Dispatcher for testing. It
// allows configuring responses and tracks all calls for assertions.
type MockDispatcher struct {
	mu sync.Mutex

	// Call tracking
	Calls []MockCall

	// Configurable function override - set to customize behavior
	SendToManyFunc func(ctx context.Context, tokens []string, payload Payload) ([]SendResult, error)

	// Default responses for simple cases
	DefaultError error
}

// NewMockDispatcher creates a new mock dispatcher that reports every token
// delivered by default.
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{
		Calls: make([]MockCall, 0),
	}
}

var _ Dispatcher = (*MockDispatcher)(nil)

func (m *MockDispatcher) SendToMany(ctx context.Context, tokens []string, payload Payload) ([]SendResult, error) {
	m.recordCall("SendToMany", tokens, payload)
	if m.SendToManyFunc != nil {
		return m.SendToManyFunc(ctx, tokens, payload)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	results := make([]SendResult, 0, len(tokens))
	for _, token := range tokens {
		results = append(results, SendResult{Token: token})
	}
	return results, nil
}

// recordCall records a method call for later assertion
func (m *MockDispatcher) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCallsForMethod returns calls for a specific method
func (m *MockDispatcher) GetCallsForMethod(method string) []MockCall {
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
func (m *MockDispatcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]MockCall, 0)
}

// AssertCalled checks if a method was called at least once
func (m *MockDispatcher) AssertCalled(method string) bool {
	return len(m.GetCallsForMethod(method)) > 0
}

// AssertNotCalled checks if a method was never called
func (m *MockDispatcher) AssertNotCalled(method string) bool {
	return len(m.GetCallsForMethod(method)) == 0
}

// AssertCallCount checks if a method was called exactly n times
func (m *MockDispatcher) AssertCallCount(method string, count int) bool {
	return len(m.GetCallsForMethod(method)) == count
}
