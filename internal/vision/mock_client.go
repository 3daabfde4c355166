package vision

import (
	"context"
	"sync"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockClassifier is a mock implementation of Classifier for testing. It
// allows configuring responses and tracks all calls for assertions.
type MockClassifier struct {
	mu sync.Mutex

	// Call tracking
	Calls []MockCall

	// Configurable function override - set to customize behavior
	ClassifyFunc func(ctx context.Context, imageURL string) (Result, error)

	// Default response used when no override is set
	DefaultResult Result
	DefaultError  error
}

// NewMockClassifier creates a new mock classifier that reports every image
// safe by default.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{
		Calls: make([]MockCall, 0),
		DefaultResult: Result{
			Adult:    LikelihoodVeryUnlikely,
			Violence: LikelihoodVeryUnlikely,
		},
	}
}

var _ Classifier = (*MockClassifier)(nil)

func (m *MockClassifier) Classify(ctx context.Context, imageURL string) (Result, error) {
	m.recordCall("Classify", imageURL)
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, imageURL)
	}
	if m.DefaultError != nil {
		return Result{}, m.DefaultError
	}
	return m.DefaultResult, nil
}

// recordCall records a method call for later assertion
func (m *MockClassifier) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCallsForMethod returns calls for a specific method
func (m *MockClassifier) GetCallsForMethod(method string) []MockCall {
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
func (m *MockClassifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]MockCall, 0)
}

// AssertCalled checks if a method was called at least once
func (m *MockClassifier) AssertCalled(method string) bool {
	return len(m.GetCallsForMethod(method)) > 0
}

// AssertNotCalled checks if a method was never called
func (m *MockClassifier) AssertNotCalled(method string) bool {
	return len(m.GetCallsForMethod(method)) == 0
}

// AssertCallCount checks if a method was called exactly n times
func (m *MockClassifier) AssertCallCount(method string, count int) bool {
	return len(m.GetCallsForMethod(method)) == count
}
