package mock

import (
	"context"
	"sync"

	"github.com/poiesic/pedagogue/ai"
)

// MockCompleter is a test double for ai.Completer.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	CompleteFunc func(ctx context.Context, req ai.Request) (string, error)

	// Response is returned when CompleteFunc is nil.
	// If empty, the request prompt is echoed back.
	Response string

	name  string
	model string

	mu        sync.Mutex
	callCount int
	requests  []ai.Request
}

var _ ai.Completer = (*MockCompleter)(nil)

// NewMockCompleter creates a mock completer for the given backend label.
func NewMockCompleter(name string) *MockCompleter {
	return &MockCompleter{name: name, model: name + "-mock"}
}

func (m *MockCompleter) Name() string  { return m.name }
func (m *MockCompleter) Model() string { return m.model }

// Complete records the request and returns CompleteFunc's result, Response,
// or the prompt.
func (m *MockCompleter) Complete(ctx context.Context, req ai.Request) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.requests = append(m.requests, req)
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return req.Prompt, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Requests returns every request passed to Complete, in call order.
func (m *MockCompleter) Requests() []ai.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ai.Request(nil), m.requests...)
}

// Reset clears the call count, recorded requests and custom behavior.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.requests = nil
	m.CompleteFunc = nil
	m.Response = ""
}
