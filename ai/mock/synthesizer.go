package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/pedagogue/ai"
)

// MockSynthesisProvider is a test double for ai.SynthesisProvider.
type MockSynthesisProvider struct {
	// SynthesizeFunc is called by Synthesize if set.
	SynthesizeFunc func(ctx context.Context, system, prompt string) (string, error)

	name string

	mu         sync.Mutex
	callCount  int
	lastPrompt string
}

var _ ai.SynthesisProvider = (*MockSynthesisProvider)(nil)

// NewMockSynthesisProvider creates a mock synthesizer for the given backend label.
func NewMockSynthesisProvider(name string) *MockSynthesisProvider {
	return &MockSynthesisProvider{name: name}
}

// Name returns the backend label.
func (m *MockSynthesisProvider) Name() string {
	return m.name
}

// Synthesize records the prompt and returns SynthesizeFunc's result or a
// short fixed report.
func (m *MockSynthesisProvider) Synthesize(ctx context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.lastPrompt = prompt
	fn := m.SynthesizeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, system, prompt)
	}
	return fmt.Sprintf("## Executive Summary\nMock synthesis of a %d character digest.", len(prompt)), nil
}

// CallCount returns the number of times Synthesize was called.
func (m *MockSynthesisProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastPrompt returns the prompt of the most recent call.
func (m *MockSynthesisProvider) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// Reset clears the call count, recorded prompt and custom functions.
func (m *MockSynthesisProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.lastPrompt = ""
	m.SynthesizeFunc = nil
}
