package mock

import (
	"context"
	"sync"

	"github.com/poiesic/pedagogue/ai"
	"github.com/poiesic/pedagogue/core"
)

// MockEvaluationProvider is a test double for ai.EvaluationProvider.
type MockEvaluationProvider struct {
	// EvaluateFunc is called by Evaluate if set.
	// If nil, returns DefaultResult(text).
	EvaluateFunc func(ctx context.Context, text string) (*core.EvaluationResult, error)

	name  string
	model string

	mu        sync.Mutex
	callCount int
	texts     []string
}

var _ ai.EvaluationProvider = (*MockEvaluationProvider)(nil)

// NewMockEvaluationProvider creates a mock evaluator reporting name as both
// its backend label and its model.
func NewMockEvaluationProvider(name string) *MockEvaluationProvider {
	return &MockEvaluationProvider{name: name, model: name + "-mock"}
}

// Name returns the backend label.
func (m *MockEvaluationProvider) Name() string {
	return m.name
}

// Model returns the mock model identifier, "<name>-mock".
func (m *MockEvaluationProvider) Model() string {
	return m.model
}

// Evaluate records the call and returns EvaluateFunc's result or the default.
func (m *MockEvaluationProvider) Evaluate(ctx context.Context, text string) (*core.EvaluationResult, error) {
	m.mu.Lock()
	m.callCount++
	m.texts = append(m.texts, text)
	fn := m.EvaluateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}
	return DefaultResult(text), nil
}

// CallCount returns the number of times Evaluate was called.
func (m *MockEvaluationProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Texts returns the section texts passed to Evaluate, in call order.
func (m *MockEvaluationProvider) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Reset clears the call count, recorded texts and custom functions.
func (m *MockEvaluationProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.texts = nil
	m.EvaluateFunc = nil
}

// DefaultResult builds a valid evaluation whose scores are derived from the
// text length, so different sections get different but stable scores.
func DefaultResult(text string) *core.EvaluationResult {
	result := &core.EvaluationResult{
		Issues:   []string{},
		Fixes:    []string{},
		Evidence: []string{},
		Raw:      "{}",
	}
	for i := range core.RubricCount {
		result.Scores[i] = (len(text)+i)%core.MaxScore + core.MinScore
		result.Reasoning[i] = "mock reasoning"
	}
	return result
}
