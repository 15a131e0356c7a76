package ai

import (
	"context"

	"github.com/poiesic/pedagogue/core"
)

// Request is a single completion request.
type Request struct {
	// System is the system instruction. May be empty.
	System string

	// Prompt is the user message.
	Prompt string

	// Temperature controls sampling randomness.
	Temperature float64

	// MaxTokens caps the response length. Zero uses the provider default.
	MaxTokens int

	// JSON asks the backend for a JSON-only response where supported.
	JSON bool
}

// Completer produces free-form text for a prompt.
// Implementations must be thread-safe for concurrent use.
type Completer interface {
	// Name returns the backend label of the provider (e.g. "anthropic").
	Name() string

	// Model returns the concrete model identifier requests are sent to.
	Model() string

	// Complete sends req and returns the response text.
	// Returns an empty string if the backend produced no text.
	// Errors are *Failure values.
	Complete(ctx context.Context, req Request) (string, error)
}

// EvaluationProvider scores a section of course text against the rubrics.
// Implementations must be thread-safe for concurrent use.
type EvaluationProvider interface {
	// Name returns the backend label of the provider.
	Name() string

	// Model returns the concrete model identifier that answers requests.
	Model() string

	// Evaluate asks the provider to score text and returns the validated result.
	// A response that does not satisfy the evaluation schema yields a
	// *Failure of kind KindSchemaValidation; nothing partial is returned.
	Evaluate(ctx context.Context, text string) (*core.EvaluationResult, error)
}

// SynthesisProvider turns a prepared synthesis prompt into a Markdown report.
// Implementations must be thread-safe for concurrent use.
type SynthesisProvider interface {
	// Name returns the backend label of the provider.
	Name() string

	// Synthesize returns the report text for the given system and user prompt.
	Synthesize(ctx context.Context, system, prompt string) (string, error)
}
