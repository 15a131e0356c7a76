package llm

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/pedagogue/ai"
)

// Synthesizer implements ai.SynthesisProvider on top of an ai.Completer.
type Synthesizer struct {
	client      ai.Completer
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

var _ ai.SynthesisProvider = (*Synthesizer)(nil)

// NewSynthesizer creates a synthesis provider that sends requests through client.
func NewSynthesizer(client ai.Completer, config *ai.Config) (ai.SynthesisProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Synthesizer{
		client:      client,
		temperature: config.Temperature,
		maxTokens:   config.SynthesisMaxTokens,
		logger:      slog.Default().With("component", "llm-synthesizer", "backend", client.Name()),
	}, nil
}

// Name returns the backend label of the underlying client.
func (s *Synthesizer) Name() string {
	return s.client.Name()
}

// Synthesize returns the Markdown report produced for prompt.
// An empty response is reported as a KindCommunication failure.
func (s *Synthesizer) Synthesize(ctx context.Context, system, prompt string) (string, error) {
	response, err := s.client.Complete(ctx, ai.Request{
		System:      system,
		Prompt:      prompt,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", err
	}

	report := strings.TrimSpace(response)
	if report == "" {
		return "", ai.NewFailure(ai.KindCommunication, s.Name(), errEmptyResponse)
	}
	s.logger.Debug("synthesis finished", "length", len(report))
	return report, nil
}
