// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package llm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/pedagogue/ai"
	"github.com/poiesic/pedagogue/core"
)

var errEmptyResponse = errors.New("empty response")

// Evaluator implements ai.EvaluationProvider on top of an ai.Completer.
type Evaluator struct {
	client      ai.Completer
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

var _ ai.EvaluationProvider = (*Evaluator)(nil)

// newEvaluator is an internal constructor that returns the concrete type.
func newEvaluator(client ai.Completer, config *ai.Config) *Evaluator {
	return &Evaluator{
		client:      client,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
		logger:      slog.Default().With("component", "llm-evaluator", "backend", client.Name()),
	}
}

// NewEvaluator creates an evaluation provider that sends requests through client.
//
// Returns ai.EvaluationProvider interface to enforce abstraction.
func NewEvaluator(client ai.Completer, config *ai.Config) (ai.EvaluationProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newEvaluator(client, config), nil
}

// Name returns the backend label of the underlying client.
func (e *Evaluator) Name() string {
	return e.client.Name()
}

// Model returns the model identifier of the underlying client.
func (e *Evaluator) Model() string {
	return e.client.Model()
}

// Evaluate scores text against the rubrics.
// The response is stripped of code fences, repaired and validated against
// core.EvaluationSchema before it is returned.
func (e *Evaluator) Evaluate(ctx context.Context, text string) (*core.EvaluationResult, error) {
	response, err := e.client.Complete(ctx, ai.Request{
		System:      evaluationSystemPrompt,
		Prompt:      buildEvaluationPrompt(text),
		Temperature: e.temperature,
		MaxTokens:   e.maxTokens,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	if response == "" {
		e.logger.Warn("provider returned no text")
		return nil, ai.NewFailure(ai.KindSchemaValidation, e.Name(), errEmptyResponse)
	}

	payload := cleanJSON(response)
	result, err := core.ValidateEvaluationResponse([]byte(payload))
	if err != nil {
		e.logger.Warn("evaluation response failed validation",
			"model", e.Model(),
			"response", payload,
			"err", err)
		return nil, ai.NewFailure(ai.KindSchemaValidation, e.Name(), err)
	}

	e.logger.Debug("evaluation validated", "model", e.Model(), "mean", result.Scores.Mean())
	return result, nil
}
