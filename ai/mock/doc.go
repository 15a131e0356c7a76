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


// Package mock provides mock implementations of the ai interfaces for testing.
//
// These mocks allow testing code that depends on language-model providers
// without calling real APIs. Each mock supports custom behavior via
// function fields and tracks call counts. All mocks are safe for concurrent
// use, since the evaluation orchestrator calls providers from worker
// goroutines.
//
// # Usage
//
//	evaluator := mock.NewMockEvaluationProvider("claude")
//	evaluator.EvaluateFunc = func(ctx context.Context, text string) (*core.EvaluationResult, error) {
//	    return nil, ai.NewFailure(ai.KindRateLimited, "claude", errors.New("429"))
//	}
//
//	// Check call counts
//	count := evaluator.CallCount()
//
// # Default Behavior
//
// The mock implementations provide sensible defaults:
//
//   - MockEvaluationProvider: Returns a valid result with scores derived from the text length
//   - MockCompleter: Returns Response, or the prompt itself when Response is empty
//   - MockSynthesisProvider: Returns a short Markdown report naming the prompt size
package mock
