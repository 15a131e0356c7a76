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


// Package ai provides abstractions for the language-model services used by
// pedagogue.
//
// The package defines capability interfaces rather than provider types, so
// the evaluation and synthesis logic depends only on what a provider can do:
//
//   - Completer: free-form text completion (used by semantic segmentation)
//   - EvaluationProvider: scores one section against the seven rubrics
//   - SynthesisProvider: writes a course-level narrative report
//
// # Failures
//
// Every provider error is reported as a *Failure carrying a FailureKind.
// Callers branch on the kind, never on provider-specific error strings:
//
//	if ai.KindOf(err) == ai.KindRateLimited {
//	    // back off
//	}
//
// RetryPolicy wraps a provider call and retries the kinds it is configured
// for, honouring the provider's retry-after hint when one is present.
//
// # Implementation Packages
//
//   - ai/llm: Production implementation over langchaingo (Anthropic, Gemini,
//     OpenAI-compatible backends)
//   - ai/mock: Test doubles with injectable behavior and call counts
//
// # Usage Example
//
//	cfg := ai.NewConfig(
//	    ai.WithAnthropic(os.Getenv("ANTHROPIC_API_KEY"), ""),
//	    ai.WithGemini(os.Getenv("GEMINI_API_KEY"), ""),
//	)
//	providers, err := llm.NewEvaluators(ctx, cfg, "claude")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := providers[0].Evaluate(ctx, sectionText)
package ai
