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


// Package llm implements the ai interfaces on top of langchaingo.
//
// Each backend (Anthropic, Gemini or any OpenAI-compatible server) is wrapped
// in a Client that owns a token bucket rate limiter and maps provider errors
// onto ai.Failure kinds. Evaluator and Synthesizer build the prompts, clean
// up model output and validate evaluation responses against
// core.EvaluationSchema.
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithAnthropic(os.Getenv("ANTHROPIC_API_KEY"), ""),
//	    ai.WithGemini(os.Getenv("GEMINI_API_KEY"), ""),
//	)
//
//	providers, err := llm.NewProviders(ctx, config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer providers.Close()
//
//	evaluators, err := providers.Evaluators(ctx, ai.BackendAnthropic)
//	result, err := evaluators[0].Evaluate(ctx, sectionText)
package llm
