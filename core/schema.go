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


package core

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// EvaluationSchema is the JSON Schema every evaluation response must satisfy.
// The same text is shown to providers in the evaluation prompt.
const EvaluationSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "scores": {
      "type": "object",
      "properties": {
        "rubric1": {"type": "integer", "minimum": 1, "maximum": 10},
        "rubric2": {"type": "integer", "minimum": 1, "maximum": 10},
        "rubric3": {"type": "integer", "minimum": 1, "maximum": 10},
        "rubric4": {"type": "integer", "minimum": 1, "maximum": 10},
        "rubric5": {"type": "integer", "minimum": 1, "maximum": 10},
        "rubric6": {"type": "integer", "minimum": 1, "maximum": 10},
        "rubric7": {"type": "integer", "minimum": 1, "maximum": 10}
      },
      "required": ["rubric1", "rubric2", "rubric3", "rubric4", "rubric5", "rubric6", "rubric7"]
    },
    "reasoning": {
      "type": "object",
      "properties": {
        "rubric1": {"type": "string"},
        "rubric2": {"type": "string"},
        "rubric3": {"type": "string"},
        "rubric4": {"type": "string"},
        "rubric5": {"type": "string"},
        "rubric6": {"type": "string"},
        "rubric7": {"type": "string"}
      },
      "required": ["rubric1", "rubric2", "rubric3", "rubric4", "rubric5", "rubric6", "rubric7"]
    },
    "issues": {"type": "array", "items": {"type": "string"}},
    "fixes": {"type": "array", "items": {"type": "string"}},
    "evidence": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["scores", "reasoning", "issues", "fixes", "evidence"]
}`

var resolvedEvaluationSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	var schema jsonschema.Schema
	if err := json.Unmarshal([]byte(EvaluationSchema), &schema); err != nil {
		return nil, fmt.Errorf("parsing evaluation schema: %w", err)
	}
	return schema.Resolve(nil)
})

// evaluationPayload mirrors the response document for decoding.
// Scores decode as float64 because JSON allows 7.0 for an integer.
type evaluationPayload struct {
	Scores    map[string]float64 `json:"scores"`
	Reasoning map[string]string  `json:"reasoning"`
	Issues    []string           `json:"issues"`
	Fixes     []string           `json:"fixes"`
	Evidence  []string           `json:"evidence"`
}

// ValidateEvaluationResponse checks raw against EvaluationSchema and decodes it.
// Any mismatch returns an error wrapping ErrInvalidResponse; nothing is
// returned for a partially valid payload.
func ValidateEvaluationResponse(raw []byte) (*EvaluationResult, error) {
	resolved, err := resolvedEvaluationSchema()
	if err != nil {
		return nil, err
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if err := resolved.Validate(instance); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	var payload evaluationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	result := &EvaluationResult{
		Issues:   nonNil(payload.Issues),
		Fixes:    nonNil(payload.Fixes),
		Evidence: nonNil(payload.Evidence),
		Raw:      string(raw),
	}
	for i := range RubricCount {
		key := RubricKey(i)
		result.Scores[i] = int(payload.Scores[key])
		result.Reasoning[i] = payload.Reasoning[key]
	}

	if err := ValidateScores(result.Scores); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return result, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
