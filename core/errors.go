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

import "errors"

// Domain validation errors
var (
	// ErrInvalidCourse indicates a Course failed validation.
	ErrInvalidCourse = errors.New("invalid course")

	// ErrInvalidSection indicates a Section failed validation.
	ErrInvalidSection = errors.New("invalid section")

	// ErrInvalidEvaluation indicates an Evaluation failed validation.
	ErrInvalidEvaluation = errors.New("invalid evaluation")

	// ErrInvalidSynthesis indicates a Synthesis failed validation.
	ErrInvalidSynthesis = errors.New("invalid synthesis")

	// ErrInvalidResponse indicates a provider payload did not match the evaluation schema.
	ErrInvalidResponse = errors.New("invalid evaluation response")

	// ErrEmptyFingerprint indicates the Fingerprint field is empty.
	ErrEmptyFingerprint = errors.New("fingerprint cannot be empty")

	// ErrEmptyContent indicates a content or text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyModel indicates the Model field is empty.
	ErrEmptyModel = errors.New("model cannot be empty")

	// ErrScoreOutOfRange indicates a rubric score outside [MinScore, MaxScore].
	ErrScoreOutOfRange = errors.New("score out of range")
)
