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
	"fmt"
	"strings"
)

// ValidateCourse validates a Course according to domain rules.
//
// Validation rules:
//   - Fingerprint must not be empty
//   - Filename must not be empty
//
// NOT validated:
//   - Source (may be empty for files at the scan root)
//   - InsertedAt (set by storage)
func ValidateCourse(course *Course) error {
	if course == nil {
		return fmt.Errorf("%w: course is nil", ErrInvalidCourse)
	}
	if course.Fingerprint == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCourse, ErrEmptyFingerprint)
	}
	if course.Filename == "" {
		return fmt.Errorf("%w: filename is empty", ErrInvalidCourse)
	}
	return nil
}

// ValidateSectionText checks that a section body carries non-whitespace text.
func ValidateSectionText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSection, ErrEmptyContent)
	}
	return nil
}

// ValidateEvaluation validates an Evaluation before persistence.
//
// Validation rules:
//   - SectionID must be set
//   - Model must not be empty
//   - Every score must be in [MinScore, MaxScore]
func ValidateEvaluation(eval *Evaluation) error {
	if eval == nil {
		return fmt.Errorf("%w: evaluation is nil", ErrInvalidEvaluation)
	}
	if eval.SectionID == 0 {
		return fmt.Errorf("%w: section id is zero", ErrInvalidEvaluation)
	}
	if eval.Model == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEvaluation, ErrEmptyModel)
	}
	if err := ValidateScores(eval.Scores); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEvaluation, err)
	}
	return nil
}

// ValidateScores checks that each rubric score lies in [MinScore, MaxScore].
func ValidateScores(scores Scores) error {
	for i, s := range scores {
		if s < MinScore || s > MaxScore {
			return fmt.Errorf("%w: %s=%d", ErrScoreOutOfRange, RubricKey(i), s)
		}
	}
	return nil
}

// ValidateSynthesis validates a Synthesis before persistence.
func ValidateSynthesis(s *Synthesis) error {
	if s == nil {
		return fmt.Errorf("%w: synthesis is nil", ErrInvalidSynthesis)
	}
	if s.CourseFingerprint == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSynthesis, ErrEmptyFingerprint)
	}
	if strings.TrimSpace(s.Report) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidSynthesis, ErrEmptyContent)
	}
	return nil
}
