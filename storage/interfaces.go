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


package storage

import (
	"context"

	"github.com/poiesic/pedagogue/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	// It does not close the underlying backend.
	Close() error
}

// CourseRepository stores courses, their sections, evaluations and syntheses.
type CourseRepository interface {
	Repository

	// CourseExists reports whether a course with this fingerprint is stored.
	CourseExists(ctx context.Context, fingerprint string) (bool, error)

	// InsertCourse stores a course. Inserting a fingerprint that already
	// exists is a no-op and leaves the stored record untouched.
	// Sets InsertedAt if not already set.
	InsertCourse(ctx context.Context, course *core.Course) error

	// GetCourse retrieves a course by fingerprint.
	// Returns ErrNotFound if the course doesn't exist.
	GetCourse(ctx context.Context, fingerprint string) (*core.Course, error)

	// ListCourses returns every course ordered by fingerprint.
	ListCourses(ctx context.Context) ([]*core.Course, error)

	// ReplaceSections atomically replaces all sections of a course with
	// texts, assigning ordinals 0..len(texts)-1.
	// Any failure leaves the previous sections in place.
	// Returns ErrNotFound if the course doesn't exist.
	ReplaceSections(ctx context.Context, fingerprint string, texts []string) ([]*core.Section, error)

	// Sections returns the current sections of a course ordered by ordinal.
	Sections(ctx context.Context, fingerprint string) ([]*core.Section, error)

	// SectionCount returns the number of current sections of a course.
	SectionCount(ctx context.Context, fingerprint string) (int, error)

	// UnevaluatedSections returns every current section that has no
	// evaluation for model, ordered by course fingerprint then ordinal.
	UnevaluatedSections(ctx context.Context, model string) ([]*core.PendingSection, error)

	// SaveEvaluation stores an evaluation, generating its ID and InsertedAt.
	// Returns ErrDuplicateKey if the section already has an evaluation for
	// the same model.
	SaveEvaluation(ctx context.Context, eval *core.Evaluation) error

	// CourseEvaluations returns the evaluations of a course's current
	// sections ordered by section ordinal, then model.
	CourseEvaluations(ctx context.Context, fingerprint string) ([]*core.CourseEvaluation, error)

	// SaveSynthesis stores the synthesis of a course, replacing any previous one.
	SaveSynthesis(ctx context.Context, synthesis *core.Synthesis) error

	// GetSynthesis retrieves the synthesis of a course.
	// Returns ErrNotFound if none has been stored.
	GetSynthesis(ctx context.Context, fingerprint string) (*core.Synthesis, error)

	// Reset deletes every course, section, evaluation and synthesis.
	Reset(ctx context.Context) error
}

// RunRepository records the outcome of evaluation passes.
type RunRepository interface {
	// SaveRun stores run as the latest run for its model label.
	SaveRun(ctx context.Context, run *core.Run) error

	// LastRun returns the latest run for model.
	// Returns nil, nil if no run has been recorded.
	LastRun(ctx context.Context, model string) (*core.Run, error)
}
