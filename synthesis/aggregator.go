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


// Package synthesis turns the section evaluations of a course into a
// course-level Markdown report.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/pedagogue/ai"
	"github.com/poiesic/pedagogue/core"
	"github.com/poiesic/pedagogue/metrics"
	"github.com/poiesic/pedagogue/storage"
)

var (
	// ErrRepositoryRequired is returned when a course repository is not provided.
	ErrRepositoryRequired = errors.New("course repository required")

	// ErrProviderRequired is returned when a synthesis provider is not provided.
	ErrProviderRequired = errors.New("synthesis provider required")

	// ErrModelRequired is returned when no model label is given.
	ErrModelRequired = errors.New("model label required")

	// ErrNoEvaluations is returned for a course without any evaluation.
	ErrNoEvaluations = errors.New("course has no evaluations")
)

// Aggregator synthesizes course reports from stored evaluations.
type Aggregator struct {
	repository storage.CourseRepository
	provider   ai.SynthesisProvider
	model      string
	outputDir  string // Reports are also written here when set
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithOutputDir writes every report to <dir>/<course>_synthesis.md.
func WithOutputDir(dir string) Option {
	return func(a *Aggregator) {
		a.outputDir = dir
	}
}

// WithMetrics records synthesis outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAggregator creates an aggregator that digests every stored evaluation
// of a course, whatever label it was evaluated under, and stores the report
// under model.
func NewAggregator(repository storage.CourseRepository, model string, provider ai.SynthesisProvider, opts ...Option) (*Aggregator, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrProviderRequired
	}
	if model == "" {
		return nil, ErrModelRequired
	}

	a := &Aggregator{
		repository: repository,
		provider:   provider,
		model:      model,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "synthesis", "model", model)
	return a, nil
}

// Summary totals the outcome of a Run.
type Summary struct {
	Courses     int
	Synthesized int
	Skipped     int // Courses without evaluations
	Failed      int
	Errors      []error
}

// Partial reports whether some courses failed.
func (s *Summary) Partial() bool {
	return s.Failed > 0
}

// Err joins the errors of every failed course.
func (s *Summary) Err() error {
	return errors.Join(s.Errors...)
}

// Run synthesizes a report for every stored course. Courses are processed
// one at a time; a failing course does not stop the run.
func (a *Aggregator) Run(ctx context.Context) (*Summary, error) {
	courses, err := a.repository.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Courses: len(courses)}
	for _, course := range courses {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		_, err := a.SynthesizeCourse(ctx, course)
		switch {
		case err == nil:
			summary.Synthesized++
		case errors.Is(err, ErrNoEvaluations):
			summary.Skipped++
		default:
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Errorf("%s: %w", course.Filename, err))
		}
	}
	return summary, nil
}

// SynthesizeCourse builds, stores and optionally writes the report of one
// course. A failed provider call leaves the previous synthesis untouched.
func (a *Aggregator) SynthesizeCourse(ctx context.Context, course *core.Course) (*core.Synthesis, error) {
	logger := a.logger.With("file", course.Filename)

	evals, err := a.repository.CourseEvaluations(ctx, course.Fingerprint)
	if err != nil {
		a.metrics.RecordSynthesis(metrics.OutcomeFailed)
		return nil, err
	}
	digest := BuildDigest(evals)
	if len(digest) == 0 {
		logger.Info("no evaluations, skipping")
		a.metrics.RecordSynthesis(metrics.OutcomeSkipped)
		return nil, ErrNoEvaluations
	}

	synthesis, err := a.synthesize(ctx, course, digest)
	if err != nil {
		logger.Error("synthesis failed", "err", err)
		a.metrics.RecordSynthesis(metrics.OutcomeFailed)
		return nil, err
	}

	logger.Info("synthesis saved", "sections", len(digest))
	a.metrics.RecordSynthesis(metrics.OutcomePersisted)
	return synthesis, nil
}

func (a *Aggregator) synthesize(ctx context.Context, course *core.Course, digest []DigestEntry) (*core.Synthesis, error) {
	prompt, err := BuildPrompt(digest)
	if err != nil {
		return nil, err
	}

	report, err := a.provider.Synthesize(ctx, systemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	synthesis := &core.Synthesis{
		CourseFingerprint: course.Fingerprint,
		Model:             a.model,
		Report:            report,
	}
	if err := a.repository.SaveSynthesis(ctx, synthesis); err != nil {
		return nil, ai.NewFailure(ai.KindPersistence, "", err)
	}

	if a.outputDir != "" {
		if err := WriteReport(a.outputDir, course.Filename, report); err != nil {
			return nil, err
		}
	}
	return synthesis, nil
}

// ReportPath returns <dir>/<filename without its .pdf extension>_synthesis.md.
func ReportPath(dir, filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); strings.EqualFold(ext, ".pdf") {
		base = strings.TrimSuffix(base, ext)
	}
	return filepath.Join(dir, base+"_synthesis.md")
}

// WriteReport writes report to ReportPath(dir, filename), creating dir if needed.
func WriteReport(dir, filename, report string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path := ReportPath(dir, filename)
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
