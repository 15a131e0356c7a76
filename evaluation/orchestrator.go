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


package evaluation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/pedagogue/ai"
	"github.com/poiesic/pedagogue/core"
	"github.com/poiesic/pedagogue/metrics"
	"github.com/poiesic/pedagogue/storage"
)

// Orchestrator runs the evaluation loop for one model label.
type Orchestrator struct {
	repository     storage.CourseRepository
	runs           storage.RunRepository // Optional, records each run
	model          string
	providers      []ai.EvaluationProvider
	pool           *ants.Pool
	limit          int
	retry          ai.RetryPolicy
	metrics        *metrics.Metrics
	progress       io.Writer // Optional, receives progress lines
	reportInterval int
	logger         *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithConcurrency sets the number of sections evaluated in parallel.
// Default is 1.
func WithConcurrency(size int) Option {
	return func(o *Orchestrator) error {
		if size < 1 {
			size = 1
		}

		if o.pool != nil {
			o.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		o.pool = pool
		return nil
	}
}

// WithLimit caps the number of sections selected per run.
// Zero or a negative value means no limit.
func WithLimit(limit int) Option {
	return func(o *Orchestrator) error {
		o.limit = max(limit, 0)
		return nil
	}
}

// WithRetryPolicy sets the policy wrapped around every provider call.
// Default is ai.DefaultRetryPolicy().
func WithRetryPolicy(policy ai.RetryPolicy) Option {
	return func(o *Orchestrator) error {
		if policy.MaxRetries < 0 {
			return ai.ErrInvalidRetryPolicy
		}
		o.retry = policy
		return nil
	}
}

// WithRunRepository records a core.Run at the end of every run.
func WithRunRepository(runs storage.RunRepository) Option {
	return func(o *Orchestrator) error {
		o.runs = runs
		return nil
	}
}

// WithMetrics records provider calls and section outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) error {
		o.metrics = m
		return nil
	}
}

// WithProgress writes a progress line to w every interval sections.
func WithProgress(w io.Writer, interval int) Option {
	return func(o *Orchestrator) error {
		o.progress = w
		o.reportInterval = interval
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an orchestrator that stores evaluations under the
// model label and tries providers in the given order.
func NewOrchestrator(
	repository storage.CourseRepository,
	model string,
	providers []ai.EvaluationProvider,
	opts ...Option,
) (*Orchestrator, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if model == "" {
		return nil, ErrModelRequired
	}
	if len(providers) == 0 {
		return nil, ErrProvidersRequired
	}

	pool, err := ants.NewPool(1)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		repository:     repository,
		model:          model,
		providers:      providers,
		pool:           pool,
		retry:          ai.DefaultRetryPolicy(),
		reportInterval: 1,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(o); optErr != nil {
			o.Release()
			return nil, optErr
		}
	}
	o.logger = o.logger.With("component", "evaluation", "model", model)

	return o, nil
}

// Model returns the label evaluations are stored under.
func (o *Orchestrator) Model() string {
	return o.model
}

// Summary totals the outcome of a Run.
//
// Selected - (Persisted + Duplicates + Skipped) sections were never started
// because the run was cancelled.
type Summary struct {
	Pending    int // Sections without an evaluation when the run started
	Selected   int // Sections picked for this run, after the limit
	Persisted  int
	Duplicates int // Sections evaluated concurrently by another writer
	Skipped    int // Sections every provider failed on

	// Failures counts provider failures by kind. A section that fell back
	// from one provider to the next contributes one failure per provider.
	Failures map[ai.FailureKind]int
}

// Partial reports whether some sections were skipped.
func (s *Summary) Partial() bool {
	return s.Skipped > 0
}

type sectionOutcome struct {
	persisted bool
	duplicate bool
	aborted   bool // ctx was cancelled before an outcome was reached
	failures  []ai.FailureKind
}

func (s *Summary) record(out sectionOutcome) {
	switch {
	case out.aborted:
	case out.persisted:
		s.Persisted++
	case out.duplicate:
		s.Duplicates++
	default:
		s.Skipped++
	}
	for _, kind := range out.failures {
		s.Failures[kind]++
	}
}

// Run evaluates the sections that lack an evaluation for the model label.
//
// Cancelling ctx stops submitting sections. Evaluations already persisted
// remain, and the returned error is ctx.Err().
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	started := time.Now().UTC()

	pending, err := o.repository.UnevaluatedSections(ctx, o.model)
	if err != nil {
		return nil, err
	}

	selected := pending
	if o.limit > 0 && len(selected) > o.limit {
		selected = selected[:o.limit]
	}

	summary := &Summary{
		Pending:  len(pending),
		Selected: len(selected),
		Failures: make(map[ai.FailureKind]int),
	}
	o.logger.Info("starting evaluation run",
		"pending", summary.Pending,
		"selected", summary.Selected,
		"providers", providerNames(o.providers))

	var tracker *ProgressTracker
	if o.progress != nil {
		tracker = NewProgressTracker(o.progress, len(selected), o.reportInterval)
		tracker.Start()
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, section := range selected {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		submitErr := o.pool.Submit(func() {
			defer wg.Done()
			out := o.evaluateSection(ctx, section)
			mu.Lock()
			summary.record(out)
			mu.Unlock()
			if tracker != nil && !out.aborted {
				tracker.Record(out.persisted || out.duplicate)
			}
		})
		if submitErr != nil {
			wg.Done()
			o.logger.Error("could not schedule section", "section", section.Section.ID, "err", submitErr)
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
		}
	}
	wg.Wait()

	if tracker != nil {
		tracker.Finish()
	}

	o.saveRun(ctx, started, summary)

	o.logger.Info("evaluation run finished",
		"persisted", summary.Persisted,
		"duplicates", summary.Duplicates,
		"skipped", summary.Skipped)
	return summary, ctx.Err()
}

// evaluateSection tries every provider in order until one response is
// persisted.
func (o *Orchestrator) evaluateSection(ctx context.Context, pending *core.PendingSection) sectionOutcome {
	var out sectionOutcome
	section := pending.Section
	logger := o.logger.With("file", pending.Filename, "ordinal", section.Ordinal)

	for _, provider := range o.providers {
		if ctx.Err() != nil {
			out.aborted = true
			return out
		}

		result, err := o.call(ctx, provider, section.Content)
		if err != nil {
			if ctx.Err() != nil {
				out.aborted = true
				return out
			}
			kind := ai.KindOf(err)
			out.failures = append(out.failures, kind)
			logger.Warn("provider failed",
				"provider", provider.Name(),
				"kind", kind.String(),
				"err", err)
			continue
		}

		eval := core.NewEvaluation(section.ID, o.model, provider.Model(), result)
		err = o.repository.SaveEvaluation(ctx, eval)
		switch {
		case err == nil:
			out.persisted = true
			o.metrics.RecordSection(o.model, metrics.OutcomePersisted)
			logger.Debug("evaluation persisted",
				"provider", provider.Name(),
				"mean", result.Scores.Mean())
		case errors.Is(err, storage.ErrDuplicateKey):
			out.duplicate = true
			o.metrics.RecordSection(o.model, metrics.OutcomeDuplicate)
			logger.Debug("section already evaluated")
		default:
			out.failures = append(out.failures, ai.KindPersistence)
			o.metrics.RecordSection(o.model, metrics.OutcomeSkipped)
			logger.Error("could not persist evaluation", "err", err)
		}
		return out
	}

	o.metrics.RecordSection(o.model, metrics.OutcomeSkipped)
	logger.Warn("all providers failed, section skipped", "attempts", len(out.failures))
	return out
}

// call runs one provider under the retry policy and records its metrics.
func (o *Orchestrator) call(ctx context.Context, provider ai.EvaluationProvider, text string) (*core.EvaluationResult, error) {
	var result *core.EvaluationResult
	start := time.Now()
	err := o.retry.Do(ctx, func(ctx context.Context) error {
		var callErr error
		result, callErr = provider.Evaluate(ctx, text)
		return callErr
	})

	kind := "ok"
	if err != nil {
		kind = ai.KindOf(err).String()
	}
	o.metrics.RecordProviderCall(provider.Name(), kind, time.Since(start))
	return result, err
}

func (o *Orchestrator) saveRun(ctx context.Context, started time.Time, summary *Summary) {
	if o.runs == nil {
		return
	}
	run := &core.Run{
		Model:      o.model,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Selected:   summary.Selected,
		Persisted:  summary.Persisted,
		Skipped:    summary.Skipped,
	}
	// A cancelled run is still recorded.
	if err := o.runs.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		o.logger.Warn("could not record run", "err", err)
	}
}

func providerNames(providers []ai.EvaluationProvider) []string {
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	return names
}

// Release releases the worker pool.
// The orchestrator should not be used after calling Release.
func (o *Orchestrator) Release() {
	if o.pool != nil {
		o.pool.Release()
	}
}
