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


package pedagogue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/pedagogue/ai"
	"github.com/poiesic/pedagogue/ai/llm"
	"github.com/poiesic/pedagogue/config"
	"github.com/poiesic/pedagogue/evaluation"
	"github.com/poiesic/pedagogue/extract"
	"github.com/poiesic/pedagogue/ingestion"
	"github.com/poiesic/pedagogue/metrics"
	"github.com/poiesic/pedagogue/report"
	"github.com/poiesic/pedagogue/segment"
	"github.com/poiesic/pedagogue/storage"
	"github.com/poiesic/pedagogue/storage/badger"
	"github.com/poiesic/pedagogue/synthesis"
)

// ProviderSource hands out the language-model services the engine wires
// into its components. *llm.Providers is the production implementation.
type ProviderSource interface {
	Evaluators(ctx context.Context, preferred ai.Backend) ([]ai.EvaluationProvider, error)
	Synthesizer(ctx context.Context, b ai.Backend) (ai.SynthesisProvider, error)
	Segmenter(ctx context.Context) (ai.Completer, error)
	Close() error
}

// Engine owns the store, the providers and the metrics of one pedagogue
// process and builds the pipeline components from a config.Config.
type Engine struct {
	config     *config.Config
	backend    *badger.Backend
	courseRepo storage.CourseRepository
	runRepo    storage.RunRepository
	providers  ProviderSource
	// requireCredentials is set for the production providers, which accept
	// backends without an API key.
	requireCredentials bool
	metrics            *metrics.Metrics
	logger             *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	providers ProviderSource
	inMemory  bool
}

// WithProviders replaces the language-model providers built from the config.
func WithProviders(p ProviderSource) EngineOption {
	return func(o *engineOptions) {
		o.providers = p
	}
}

// WithInMemoryStore keeps the store in memory instead of at config.DBPath.
func WithInMemoryStore() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// Open validates cfg, opens the store and prepares the providers.
func Open(ctx context.Context, cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	providers := options.providers
	requireCredentials := false
	if providers == nil {
		p, err := llm.NewProviders(ctx, &cfg.Providers)
		if err != nil {
			return nil, err
		}
		providers = p
		requireCredentials = true
	}

	backend, err := badger.OpenBackend(cfg.DBPath, options.inMemory)
	if err != nil {
		providers.Close()
		return nil, err
	}

	courseRepo, err := badger.NewCourseRepository(backend)
	if err != nil {
		backend.Close()
		providers.Close()
		return nil, err
	}

	return &Engine{
		config:             cfg,
		backend:            backend,
		courseRepo:         courseRepo,
		runRepo:            badger.NewRunRepository(backend),
		providers:          providers,
		requireCredentials: requireCredentials,
		metrics:            metrics.New(),
		logger:             slog.Default().With("component", "engine"),
	}, nil
}

// Close releases the providers, the repositories and the store.
func (e *Engine) Close() error {
	if err := e.providers.Close(); err != nil {
		e.logger.Error("error closing providers", "err", err)
	}

	if err := e.courseRepo.Close(); err != nil {
		e.logger.Error("error closing course repository", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (e *Engine) Config() *config.Config {
	return e.config
}

func (e *Engine) CourseRepository() storage.CourseRepository {
	return e.courseRepo
}

func (e *Engine) RunRepository() storage.RunRepository {
	return e.runRepo
}

func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// checkCredentials fails with ai.ErrNoProviders when no configured backend
// has an API key.
func (e *Engine) checkCredentials() error {
	if e.requireCredentials && len(e.config.Providers.Available()) == 0 {
		return fmt.Errorf("%w: set one of ANTHROPIC_API_KEY, GEMINI_API_KEY, OPENAI_API_KEY", ai.ErrNoProviders)
	}
	return nil
}

// NewIngestionPipeline creates a pipeline over the engine's store.
// With semantic segmentation enabled and a segmentation provider available,
// the semantic strategy runs first and the heuristic one is the fallback.
func (e *Engine) NewIngestionPipeline(ctx context.Context, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	heuristic, err := segment.NewHeuristic(e.config.SegmentOptions()...)
	if err != nil {
		return nil, err
	}

	var primary segment.Segmenter = heuristic
	var fallback segment.Segmenter
	if e.config.Segment.Semantic {
		semantic, err := e.semanticSegmenter(ctx)
		if err != nil {
			e.logger.Warn("semantic segmentation unavailable, using heuristic", "err", err)
		} else {
			primary, fallback = semantic, heuristic
		}
	}

	defaults := []ingestion.Option{
		ingestion.WithFallbackSegmenter(fallback),
		ingestion.WithMetrics(e.metrics),
	}
	if e.config.Ingest.PoolSize > 0 {
		defaults = append(defaults, ingestion.WithPoolSize(e.config.Ingest.PoolSize))
	}
	return ingestion.NewPipeline(e.courseRepo, extract.NewPDF(), primary, append(defaults, opts...)...)
}

func (e *Engine) semanticSegmenter(ctx context.Context) (segment.Segmenter, error) {
	if e.requireCredentials && e.config.Providers.APIKey(e.config.Providers.SegmentationBackend) == "" {
		return nil, fmt.Errorf("%w: no credential for %s", ai.ErrNoProviders, e.config.Providers.SegmentationBackend)
	}
	completer, err := e.providers.Segmenter(ctx)
	if err != nil {
		return nil, err
	}
	return segment.NewSemantic(completer, segment.WithChunkChars(e.config.Segment.ChunkChars))
}

// NewOrchestrator creates an evaluation orchestrator for the configured
// model label. The backend named by the label is tried first, the other
// configured backends follow in order.
func (e *Engine) NewOrchestrator(ctx context.Context, opts ...evaluation.Option) (*evaluation.Orchestrator, error) {
	if err := e.checkCredentials(); err != nil {
		return nil, err
	}
	backend, err := e.config.ModelBackend()
	if err != nil {
		return nil, err
	}
	providers, err := e.providers.Evaluators(ctx, backend)
	if err != nil {
		return nil, err
	}

	defaults := []evaluation.Option{
		evaluation.WithConcurrency(e.config.Evaluation.Concurrency),
		evaluation.WithLimit(e.config.Evaluation.Limit),
		evaluation.WithRetryPolicy(e.config.RetryPolicy()),
		evaluation.WithRunRepository(e.runRepo),
		evaluation.WithMetrics(e.metrics),
	}
	return evaluation.NewOrchestrator(e.courseRepo, e.config.Evaluation.Model, providers, append(defaults, opts...)...)
}

// NewAggregator creates a synthesis aggregator whose reports are written by
// the backend of the configured model label. Every stored evaluation feeds
// the digest; the reports also go to the output directory.
func (e *Engine) NewAggregator(ctx context.Context, opts ...synthesis.Option) (*synthesis.Aggregator, error) {
	if err := e.checkCredentials(); err != nil {
		return nil, err
	}
	backend, err := e.config.ModelBackend()
	if err != nil {
		return nil, err
	}
	provider, err := e.providers.Synthesizer(ctx, backend)
	if err != nil {
		return nil, err
	}

	defaults := []synthesis.Option{
		synthesis.WithOutputDir(e.config.OutputDir),
		synthesis.WithMetrics(e.metrics),
	}
	return synthesis.NewAggregator(e.courseRepo, e.config.Evaluation.Model, provider, append(defaults, opts...)...)
}

// WriteReports aggregates the evaluations of every model label and writes
// report.CSVFilename and report.PDFFilename to the output directory.
func (e *Engine) WriteReports(ctx context.Context) (*report.Aggregates, error) {
	agg, err := report.Aggregate(ctx, e.courseRepo, "")
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(e.config.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	csvPath := filepath.Join(e.config.OutputDir, report.CSVFilename)
	if err := writeFile(csvPath, func(w io.Writer) error { return report.WriteCSV(w, agg) }); err != nil {
		return nil, err
	}
	if err := report.WritePDF(filepath.Join(e.config.OutputDir, report.PDFFilename), agg); err != nil {
		return nil, err
	}

	e.logger.Info("reports written", "dir", e.config.OutputDir, "courses", len(agg.Courses))
	return agg, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return write(f)
}

// Reset deletes every course, section, evaluation, synthesis and run.
func (e *Engine) Reset(ctx context.Context) error {
	e.logger.Warn("resetting store", "db", e.config.DBPath)
	return e.courseRepo.Reset(ctx)
}

// WriteMetrics writes the collected metrics to config.MetricsFile, if set.
func (e *Engine) WriteMetrics() error {
	return e.metrics.WriteTextfile(e.config.MetricsFile)
}
