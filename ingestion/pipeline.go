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


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/pedagogue/ai"
	"github.com/poiesic/pedagogue/core"
	"github.com/poiesic/pedagogue/extract"
	"github.com/poiesic/pedagogue/metrics"
	"github.com/poiesic/pedagogue/segment"
	"github.com/poiesic/pedagogue/storage"
)

// Pipeline ingests PDF courses into a course repository.
type Pipeline struct {
	repository storage.CourseRepository
	extractor  extract.Extractor
	segmenter  segment.Segmenter
	fallback   segment.Segmenter // Used when segmenter fails, may be nil
	pool       *ants.Pool
	force      bool
	metrics    *metrics.Metrics
	locks      sync.Map // fingerprint -> *sync.Mutex
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the number of files processed concurrently.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithFallbackSegmenter sets the segmenter used for a file when the primary
// segmenter returns an error.
func WithFallbackSegmenter(s segment.Segmenter) Option {
	return func(p *Pipeline) error {
		p.fallback = s
		return nil
	}
}

// WithForce re-ingests courses that are already stored with sections.
func WithForce(force bool) Option {
	return func(p *Pipeline) error {
		p.force = force
		return nil
	}
}

// WithMetrics records per-file outcomes on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) error {
		p.metrics = m
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	repository storage.CourseRepository,
	extractor extract.Extractor,
	segmenter segment.Segmenter,
	opts ...Option,
) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}
	if segmenter == nil {
		return nil, ErrSegmenterRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		extractor:  extractor,
		segmenter:  segmenter,
		pool:       pool,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// FileResult describes what happened to one ingested file.
type FileResult struct {
	Path        string
	Fingerprint string
	Skipped     bool // The course was already stored with sections
	Sections    int  // Number of sections written
}

// Summary totals the outcome of a Run.
type Summary struct {
	Found    int
	Ingested int
	Skipped  int
	Failed   int
	Sections int
	Errors   []error // One entry per failed file
}

// Partial reports whether some files failed.
func (s *Summary) Partial() bool {
	return s.Failed > 0
}

// Err joins the errors of every failed file.
func (s *Summary) Err() error {
	return errors.Join(s.Errors...)
}

func (s *Summary) record(path string, result *FileResult, err error) {
	switch {
	case err != nil:
		s.Failed++
		s.Errors = append(s.Errors, fmt.Errorf("%s: %w", path, err))
	case result.Skipped:
		s.Skipped++
	default:
		s.Ingested++
		s.Sections += result.Sections
	}
}

// FindPDFs returns every file below dir with a ".pdf" extension, in any
// letter case, sorted by path.
func FindPDFs(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Run ingests every PDF found below dir. The source label of each course is
// the name of the directory holding the file.
//
// Per-file failures are collected in the Summary. The returned error is
// non-nil only when dir cannot be scanned or ctx is cancelled; files not yet
// started at cancellation are neither ingested nor counted as failed.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Summary, error) {
	paths, err := FindPDFs(dir)
	if err != nil {
		return nil, err
	}
	p.logger.Info("found course files", "dir", dir, "count", len(paths))

	summary := &Summary{Found: len(paths)}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			result, err := p.IngestFile(ctx, path, filepath.Base(filepath.Dir(path)))
			mu.Lock()
			summary.record(path, result, err)
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			summary.record(path, nil, submitErr)
			mu.Unlock()
		}
	}
	wg.Wait()

	p.logger.Info("ingestion finished",
		"found", summary.Found,
		"ingested", summary.Ingested,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"sections", summary.Sections)
	return summary, ctx.Err()
}

// IngestFile ingests a single course file.
//
// A course whose fingerprint is already stored with at least one section is
// skipped unless the pipeline was created WithForce. Extraction failures are
// *ai.Failure values of kind ai.KindExtraction, store failures are of kind
// ai.KindPersistence.
func (p *Pipeline) IngestFile(ctx context.Context, path, source string) (*FileResult, error) {
	result, err := p.ingestFile(ctx, path, source)
	switch {
	case err != nil:
		p.logger.Error("ingestion failed", "path", path, "err", err)
		p.metrics.RecordFile(metrics.OutcomeFailed, 0)
	case result.Skipped:
		p.logger.Info("course already ingested", "path", path, "fingerprint", result.Fingerprint)
		p.metrics.RecordFile(metrics.OutcomeSkipped, 0)
	default:
		p.logger.Info("course ingested", "path", path, "sections", result.Sections)
		p.metrics.RecordFile(metrics.OutcomeIngested, result.Sections)
	}
	return result, err
}

func (p *Pipeline) ingestFile(ctx context.Context, path, source string) (*FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fingerprint, err := core.FingerprintFile(path)
	if err != nil {
		return nil, ai.NewFailure(ai.KindExtraction, "", err)
	}
	result := &FileResult{Path: path, Fingerprint: fingerprint}

	// Identical bytes under two names must not be ingested twice in parallel.
	unlock := p.lock(fingerprint)
	defer unlock()

	if !p.force {
		done, err := p.alreadyIngested(ctx, fingerprint)
		if err != nil {
			return nil, ai.NewFailure(ai.KindPersistence, "", err)
		}
		if done {
			result.Skipped = true
			return result, nil
		}
	}

	text, err := p.extractor.Extract(ctx, path)
	if err != nil {
		return nil, ai.NewFailure(ai.KindExtraction, "", err)
	}
	if text == "" {
		return nil, ai.NewFailure(ai.KindExtraction, "", extract.ErrNoText)
	}

	sections, err := p.segment(ctx, path, text)
	if err != nil {
		return nil, err
	}

	course := &core.Course{
		Fingerprint: fingerprint,
		Filename:    filepath.Base(path),
		Path:        path,
		Source:      source,
	}
	if err := p.repository.InsertCourse(ctx, course); err != nil {
		return nil, ai.NewFailure(ai.KindPersistence, "", err)
	}
	stored, err := p.repository.ReplaceSections(ctx, fingerprint, sections)
	if err != nil {
		return nil, ai.NewFailure(ai.KindPersistence, "", err)
	}

	result.Sections = len(stored)
	return result, nil
}

// alreadyIngested reports whether the course is stored with sections.
// A course without sections is left over from an interrupted ingestion.
func (p *Pipeline) alreadyIngested(ctx context.Context, fingerprint string) (bool, error) {
	exists, err := p.repository.CourseExists(ctx, fingerprint)
	if err != nil || !exists {
		return false, err
	}
	count, err := p.repository.SectionCount(ctx, fingerprint)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *Pipeline) segment(ctx context.Context, path, text string) ([]string, error) {
	sections, err := p.segmenter.Segment(ctx, text)
	if err != nil && p.fallback != nil && ctx.Err() == nil {
		p.logger.Warn("segmentation failed, using fallback",
			"path", path,
			"segmenter", p.segmenter.Name(),
			"fallback", p.fallback.Name(),
			"err", err)
		sections, err = p.fallback.Segment(ctx, text)
	}
	if err != nil {
		return nil, fmt.Errorf("segmenting %s: %w", path, err)
	}
	if len(sections) == 0 {
		return nil, ErrNoSections
	}
	return sections, nil
}

func (p *Pipeline) lock(fingerprint string) func() {
	value, _ := p.locks.LoadOrStore(fingerprint, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
