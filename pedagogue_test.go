package pedagogue

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf/v2"
	"github.com/poiesic/pedagogue/ai"
	"github.com/poiesic/pedagogue/ai/mock"
	"github.com/poiesic/pedagogue/config"
	"github.com/poiesic/pedagogue/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProviders struct {
	evaluator   *mock.MockEvaluationProvider
	synthesizer *mock.MockSynthesisProvider
	completer   *mock.MockCompleter
	segmentErr  error
	preferred   ai.Backend
}

func newFakeProviders() *fakeProviders {
	return &fakeProviders{
		evaluator:   mock.NewMockEvaluationProvider("anthropic"),
		synthesizer: mock.NewMockSynthesisProvider("anthropic"),
		completer:   mock.NewMockCompleter("gemini"),
	}
}

func (f *fakeProviders) Evaluators(_ context.Context, preferred ai.Backend) ([]ai.EvaluationProvider, error) {
	f.preferred = preferred
	return []ai.EvaluationProvider{f.evaluator}, nil
}

func (f *fakeProviders) Synthesizer(context.Context, ai.Backend) (ai.SynthesisProvider, error) {
	return f.synthesizer, nil
}

func (f *fakeProviders) Segmenter(context.Context) (ai.Completer, error) {
	if f.segmentErr != nil {
		return nil, f.segmentErr
	}
	return f.completer, nil
}

func (f *fakeProviders) Close() error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "db")
	cfg.CoursesDir = filepath.Join(t.TempDir(), "courses")
	cfg.OutputDir = filepath.Join(t.TempDir(), "outputs")
	cfg.MetricsFile = filepath.Join(t.TempDir(), "pedagogue.prom")
	cfg.Evaluation.MaxRetries = 0
	return cfg
}

func writePDF(t *testing.T, path string, pages ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		doc.Cell(0, 10, text)
	}
	require.NoError(t, doc.OutputFileAndClose(path))
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Segment.MaxChars = cfg.Segment.MinChars

	engine, err := Open(context.Background(), cfg, WithProviders(newFakeProviders()))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Nil(t, engine)
}

func TestOpen_NotADirectory(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(cfg.DBPath, []byte("test"), 0o644))

	engine, err := Open(context.Background(), cfg, WithProviders(newFakeProviders()))
	assert.Error(t, err)
	assert.Nil(t, engine)
}

func TestOpen_WithoutCredentials(t *testing.T) {
	ctx := context.Background()
	engine, err := Open(ctx, testConfig(t))
	require.NoError(t, err)
	defer engine.Close()

	assert.NotNil(t, engine.CourseRepository())
	assert.NotNil(t, engine.RunRepository())
	assert.NotNil(t, engine.Metrics())

	_, err = engine.NewOrchestrator(ctx)
	assert.ErrorIs(t, err, ai.ErrNoProviders)

	_, err = engine.NewAggregator(ctx)
	assert.ErrorIs(t, err, ai.ErrNoProviders)

	// Ingestion still works, with heuristic segmentation only.
	pipeline, err := engine.NewIngestionPipeline(ctx)
	require.NoError(t, err)
	pipeline.Release()
}

func TestEngine_EndToEnd(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	providers := newFakeProviders()
	providers.completer.CompleteFunc = func(context.Context, ai.Request) (string, error) {
		return "Variables hold values.\n" + segment.SectionBreak + "\nLoops repeat work.", nil
	}

	engine, err := Open(ctx, cfg, WithProviders(providers))
	require.NoError(t, err)
	defer engine.Close()

	original := filepath.Join(cfg.CoursesDir, "intro", "basics.pdf")
	writePDF(t, original, "Variables hold values.", "Loops repeat work.")
	data, err := os.ReadFile(original)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.CoursesDir, "intro", "basics-copy.pdf"), data, 0o644))
	writePDF(t, filepath.Join(cfg.CoursesDir, "advanced", "Recursion.PDF"), "Functions that call themselves.")

	pipeline, err := engine.NewIngestionPipeline(ctx)
	require.NoError(t, err)
	ingested, err := pipeline.Run(ctx, cfg.CoursesDir)
	pipeline.Release()
	require.NoError(t, err)
	assert.Equal(t, 3, ingested.Found)
	assert.Equal(t, 2, ingested.Ingested)
	assert.Equal(t, 1, ingested.Skipped)
	assert.Equal(t, 4, ingested.Sections, "two semantic sections per course")

	orchestrator, err := engine.NewOrchestrator(ctx)
	require.NoError(t, err)
	evaluated, err := orchestrator.Run(ctx)
	orchestrator.Release()
	require.NoError(t, err)
	assert.Equal(t, ai.BackendAnthropic, providers.preferred)
	assert.Equal(t, 4, evaluated.Persisted)

	run, err := engine.RunRepository().LastRun(ctx, "claude")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 4, run.Persisted)

	aggregator, err := engine.NewAggregator(ctx)
	require.NoError(t, err)
	synthesized, err := aggregator.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, synthesized.Synthesized)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "Recursion_synthesis.md"))

	agg, err := engine.WriteReports(ctx)
	require.NoError(t, err)
	assert.Len(t, agg.Courses, 2)
	csv, err := os.ReadFile(filepath.Join(cfg.OutputDir, "aggregates.csv"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(csv), "\n"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "scorecard.pdf"))

	require.NoError(t, engine.WriteMetrics())
	prom, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `pedagogue_sections_evaluated_total{model="claude",outcome="persisted"} 4`)

	require.NoError(t, engine.Reset(ctx))
	courses, err := engine.CourseRepository().ListCourses(ctx)
	require.NoError(t, err)
	assert.Empty(t, courses)
}

func TestEngine_SemanticFallsBackWhenUnavailable(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	providers := newFakeProviders()
	providers.segmentErr = errors.New("no segmentation backend")

	engine, err := Open(ctx, cfg, WithProviders(providers), WithInMemoryStore())
	require.NoError(t, err)
	defer engine.Close()

	path := filepath.Join(cfg.CoursesDir, "c", "one.pdf")
	writePDF(t, path, "A single page.")

	pipeline, err := engine.NewIngestionPipeline(ctx)
	require.NoError(t, err)
	defer pipeline.Release()

	result, err := pipeline.IngestFile(ctx, path, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sections)
	assert.Equal(t, 0, providers.completer.CallCount())
}

func TestEngine_SemanticErrorUsesHeuristic(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	providers := newFakeProviders()
	providers.completer.CompleteFunc = func(context.Context, ai.Request) (string, error) {
		return "", ai.NewFailure(ai.KindCommunication, "gemini", errors.New("unavailable"))
	}

	engine, err := Open(ctx, cfg, WithProviders(providers), WithInMemoryStore())
	require.NoError(t, err)
	defer engine.Close()

	path := filepath.Join(cfg.CoursesDir, "c", "one.pdf")
	writePDF(t, path, "1. Overview", "Details follow.")

	pipeline, err := engine.NewIngestionPipeline(ctx)
	require.NoError(t, err)
	defer pipeline.Release()

	result, err := pipeline.IngestFile(ctx, path, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sections)
	assert.Equal(t, 1, providers.completer.CallCount())

	sections, err := engine.CourseRepository().Sections(ctx, result.Fingerprint)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Contains(t, sections[0].Content, "Details follow.")
}

var _ ProviderSource = (*fakeProviders)(nil)
