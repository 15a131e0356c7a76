package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/pedagogue/core"
	"github.com/poiesic/pedagogue/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *CourseRepository {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	repo, err := newCourseRepository(backend)
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func testCourse(fp, filename string) *core.Course {
	return &core.Course{
		Fingerprint: fp,
		Filename:    filename,
		Path:        "/courses/algo/" + filename,
		Source:      "algo",
	}
}

func testScores(v int) core.Scores {
	var s core.Scores
	for i := range s {
		s[i] = v
	}
	return s
}

func testEvaluation(sectionID core.ID, model string, score int) *core.Evaluation {
	return &core.Evaluation{
		SectionID:     sectionID,
		Model:         model,
		ProviderModel: model + "-1",
		Scores:        testScores(score),
		Issues:        []string{},
		Fixes:         []string{},
		Evidence:      []string{},
		Raw:           "{}",
	}
}

func TestInsertCourse_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertCourse(ctx, testCourse("fp1", "a.pdf")))
	require.NoError(t, repo.InsertCourse(ctx, testCourse("fp1", "renamed.pdf")))

	exists, err := repo.CourseExists(ctx, "fp1")
	require.NoError(t, err)
	assert.True(t, exists)

	course, err := repo.GetCourse(ctx, "fp1")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", course.Filename)
	assert.False(t, course.InsertedAt.IsZero())

	courses, err := repo.ListCourses(ctx)
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestInsertCourse_Invalid(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.InsertCourse(context.Background(), testCourse("", "a.pdf"))
	assert.ErrorIs(t, err, core.ErrInvalidCourse)
}

func TestGetCourse_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetCourse(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	exists, err := repo.CourseExists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestReplaceSections_ContiguousOrdinals(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.InsertCourse(ctx, testCourse("fp1", "a.pdf")))

	sections, err := repo.ReplaceSections(ctx, "fp1", []string{"one", "two", "three é"})
	require.NoError(t, err)
	require.Len(t, sections, 3)
	for i, s := range sections {
		assert.Equal(t, i, s.Ordinal)
		assert.NotZero(t, s.ID)
	}
	assert.Equal(t, 7, sections[2].CharCount)

	stored, err := repo.Sections(ctx, "fp1")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, "two", stored[1].Content)

	replaced, err := repo.ReplaceSections(ctx, "fp1", []string{"only"})
	require.NoError(t, err)
	require.Len(t, replaced, 1)
	assert.Equal(t, 0, replaced[0].Ordinal)

	count, err := repo.SectionCount(ctx, "fp1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReplaceSections_AtomicOnFailure(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.InsertCourse(ctx, testCourse("fp1", "a.pdf")))

	original, err := repo.ReplaceSections(ctx, "fp1", []string{"s0", "s1", "s2"})
	require.NoError(t, err)

	// The third text fails validation after two inserts and the deletes.
	_, err = repo.ReplaceSections(ctx, "fp1", []string{"n0", "n1", "   ", "n3"})
	require.ErrorIs(t, err, core.ErrInvalidSection)

	stored, err := repo.Sections(ctx, "fp1")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	for i, s := range stored {
		assert.Equal(t, original[i].ID, s.ID)
		assert.Equal(t, fmt.Sprintf("s%d", i), s.Content)
	}
}

func TestReplaceSections_UnknownCourse(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.ReplaceSections(context.Background(), "nope", []string{"x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReplaceSections_DoesNotTouchOtherCourses(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.InsertCourse(ctx, testCourse("fpA", "a.pdf")))
	require.NoError(t, repo.InsertCourse(ctx, testCourse("fpB", "b.pdf")))

	_, err := repo.ReplaceSections(ctx, "fpA", []string{"a0", "a1"})
	require.NoError(t, err)
	_, err = repo.ReplaceSections(ctx, "fpB", []string{"b0"})
	require.NoError(t, err)
	_, err = repo.ReplaceSections(ctx, "fpA", []string{"a0 new"})
	require.NoError(t, err)

	count, err := repo.SectionCount(ctx, "fpB")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUnevaluatedSections_PerModel(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.InsertCourse(ctx, testCourse("fpB", "b.pdf")))
	require.NoError(t, repo.InsertCourse(ctx, testCourse("fpA", "a.pdf")))

	a, err := repo.ReplaceSections(ctx, "fpA", []string{"a0", "a1"})
	require.NoError(t, err)
	_, err = repo.ReplaceSections(ctx, "fpB", []string{"b0"})
	require.NoError(t, err)

	require.NoError(t, repo.SaveEvaluation(ctx, testEvaluation(a[0].ID, "claude", 7)))

	pending, err := repo.UnevaluatedSections(ctx, "claude")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a1", pending[0].Section.Content)
	assert.Equal(t, "a.pdf", pending[0].Filename)
	assert.Equal(t, "b0", pending[1].Section.Content)
	assert.Equal(t, "b.pdf", pending[1].Filename)

	pending, err = repo.UnevaluatedSections(ctx, "gemini")
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}

func TestSaveEvaluation_DuplicateKey(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.InsertCourse(ctx, testCourse("fp1", "a.pdf")))
	sections, err := repo.ReplaceSections(ctx, "fp1", []string{"s0"})
	require.NoError(t, err)

	first := testEvaluation(sections[0].ID, "claude", 5)
	require.NoError(t, repo.SaveEvaluation(ctx, first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.InsertedAt.IsZero())

	err = repo.SaveEvaluation(ctx, testEvaluation(sections[0].ID, "claude", 9))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	require.NoError(t, repo.SaveEvaluation(ctx, testEvaluation(sections[0].ID, "gemini", 9)))
}

func TestSaveEvaluation_ConcurrentWritersKeepOne(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.InsertCourse(ctx, testCourse("fp1", "a.pdf")))
	sections, err := repo.ReplaceSections(ctx, "fp1", []string{"s0"})
	require.NoError(t, err)

	const writers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		saved      int
		duplicates int
	)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.SaveEvaluation(ctx, testEvaluation(sections[0].ID, "claude", 6))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				saved++
			case errors.Is(err, storage.ErrDuplicateKey), errors.Is(err, badger.ErrConflict):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, saved)
	assert.Equal(t, writers-1, duplicates)

	evals, err := repo.CourseEvaluations(ctx, "fp1")
	require.NoError(t, err)
	assert.Len(t, evals, 1)
}

func TestSaveEvaluation_Invalid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.SaveEvaluation(ctx, testEvaluation(1, "claude", 11))
	assert.ErrorIs(t, err, core.ErrScoreOutOfRange)

	err = repo.SaveEvaluation(ctx, testEvaluation(999, "claude", 5))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCourseEvaluations_OrderedAndScopedToCurrentSections(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.InsertCourse(ctx, testCourse("fp1", "a.pdf")))
	old, err := repo.ReplaceSections(ctx, "fp1", []string{"old"})
	require.NoError(t, err)
	require.NoError(t, repo.SaveEvaluation(ctx, testEvaluation(old[0].ID, "claude", 2)))

	sections, err := repo.ReplaceSections(ctx, "fp1", []string{"s0", "s1"})
	require.NoError(t, err)

	evals, err := repo.CourseEvaluations(ctx, "fp1")
	require.NoError(t, err)
	assert.Empty(t, evals)

	require.NoError(t, repo.SaveEvaluation(ctx, testEvaluation(sections[1].ID, "gemini", 4)))
	require.NoError(t, repo.SaveEvaluation(ctx, testEvaluation(sections[1].ID, "claude", 3)))
	require.NoError(t, repo.SaveEvaluation(ctx, testEvaluation(sections[0].ID, "gemini", 8)))

	evals, err = repo.CourseEvaluations(ctx, "fp1")
	require.NoError(t, err)
	require.Len(t, evals, 3)
	assert.Equal(t, 0, evals[0].Ordinal)
	assert.Equal(t, "gemini", evals[0].Evaluation.Model)
	assert.Equal(t, 1, evals[1].Ordinal)
	assert.Equal(t, "claude", evals[1].Evaluation.Model)
	assert.Equal(t, 1, evals[2].Ordinal)
	assert.Equal(t, "gemini", evals[2].Evaluation.Model)
}

func TestSaveSynthesis_Upsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.InsertCourse(ctx, testCourse("fp1", "a.pdf")))

	_, err := repo.GetSynthesis(ctx, "fp1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, repo.SaveSynthesis(ctx, &core.Synthesis{CourseFingerprint: "fp1", Model: "claude", Report: "first"}))
	require.NoError(t, repo.SaveSynthesis(ctx, &core.Synthesis{CourseFingerprint: "fp1", Model: "gemini", Report: "second"}))

	s, err := repo.GetSynthesis(ctx, "fp1")
	require.NoError(t, err)
	assert.Equal(t, "second", s.Report)
	assert.Equal(t, "gemini", s.Model)
	assert.False(t, s.CreatedAt.IsZero())

	err = repo.SaveSynthesis(ctx, &core.Synthesis{CourseFingerprint: "nope", Report: "x"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReset(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.InsertCourse(ctx, testCourse("fp1", "a.pdf")))
	sections, err := repo.ReplaceSections(ctx, "fp1", []string{"s0"})
	require.NoError(t, err)
	require.NoError(t, repo.SaveEvaluation(ctx, testEvaluation(sections[0].ID, "claude", 5)))

	require.NoError(t, repo.Reset(ctx))

	courses, err := repo.ListCourses(ctx)
	require.NoError(t, err)
	assert.Empty(t, courses)
	pending, err := repo.UnevaluatedSections(ctx, "claude")
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Inserting after a reset works and IDs keep increasing.
	require.NoError(t, repo.InsertCourse(ctx, testCourse("fp1", "a.pdf")))
	again, err := repo.ReplaceSections(ctx, "fp1", []string{"s0"})
	require.NoError(t, err)
	assert.Greater(t, again[0].ID, sections[0].ID)
}
