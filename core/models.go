package core

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for sections and evaluations.
// It is generated from database sequences.
type ID uint64

// FingerprintSize is the digest size in bytes (256 bits).
const FingerprintSize = 32

// Fingerprint reads r to the end and returns the hex-encoded BLAKE2b-256
// digest of its bytes. The result depends only on content, never on the
// name or location of the file it came from.
func Fingerprint(r io.Reader) (string, error) {
	h, err := blake2b.New(FingerprintSize, nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("reading content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FingerprintFile computes the Fingerprint of the file at path.
func FingerprintFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Fingerprint(f)
}

// Course is an ingested source document, identified by its content fingerprint.
type Course struct {
	Fingerprint string
	Filename    string
	Path        string
	Source      string    // Label of the origin, typically the parent directory name
	InsertedAt  time.Time // When the course was first inserted
}

// Section is a contiguous slice of a course's text.
// Ordinals are contiguous from 0 within a course.
type Section struct {
	ID                ID
	CourseFingerprint string
	Ordinal           int
	Content           string
	CharCount         int
}

// PendingSection is a section that still lacks an evaluation for some model,
// joined with the filename of its course for display.
type PendingSection struct {
	Section  *Section
	Filename string
}

// RubricCount is the number of quality rubrics every evaluation scores.
const RubricCount = 7

// Score bounds, inclusive.
const (
	MinScore = 1
	MaxScore = 10
)

// RubricNames lists the rubrics in their fixed order.
// Rubric i (0-based) is serialized as "rubric{i+1}".
var RubricNames = [RubricCount]string{
	"Goal focus",
	"Readability",
	"Pedagogic clarity",
	"Prerequisite alignment",
	"Fluidity and continuity",
	"Example concreteness",
	"Example coherence across modules",
}

// RubricKey returns the wire key for the 0-based rubric index i.
func RubricKey(i int) string {
	return fmt.Sprintf("rubric%d", i+1)
}

// Scores holds one integer score per rubric, in rubric order.
type Scores [RubricCount]int

// Mean returns the arithmetic mean of the scores.
func (s Scores) Mean() float64 {
	total := 0
	for _, v := range s {
		total += v
	}
	return float64(total) / RubricCount
}

// EvaluationResult is a provider response that passed schema validation.
type EvaluationResult struct {
	Scores    Scores
	Reasoning [RubricCount]string
	Issues    []string
	Fixes     []string
	Evidence  []string
	Raw       string // The validated JSON payload
}

// Evaluation is a persisted EvaluationResult for one section under one model label.
type Evaluation struct {
	ID            ID
	SectionID     ID
	Model         string // Model label used for selection and uniqueness
	ProviderModel string // Concrete model that produced the response
	Scores        Scores
	Reasoning     [RubricCount]string
	Issues        []string
	Fixes         []string
	Evidence      []string
	Raw           string
	InsertedAt    time.Time
}

// NewEvaluation builds an Evaluation from a validated result.
func NewEvaluation(sectionID ID, model, providerModel string, result *EvaluationResult) *Evaluation {
	return &Evaluation{
		SectionID:     sectionID,
		Model:         model,
		ProviderModel: providerModel,
		Scores:        result.Scores,
		Reasoning:     result.Reasoning,
		Issues:        result.Issues,
		Fixes:         result.Fixes,
		Evidence:      result.Evidence,
		Raw:           result.Raw,
	}
}

// CourseEvaluation pairs an evaluation with the ordinal of the section it scores.
type CourseEvaluation struct {
	Ordinal    int
	Evaluation *Evaluation
}

// Synthesis is a course-level narrative report. There is at most one per course.
type Synthesis struct {
	CourseFingerprint string
	Model             string
	Report            string
	CreatedAt         time.Time
}

// Run records the outcome of one evaluation pass for a model label.
type Run struct {
	Model      string
	StartedAt  time.Time
	FinishedAt time.Time
	Selected   int
	Persisted  int
	Skipped    int
}
