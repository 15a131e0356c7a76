package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a course repository is not provided.
	ErrRepositoryRequired = errors.New("course repository required")

	// ErrExtractorRequired is returned when a text extractor is not provided.
	ErrExtractorRequired = errors.New("text extractor required")

	// ErrSegmenterRequired is returned when a segmenter is not provided.
	ErrSegmenterRequired = errors.New("segmenter required")

	// ErrNoSections is returned when segmentation produced no sections.
	ErrNoSections = errors.New("segmentation produced no sections")
)
