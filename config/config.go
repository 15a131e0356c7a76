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


// Package config provides configuration loading for pedagogue.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/poiesic/pedagogue/ai"
	"github.com/poiesic/pedagogue/segment"
)

// ErrInvalidConfig is returned by Validate for an unusable configuration.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete pedagogue configuration.
type Config struct {
	// DBPath is the BadgerDB directory.
	DBPath string `koanf:"db"`

	// CoursesDir is scanned for PDF files by ingest.
	CoursesDir string `koanf:"courses_dir"`

	// OutputDir receives reports and synthesis files.
	OutputDir string `koanf:"output_dir"`

	// MetricsFile, when set, receives the Prometheus metrics of each
	// command in the text exposition format.
	MetricsFile string `koanf:"metrics_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	Segment    SegmentConfig    `koanf:"segment"`
	Ingest     IngestConfig     `koanf:"ingest"`
	Evaluation EvaluationConfig `koanf:"evaluation"`
	Providers  ai.Config        `koanf:"providers"`
}

// SegmentConfig configures section splitting.
type SegmentConfig struct {
	// Semantic enables model-assisted segmentation, with the heuristic
	// strategy as fallback.
	Semantic      bool `koanf:"semantic"`
	MinChars      int  `koanf:"min_chars"`
	MaxChars      int  `koanf:"max_chars"`
	MaxHeadingLen int  `koanf:"max_heading_len"`
	ChunkChars    int  `koanf:"chunk_chars"`
}

// IngestConfig configures the ingestion pipeline.
type IngestConfig struct {
	// PoolSize is the number of files processed concurrently.
	// Zero uses the pipeline default.
	PoolSize int `koanf:"pool_size"`
}

// EvaluationConfig configures the evaluation loop.
type EvaluationConfig struct {
	// Model is the label evaluations are stored under. It also names the
	// backend tried first.
	Model            string        `koanf:"model"`
	Concurrency      int           `koanf:"concurrency"`
	Limit            int           `koanf:"limit"`
	MaxRetries       int           `koanf:"max_retries"`
	RetryBaseDelay   time.Duration `koanf:"retry_base_delay"`
	ProgressInterval int           `koanf:"progress_interval"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		DBPath:     "./pedagogue_db",
		CoursesDir: "./courses",
		OutputDir:  "./outputs",
		LogLevel:   "info",
		Segment: SegmentConfig{
			Semantic:      true,
			MinChars:      segment.DefaultMinChars,
			MaxChars:      segment.DefaultMaxChars,
			MaxHeadingLen: segment.DefaultMaxHeadingLen,
			ChunkChars:    segment.DefaultChunkChars,
		},
		Evaluation: EvaluationConfig{
			Model:            "claude",
			Concurrency:      1,
			MaxRetries:       1,
			RetryBaseDelay:   2 * time.Second,
			ProgressInterval: 1,
		},
		Providers: *ai.DefaultConfig(),
	}
}

// Validate checks the configuration, including the provider section.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("%w: db path is empty", ErrInvalidConfig)
	}
	if _, err := segment.NewHeuristic(c.SegmentOptions()...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Segment.ChunkChars < 1 {
		return fmt.Errorf("%w: segment.chunk_chars must be at least 1", ErrInvalidConfig)
	}
	if c.Ingest.PoolSize < 0 {
		return fmt.Errorf("%w: ingest.pool_size must not be negative", ErrInvalidConfig)
	}
	if _, err := c.ModelBackend(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Evaluation.Concurrency < 1 {
		return fmt.Errorf("%w: evaluation.concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.Evaluation.Limit < 0 {
		return fmt.Errorf("%w: evaluation.limit must not be negative", ErrInvalidConfig)
	}
	if c.Evaluation.MaxRetries < 0 {
		return fmt.Errorf("%w: evaluation.max_retries must not be negative", ErrInvalidConfig)
	}
	if err := c.Providers.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ModelBackend resolves the evaluation model label to a backend.
func (c *Config) ModelBackend() (ai.Backend, error) {
	return ai.ParseBackend(c.Evaluation.Model)
}

// SegmentOptions returns the heuristic segmenter options.
func (c *Config) SegmentOptions() []segment.Option {
	return []segment.Option{
		segment.WithMinChars(c.Segment.MinChars),
		segment.WithMaxChars(c.Segment.MaxChars),
		segment.WithMaxHeadingLen(c.Segment.MaxHeadingLen),
	}
}

// RetryPolicy returns the policy wrapped around provider calls.
func (c *Config) RetryPolicy() ai.RetryPolicy {
	policy := ai.DefaultRetryPolicy()
	policy.MaxRetries = c.Evaluation.MaxRetries
	if c.Evaluation.RetryBaseDelay > 0 {
		policy.BaseDelay = c.Evaluation.RetryBaseDelay
	}
	return policy
}
