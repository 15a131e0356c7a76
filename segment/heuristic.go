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


package segment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMinChars is the size a section must exceed before a heading may close it.
	DefaultMinChars = 1000
	// DefaultMaxChars is the hard ceiling on section size.
	DefaultMaxChars = 12000
	// DefaultMaxHeadingLen bounds the length of an all-uppercase heading.
	DefaultMaxHeadingLen = 60
)

// Config holds the heuristic segmentation thresholds.
// Sizes are counted in characters (runes), newlines included.
type Config struct {
	// MinChars is the floor: a heading only starts a new section once the
	// current one is larger than this.
	MinChars int

	// MaxChars is the ceiling: no section is ever longer than this.
	MaxChars int

	// MaxHeadingLen is passed to UppercaseHeading by the default matcher set.
	MaxHeadingLen int

	// Matchers recognize heading lines. Default: DefaultHeadingMatchers.
	Matchers []HeadingMatcher
}

// Option configures a Heuristic segmenter.
type Option func(*Config)

// WithMinChars sets the section floor.
func WithMinChars(n int) Option {
	return func(c *Config) {
		c.MinChars = n
	}
}

// WithMaxChars sets the section ceiling.
func WithMaxChars(n int) Option {
	return func(c *Config) {
		c.MaxChars = n
	}
}

// WithMaxHeadingLen sets the length bound for uppercase headings.
func WithMaxHeadingLen(n int) Option {
	return func(c *Config) {
		c.MaxHeadingLen = n
	}
}

// WithHeadingMatchers replaces the default heading matchers.
func WithHeadingMatchers(matchers ...HeadingMatcher) Option {
	return func(c *Config) {
		c.Matchers = matchers
	}
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{
		MinChars:      DefaultMinChars,
		MaxChars:      DefaultMaxChars,
		MaxHeadingLen: DefaultMaxHeadingLen,
	}
}

// Validate checks the thresholds.
func (c Config) Validate() error {
	if c.MinChars < 0 {
		return fmt.Errorf("%w: MinChars must be >= 0", ErrInvalidConfig)
	}
	if c.MaxChars <= c.MinChars {
		return fmt.Errorf("%w: MaxChars (%d) must be greater than MinChars (%d)", ErrInvalidConfig, c.MaxChars, c.MinChars)
	}
	if c.MaxHeadingLen < 1 {
		return fmt.Errorf("%w: MaxHeadingLen must be >= 1", ErrInvalidConfig)
	}
	return nil
}

// Heuristic segments text on heading lines and size limits.
type Heuristic struct {
	config Config
	logger *slog.Logger
}

var _ Segmenter = (*Heuristic)(nil)

// NewHeuristic creates a heuristic segmenter from the defaults and opts.
func NewHeuristic(opts ...Option) (*Heuristic, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Matchers == nil {
		cfg.Matchers = DefaultHeadingMatchers(cfg.MaxHeadingLen)
	}
	return &Heuristic{
		config: cfg,
		logger: slog.Default().With("component", "heuristic-segmenter"),
	}, nil
}

// Name returns "heuristic".
func (h *Heuristic) Name() string {
	return "heuristic"
}

// Config returns the thresholds in use.
func (h *Heuristic) Config() Config {
	return h.config
}

// Segment splits text in a single pass over its lines.
//
// A boundary is placed before a line when the line is a heading and the
// current section exceeds MinChars, or when appending the line would exceed
// MaxChars. Lines longer than MaxChars are cut into MaxChars pieces first.
// Sections made only of whitespace are dropped.
func (h *Heuristic) Segment(_ context.Context, text string) ([]string, error) {
	var (
		sections []string
		current  []string
		size     int // characters in current plus one newline per line
	)

	flush := func() {
		section := strings.Join(current, "\n")
		if strings.TrimSpace(section) != "" {
			sections = append(sections, section)
		}
		current = current[:0]
		size = 0
	}

	for _, line := range strings.Split(text, "\n") {
		for _, piece := range wrap(line, h.config.MaxChars) {
			n := utf8.RuneCountInString(piece)
			if len(current) > 0 && ((size > h.config.MinChars && h.isHeading(piece)) || size+n > h.config.MaxChars) {
				flush()
			}
			current = append(current, piece)
			size += n + 1
		}
	}
	flush()

	h.logger.Debug("segmented text", "sections", len(sections), "chars", utf8.RuneCountInString(text))
	return sections, nil
}

func (h *Heuristic) isHeading(line string) bool {
	for _, m := range h.config.Matchers {
		if m.IsHeading(line) {
			return true
		}
	}
	return false
}

// wrap cuts line into pieces of at most limit characters.
func wrap(line string, limit int) []string {
	if utf8.RuneCountInString(line) <= limit {
		return []string{line}
	}
	runes := []rune(line)
	pieces := make([]string, 0, len(runes)/limit+1)
	for len(runes) > limit {
		pieces = append(pieces, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}
