package segment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/pedagogue/ai"
)

const (
	// SectionBreak is the marker the model inserts between sections.
	SectionBreak = "[SECTION_BREAK]"

	// DefaultChunkChars is the size of the rough chunks sent to the model.
	DefaultChunkChars = 30000
)

const segmentationSystemPrompt = "You are a document structure analyst."

// Semantic asks a language model where the pedagogical section boundaries are.
type Semantic struct {
	completer  ai.Completer
	chunkChars int
	logger     *slog.Logger
}

var _ Segmenter = (*Semantic)(nil)

// SemanticOption configures a Semantic segmenter.
type SemanticOption func(*Semantic)

// WithChunkChars sets the rough chunk size sent per request.
func WithChunkChars(n int) SemanticOption {
	return func(s *Semantic) {
		s.chunkChars = n
	}
}

// NewSemantic creates a semantic segmenter that sends requests through completer.
func NewSemantic(completer ai.Completer, opts ...SemanticOption) (*Semantic, error) {
	s := &Semantic{
		completer:  completer,
		chunkChars: DefaultChunkChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.chunkChars < 1 {
		return nil, fmt.Errorf("%w: chunk size must be >= 1", ErrInvalidConfig)
	}
	s.logger = slog.Default().With("component", "semantic-segmenter", "backend", completer.Name())
	return s, nil
}

// Name returns "semantic".
func (s *Semantic) Name() string {
	return "semantic"
}

// Segment sends each rough chunk of text to the model and splits the reply
// on SectionBreak. A chunk the model returns nothing for is kept whole.
// Any provider failure aborts segmentation and is returned.
func (s *Semantic) Segment(ctx context.Context, text string) ([]string, error) {
	var sections []string
	for i, chunk := range roughChunks(text, s.chunkChars) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		response, err := s.completer.Complete(ctx, ai.Request{
			System:      segmentationSystemPrompt,
			Prompt:      buildSegmentationPrompt(chunk),
			Temperature: 0,
		})
		if err != nil {
			return nil, fmt.Errorf("segmenting chunk %d: %w", i, err)
		}

		if strings.TrimSpace(response) == "" {
			s.logger.Debug("model returned no text, keeping chunk whole", "chunk", i)
			if trimmed := strings.TrimSpace(chunk); trimmed != "" {
				sections = append(sections, trimmed)
			}
			continue
		}
		sections = append(sections, splitOnBreaks(response)...)
	}

	s.logger.Debug("segmented text", "sections", len(sections))
	return sections, nil
}

func buildSegmentationPrompt(chunk string) string {
	return `The following text is from a course. Split it into logical sections where each section is a self-contained pedagogical module (e.g., a specific topic, a lesson, or a set of related concepts).
Return each section separated by a special token ` + SectionBreak + `.
Do not change the original text at all, just insert the breaks.

Text:
` + chunk
}

// splitOnBreaks splits response on SectionBreak and drops blank pieces.
func splitOnBreaks(response string) []string {
	parts := strings.Split(response, SectionBreak)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// roughChunks cuts text into pieces of at most size characters, preferring
// to cut just after the last newline inside the window.
func roughChunks(text string, size int) []string {
	if utf8.RuneCountInString(text) <= size {
		if text == "" {
			return nil
		}
		return []string{text}
	}

	runes := []rune(text)
	var chunks []string
	for len(runes) > size {
		cut := size
		for i := size - 1; i > 0; i-- {
			if runes[i] == '\n' {
				cut = i + 1
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
