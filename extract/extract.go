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


// Package extract turns course documents into plain text.
//
// Extraction is treated as an opaque bytes-to-text step: callers only see a
// string or an error. The PDF implementation is pure Go and does no OCR, so
// scanned documents yield ErrNoText.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrUnreadable is returned when a document cannot be opened or parsed.
	ErrUnreadable = errors.New("document could not be read")

	// ErrNoText is returned when a document parses but contains no text.
	ErrNoText = errors.New("no text extracted")

	// ErrTooLarge is returned for files over the configured size limit.
	ErrTooLarge = errors.New("document too large")
)

// DefaultMaxFileSize is the largest document PDF will open, in bytes.
const DefaultMaxFileSize int64 = 256 << 20

// Extractor returns the text content of the document at path.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(ctx context.Context, path string) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// PDF extracts the text layer of PDF documents page by page.
type PDF struct {
	maxFileSize int64
	logger      *slog.Logger
}

var _ Extractor = (*PDF)(nil)

// Option configures a PDF extractor.
type Option func(*PDF)

// WithMaxFileSize sets the size limit in bytes. Values < 1 disable the limit.
func WithMaxFileSize(n int64) Option {
	return func(p *PDF) {
		p.maxFileSize = n
	}
}

// NewPDF creates a PDF extractor.
func NewPDF(opts ...Option) *PDF {
	p := &PDF{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default().With("component", "pdf-extractor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract reads every page of the PDF at path and joins their text with
// newlines. NUL bytes are removed and the result is trimmed.
// Pages that fail to decode are logged and skipped.
func (p *PDF) Extract(ctx context.Context, path string) (text string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if p.maxFileSize > 0 && info.Size() > p.maxFileSize {
		return "", fmt.Errorf("%w: %s is %d bytes (max %d)", ErrTooLarge, path, info.Size(), p.maxFileSize)
	}

	// The pdf package reports malformed input by panicking.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %s: %v", ErrUnreadable, path, r)
		}
	}()

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUnreadable, path, err)
	}

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Warn("skipping unreadable page", "path", path, "page", i, "err", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(content)
	}

	text = Clean(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrNoText, path)
	}
	p.logger.Debug("extracted document", "path", path, "pages", pages, "chars", len(text))
	return text, nil
}

// Clean removes NUL bytes and surrounding whitespace.
func Clean(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}
