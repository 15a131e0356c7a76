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


// Package segment splits extracted course text into ordered sections.
//
// Two strategies implement Segmenter:
//
//   - Heuristic walks the text line by line and cuts at headings once a
//     section has reached a minimum size, or whenever the next line would
//     push it past a ceiling.
//   - Semantic asks a language model to insert [SECTION_BREAK] markers into
//     rough chunks of the text and splits on them.
//
// Both return a finite, ordered list of non-empty sections. Semantic calls
// can fail; callers are expected to fall back to Heuristic in that case.
package segment

import (
	"context"
	"errors"
)

// ErrInvalidConfig is returned for out-of-range segmentation settings.
var ErrInvalidConfig = errors.New("invalid segmentation config")

// Segmenter splits text into an ordered list of non-empty sections.
type Segmenter interface {
	// Name identifies the strategy in logs.
	Name() string

	// Segment returns the sections of text in document order.
	Segment(ctx context.Context, text string) ([]string, error)
}
