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


package badger

import (
	"encoding/binary"

	"github.com/poiesic/pedagogue/core"
)

// Key prefixes. Every prefix ends in ':' so no prefix is a prefix of another.
const (
	coursePrefix        = "course:"
	sectionPrefix       = "sec:"
	courseSectionPrefix = "csec:"
	evaluationPrefix    = "eval:"
	sectionEvalPrefix   = "seval:"
	synthesisPrefix     = "synth:"
	runPrefix           = "run:"
	sectionIDSeq        = "seq:section"
	evaluationIDSeq     = "seq:evaluation"
)

// dataPrefixes lists every prefix holding records. Sequences are not included.
var dataPrefixes = []string{
	coursePrefix,
	sectionPrefix,
	courseSectionPrefix,
	evaluationPrefix,
	sectionEvalPrefix,
	synthesisPrefix,
	runPrefix,
}

// appendID appends id in BigEndian order so lexicographic sort matches numeric sort.
func appendID(buf []byte, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makeCourseKey generates a key for a course by fingerprint.
func makeCourseKey(fingerprint string) []byte {
	return []byte(coursePrefix + fingerprint)
}

// makeSectionKey generates a key for a section by ID.
func makeSectionKey(id core.ID) []byte {
	return appendID([]byte(sectionPrefix), id)
}

// makeCourseSectionPrefix generates the partial key for a course's ordinal index.
// Format: prefix fingerprint ':'
func makeCourseSectionPrefix(fingerprint string) []byte {
	return []byte(courseSectionPrefix + fingerprint + ":")
}

// makeCourseSectionKey generates a composite key for the ordinal index.
// Format: prefix fingerprint ':' ordinal(4 bytes)
func makeCourseSectionKey(fingerprint string, ordinal int) []byte {
	return binary.BigEndian.AppendUint32(makeCourseSectionPrefix(fingerprint), uint32(ordinal))
}

// ordinalFromKey reads the ordinal from a course section index key.
func ordinalFromKey(key []byte) int {
	return int(binary.BigEndian.Uint32(key[len(key)-4:]))
}

// makeEvaluationKey generates a key for an evaluation by ID.
func makeEvaluationKey(id core.ID) []byte {
	return appendID([]byte(evaluationPrefix), id)
}

// makeSectionEvalPrefix generates the partial key for a section's evaluations.
// Format: prefix sectionID(8 bytes)
func makeSectionEvalPrefix(sectionID core.ID) []byte {
	return appendID([]byte(sectionEvalPrefix), sectionID)
}

// makeSectionEvalKey generates the uniqueness key for (section, model).
// Format: prefix sectionID(8 bytes) model
func makeSectionEvalKey(sectionID core.ID, model string) []byte {
	return append(makeSectionEvalPrefix(sectionID), model...)
}

// makeSynthesisKey generates a key for a course synthesis.
func makeSynthesisKey(fingerprint string) []byte {
	return []byte(synthesisPrefix + fingerprint)
}

// makeRunKey generates a key for the latest run of a model.
func makeRunKey(model string) []byte {
	return []byte(runPrefix + model)
}
