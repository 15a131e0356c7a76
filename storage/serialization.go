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


package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/mus-format/mus-go"
	"github.com/poiesic/pedagogue/core"
)

// MarshalID serializes an ID to 8 big-endian bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(id))
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	if len(data) < 8 {
		return 0, ErrTruncatedData
	}
	return core.ID(binary.BigEndian.Uint64(data)), nil
}

func marshal[T any](ser mus.Serializer[T], v T) []byte {
	buf := make([]byte, ser.Size(v))
	ser.Marshal(v, buf)
	return buf
}

func unmarshal[T any](ser mus.Serializer[T], data []byte) (*T, error) {
	v, _, err := ser.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &v, nil
}

// MarshalCourse serializes a Course to bytes.
func MarshalCourse(course *core.Course) []byte {
	return marshal(CourseMUS, *course)
}

// UnmarshalCourse deserializes a Course from bytes.
func UnmarshalCourse(data []byte) (*core.Course, error) {
	return unmarshal(CourseMUS, data)
}

// MarshalSection serializes a Section to bytes.
func MarshalSection(section *core.Section) []byte {
	return marshal(SectionMUS, *section)
}

// UnmarshalSection deserializes a Section from bytes.
func UnmarshalSection(data []byte) (*core.Section, error) {
	return unmarshal(SectionMUS, data)
}

// MarshalEvaluation serializes an Evaluation to bytes.
func MarshalEvaluation(eval *core.Evaluation) []byte {
	return marshal(EvaluationMUS, *eval)
}

// UnmarshalEvaluation deserializes an Evaluation from bytes.
func UnmarshalEvaluation(data []byte) (*core.Evaluation, error) {
	return unmarshal(EvaluationMUS, data)
}

// MarshalSynthesis serializes a Synthesis to bytes.
func MarshalSynthesis(s *core.Synthesis) []byte {
	return marshal(SynthesisMUS, *s)
}

// UnmarshalSynthesis deserializes a Synthesis from bytes.
func UnmarshalSynthesis(data []byte) (*core.Synthesis, error) {
	return unmarshal(SynthesisMUS, data)
}

// MarshalRun serializes a Run to bytes.
func MarshalRun(run *core.Run) []byte {
	return marshal(RunMUS, *run)
}

// UnmarshalRun deserializes a Run from bytes.
func UnmarshalRun(data []byte) (*core.Run, error) {
	return unmarshal(RunMUS, data)
}
