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
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/pedagogue/core"
)

// Serializers for the stored records. Fields are written in declaration
// order; times are stored as UTC seconds plus nanoseconds.
var (
	CourseMUS     = courseMUS{}
	SectionMUS    = sectionMUS{}
	EvaluationMUS = evaluationMUS{}
	SynthesisMUS  = synthesisMUS{}
	RunMUS        = runMUS{}

	timeMUS        = timeSer{}
	stringSliceMUS = ord.NewSliceSer[string](ord.String)
)

var (
	_ mus.Serializer[core.Course]     = CourseMUS
	_ mus.Serializer[core.Section]    = SectionMUS
	_ mus.Serializer[core.Evaluation] = EvaluationMUS
	_ mus.Serializer[core.Synthesis]  = SynthesisMUS
	_ mus.Serializer[core.Run]        = RunMUS
)

type timeSer struct{}

func (timeSer) Marshal(t time.Time, bs []byte) (n int) {
	n = varint.Int64.Marshal(t.Unix(), bs)
	return n + varint.Int.Marshal(t.Nanosecond(), bs[n:])
}

func (timeSer) Unmarshal(bs []byte) (t time.Time, n int, err error) {
	sec, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	nsec, n1, err := varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	return time.Unix(sec, int64(nsec)).UTC(), n, nil
}

func (timeSer) Size(t time.Time) int {
	return varint.Int64.Size(t.Unix()) + varint.Int.Size(t.Nanosecond())
}

func (s timeSer) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type courseMUS struct{}

func (courseMUS) Marshal(c core.Course, bs []byte) (n int) {
	n = ord.String.Marshal(c.Fingerprint, bs)
	n += ord.String.Marshal(c.Filename, bs[n:])
	n += ord.String.Marshal(c.Path, bs[n:])
	n += ord.String.Marshal(c.Source, bs[n:])
	return n + timeMUS.Marshal(c.InsertedAt, bs[n:])
}

func (courseMUS) Unmarshal(bs []byte) (c core.Course, n int, err error) {
	var n1 int
	for _, field := range []*string{&c.Fingerprint, &c.Filename, &c.Path, &c.Source} {
		*field, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	c.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (courseMUS) Size(c core.Course) (size int) {
	size = ord.String.Size(c.Fingerprint)
	size += ord.String.Size(c.Filename)
	size += ord.String.Size(c.Path)
	size += ord.String.Size(c.Source)
	return size + timeMUS.Size(c.InsertedAt)
}

func (s courseMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

type sectionMUS struct{}

func (sectionMUS) Marshal(s core.Section, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(s.ID), bs)
	n += ord.String.Marshal(s.CourseFingerprint, bs[n:])
	n += varint.Int.Marshal(s.Ordinal, bs[n:])
	n += ord.String.Marshal(s.Content, bs[n:])
	return n + varint.Int.Marshal(s.CharCount, bs[n:])
}

func (sectionMUS) Unmarshal(bs []byte) (s core.Section, n int, err error) {
	id, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	s.ID = core.ID(id)
	var n1 int
	s.CourseFingerprint, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Ordinal, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	s.CharCount, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (sectionMUS) Size(s core.Section) (size int) {
	size = varint.Uint64.Size(uint64(s.ID))
	size += ord.String.Size(s.CourseFingerprint)
	size += varint.Int.Size(s.Ordinal)
	size += ord.String.Size(s.Content)
	return size + varint.Int.Size(s.CharCount)
}

func (m sectionMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = m.Unmarshal(bs)
	return
}

// evaluationMUS writes the rubric arrays element by element, always
// core.RubricCount entries, so their length is not stored.
type evaluationMUS struct{}

func (evaluationMUS) Marshal(e core.Evaluation, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(e.ID), bs)
	n += varint.Uint64.Marshal(uint64(e.SectionID), bs[n:])
	n += ord.String.Marshal(e.Model, bs[n:])
	n += ord.String.Marshal(e.ProviderModel, bs[n:])
	for _, score := range e.Scores {
		n += varint.Int.Marshal(score, bs[n:])
	}
	for _, reasoning := range e.Reasoning {
		n += ord.String.Marshal(reasoning, bs[n:])
	}
	n += stringSliceMUS.Marshal(e.Issues, bs[n:])
	n += stringSliceMUS.Marshal(e.Fixes, bs[n:])
	n += stringSliceMUS.Marshal(e.Evidence, bs[n:])
	n += ord.String.Marshal(e.Raw, bs[n:])
	return n + timeMUS.Marshal(e.InsertedAt, bs[n:])
}

func (evaluationMUS) Unmarshal(bs []byte) (e core.Evaluation, n int, err error) {
	var (
		id uint64
		n1 int
	)
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	e.ID = core.ID(id)
	id, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.SectionID = core.ID(id)
	e.Model, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.ProviderModel, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for i := range e.Scores {
		e.Scores[i], n1, err = varint.Int.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for i := range e.Reasoning {
		e.Reasoning[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for _, field := range []*[]string{&e.Issues, &e.Fixes, &e.Evidence} {
		*field, n1, err = stringSliceMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	e.Raw, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.InsertedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (evaluationMUS) Size(e core.Evaluation) (size int) {
	size = varint.Uint64.Size(uint64(e.ID))
	size += varint.Uint64.Size(uint64(e.SectionID))
	size += ord.String.Size(e.Model)
	size += ord.String.Size(e.ProviderModel)
	for _, score := range e.Scores {
		size += varint.Int.Size(score)
	}
	for _, reasoning := range e.Reasoning {
		size += ord.String.Size(reasoning)
	}
	size += stringSliceMUS.Size(e.Issues)
	size += stringSliceMUS.Size(e.Fixes)
	size += stringSliceMUS.Size(e.Evidence)
	size += ord.String.Size(e.Raw)
	return size + timeMUS.Size(e.InsertedAt)
}

func (m evaluationMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = m.Unmarshal(bs)
	return
}

type synthesisMUS struct{}

func (synthesisMUS) Marshal(s core.Synthesis, bs []byte) (n int) {
	n = ord.String.Marshal(s.CourseFingerprint, bs)
	n += ord.String.Marshal(s.Model, bs[n:])
	n += ord.String.Marshal(s.Report, bs[n:])
	return n + timeMUS.Marshal(s.CreatedAt, bs[n:])
}

func (synthesisMUS) Unmarshal(bs []byte) (s core.Synthesis, n int, err error) {
	var n1 int
	for _, field := range []*string{&s.CourseFingerprint, &s.Model, &s.Report} {
		*field, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	s.CreatedAt, n1, err = timeMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (synthesisMUS) Size(s core.Synthesis) (size int) {
	size = ord.String.Size(s.CourseFingerprint)
	size += ord.String.Size(s.Model)
	size += ord.String.Size(s.Report)
	return size + timeMUS.Size(s.CreatedAt)
}

func (m synthesisMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = m.Unmarshal(bs)
	return
}

type runMUS struct{}

func (runMUS) Marshal(r core.Run, bs []byte) (n int) {
	n = ord.String.Marshal(r.Model, bs)
	n += timeMUS.Marshal(r.StartedAt, bs[n:])
	n += timeMUS.Marshal(r.FinishedAt, bs[n:])
	n += varint.Int.Marshal(r.Selected, bs[n:])
	n += varint.Int.Marshal(r.Persisted, bs[n:])
	return n + varint.Int.Marshal(r.Skipped, bs[n:])
}

func (runMUS) Unmarshal(bs []byte) (r core.Run, n int, err error) {
	r.Model, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	for _, field := range []*time.Time{&r.StartedAt, &r.FinishedAt} {
		*field, n1, err = timeMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for _, field := range []*int{&r.Selected, &r.Persisted, &r.Skipped} {
		*field, n1, err = varint.Int.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (runMUS) Size(r core.Run) (size int) {
	size = ord.String.Size(r.Model)
	size += timeMUS.Size(r.StartedAt)
	size += timeMUS.Size(r.FinishedAt)
	size += varint.Int.Size(r.Selected)
	size += varint.Int.Size(r.Persisted)
	return size + varint.Int.Size(r.Skipped)
}

func (m runMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = m.Unmarshal(bs)
	return
}
