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


// Package report aggregates stored evaluations into per-course and
// per-source rubric means and renders them as CSV and as a PDF scorecard.
package report

import (
	"context"
	"sort"

	"github.com/poiesic/pedagogue/core"
	"github.com/poiesic/pedagogue/storage"
)

// Means holds one mean score per rubric, in rubric order.
type Means [core.RubricCount]float64

// Overall returns the mean of the rubric means.
func (m Means) Overall() float64 {
	total := 0.0
	for _, v := range m {
		total += v
	}
	return total / core.RubricCount
}

// CourseAggregate is the rubric means of one course.
type CourseAggregate struct {
	Fingerprint string
	Filename    string
	Source      string
	Sections    int // Evaluations averaged
	Means       Means
}

// SourceAggregate is the rubric means of every evaluation of the courses
// sharing a source label.
type SourceAggregate struct {
	Source   string
	Courses  int
	Sections int
	Means    Means
}

// Aggregates is the input of every report writer.
type Aggregates struct {
	Model   string // Empty when every model label is included
	Courses []CourseAggregate
	Sources []SourceAggregate
}

// accumulator sums scores until the means are taken.
type accumulator struct {
	count  int
	totals [core.RubricCount]int
}

func (a *accumulator) add(scores core.Scores) {
	a.count++
	for i, v := range scores {
		a.totals[i] += v
	}
}

func (a *accumulator) means() Means {
	var m Means
	if a.count == 0 {
		return m
	}
	for i, v := range a.totals {
		m[i] = float64(v) / float64(a.count)
	}
	return m
}

// Aggregate computes the rubric means of every course that has evaluations
// under model, and of every source. An empty model includes all labels.
// Courses are ordered by filename and sources by label.
func Aggregate(ctx context.Context, repo storage.CourseRepository, model string) (*Aggregates, error) {
	courses, err := repo.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	result := &Aggregates{Model: model}
	sources := make(map[string]*accumulator)
	sourceCourses := make(map[string]int)

	for _, course := range courses {
		evals, err := repo.CourseEvaluations(ctx, course.Fingerprint)
		if err != nil {
			return nil, err
		}

		var acc accumulator
		for _, ce := range evals {
			if model != "" && ce.Evaluation.Model != model {
				continue
			}
			acc.add(ce.Evaluation.Scores)
		}
		if acc.count == 0 {
			continue
		}

		result.Courses = append(result.Courses, CourseAggregate{
			Fingerprint: course.Fingerprint,
			Filename:    course.Filename,
			Source:      course.Source,
			Sections:    acc.count,
			Means:       acc.means(),
		})

		src, ok := sources[course.Source]
		if !ok {
			src = &accumulator{}
			sources[course.Source] = src
		}
		src.count += acc.count
		for i, v := range acc.totals {
			src.totals[i] += v
		}
		sourceCourses[course.Source]++
	}

	sort.SliceStable(result.Courses, func(i, j int) bool {
		return result.Courses[i].Filename < result.Courses[j].Filename
	})

	for name, acc := range sources {
		result.Sources = append(result.Sources, SourceAggregate{
			Source:   name,
			Courses:  sourceCourses[name],
			Sections: acc.count,
			Means:    acc.means(),
		})
	}
	sort.Slice(result.Sources, func(i, j int) bool {
		return result.Sources[i].Source < result.Sources[j].Source
	})

	return result, nil
}
