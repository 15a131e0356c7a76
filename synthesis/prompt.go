package synthesis

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/pedagogue/core"
)

const systemPrompt = "You are a pedagogical expert. Synthesize a course-level quality report."

// DigestEntry is the per-section summary sent to the synthesis provider.
type DigestEntry struct {
	Index  int            `json:"index"`
	Model  string         `json:"model"`
	Scores map[string]int `json:"scores"`
	Issues []string       `json:"issues"`
}

// BuildDigest summarizes every evaluation of a course, in section order.
// A section evaluated under several model labels appears once per label.
func BuildDigest(evals []*core.CourseEvaluation) []DigestEntry {
	digest := make([]DigestEntry, 0, len(evals))
	for _, ce := range evals {
		scores := make(map[string]int, core.RubricCount)
		for i, score := range ce.Evaluation.Scores {
			scores[fmt.Sprintf("r%d", i+1)] = score
		}
		issues := ce.Evaluation.Issues
		if issues == nil {
			issues = []string{}
		}
		digest = append(digest, DigestEntry{
			Index:  ce.Ordinal,
			Model:  ce.Evaluation.Model,
			Scores: scores,
			Issues: issues,
		})
	}
	return digest
}

// BuildPrompt embeds the digest as indented JSON in the synthesis request.
func BuildPrompt(digest []DigestEntry) (string, error) {
	data, err := json.MarshalIndent(digest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding digest: %w", err)
	}

	return fmt.Sprintf(`Based on the following per-section evaluation data, provide a comprehensive synthesis of the course quality.
Identify systemic strengths, recurring weaknesses, and a prioritized list of improvements.
Scores r1 to r%d follow the rubric order: %s.

Data:
%s

Format:
# Course Synthesis Report
## Executive Summary
...
## Systemic Strengths
...
## Recurring Weaknesses
...
## Priority Improvements
...
`, core.RubricCount, rubricList(), data), nil
}

func rubricList() string {
	data, _ := json.Marshal(core.RubricNames)
	return string(data)
}
