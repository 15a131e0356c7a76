package llm

import (
	"fmt"
	"strings"

	"github.com/poiesic/pedagogue/core"
)

const evaluationSystemPrompt = `You evaluate educational course material for pedagogical quality.
Assume factual correctness. Do not verify truth. Do not invent information.
Only evaluate what is explicitly present.
Return strict JSON only. No markdown. No commentary.`

// buildEvaluationPrompt returns the user prompt asking for a rubric evaluation of text.
func buildEvaluationPrompt(text string) string {
	var rubrics strings.Builder
	for i, name := range core.RubricNames {
		fmt.Fprintf(&rubrics, "%d. %s\n", i+1, name)
	}

	return fmt.Sprintf(`You are given a section of an educational course document. Evaluate it according to the following rubrics (score %d-%d):

%s
Return a single JSON object that validates against this JSON Schema:

%s

"scores" holds one integer per rubric, "reasoning" explains each score, "issues" lists problems found, "fixes" proposes concrete improvements and "evidence" holds short quotes from the text.

Section text:
<<<
%s
>>>`, core.MinScore, core.MaxScore, rubrics.String(), core.EvaluationSchema, text)
}
