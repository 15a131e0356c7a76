package llm

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"
)

// fakeModel is an llms.Model that replays canned responses in order.
// Once the list is exhausted the last entry is repeated.
type fakeModel struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
	options   llms.CallOptions
	messages  []llms.MessageContent
}

var _ llms.Model = (*fakeModel)(nil)

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.calls
	f.calls++
	f.messages = messages
	f.options = llms.CallOptions{}
	for _, opt := range options {
		opt(&f.options)
	}

	if len(f.errs) > 0 {
		if err := f.errs[min(idx, len(f.errs)-1)]; err != nil {
			return nil, err
		}
	}
	if len(f.responses) == 0 {
		return &llms.ContentResponse{}, nil
	}
	content := f.responses[min(idx, len(f.responses)-1)]
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func (f *fakeModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

const validEvaluationJSON = `{
  "scores": {"rubric1": 8, "rubric2": 7, "rubric3": 6, "rubric4": 5, "rubric5": 4, "rubric6": 3, "rubric7": 2},
  "reasoning": {"rubric1": "a", "rubric2": "b", "rubric3": "c", "rubric4": "d", "rubric5": "e", "rubric6": "f", "rubric7": "g"},
  "issues": ["no learning goals stated"],
  "fixes": ["open with objectives"],
  "evidence": ["\"in this chapter\""]
}`
