package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/pedagogue/ai"
)

func TestProviders_EvaluatorsFollowPreferredOrder(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, ai.NewConfig())
	require.NoError(t, err)
	defer providers.Close()

	evaluators, err := providers.Evaluators(ctx, ai.BackendGemini)
	require.NoError(t, err)
	require.Len(t, evaluators, 3)
	assert.Equal(t, "gemini", evaluators[0].Name())
	assert.Equal(t, "anthropic", evaluators[1].Name())
	assert.Equal(t, "openai", evaluators[2].Name())

	evaluators, err = providers.Evaluators(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", evaluators[0].Name())
}

func TestProviders_ClientsAreShared(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, ai.NewConfig(ai.WithOrder(ai.BackendOpenAI)))
	require.NoError(t, err)

	a, err := providers.Client(ctx, ai.BackendOpenAI)
	require.NoError(t, err)
	b, err := providers.Client(ctx, ai.BackendOpenAI)
	require.NoError(t, err)
	assert.Same(t, a, b)

	seg, err := providers.Segmenter(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gemini", seg.Name())
}

func TestProviders_UnknownBackend(t *testing.T) {
	ctx := context.Background()
	providers, err := NewProviders(ctx, ai.NewConfig())
	require.NoError(t, err)

	_, err = providers.Synthesizer(ctx, ai.Backend("mistral"))
	assert.ErrorIs(t, err, ai.ErrUnknownBackend)
}

func TestNewProviders_InvalidConfig(t *testing.T) {
	_, err := NewProviders(context.Background(), ai.NewConfig(ai.WithRequestsPerMinute(0)))
	assert.Error(t, err)
}
