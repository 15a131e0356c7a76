package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, DefaultAnthropicModel, cfg.AnthropicModel)
	assert.Equal(t, DefaultGeminiModel, cfg.GeminiModel)
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAIModel)
	assert.Equal(t, []Backend{BackendAnthropic, BackendGemini, BackendOpenAI}, cfg.Order)
	assert.Equal(t, BackendGemini, cfg.SegmentationBackend)
	assert.Equal(t, 30, cfg.RequestsPerMinute)
	assert.Equal(t, 0.2, cfg.Temperature)
	assert.Equal(t, 2000, cfg.MaxTokens)
	assert.Empty(t, cfg.Available())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		require.NoError(t, cfg.Validate())
	})

	t.Run("with credentials", func(t *testing.T) {
		cfg := NewConfig(
			WithAnthropic("sk-ant", ""),
			WithGemini("gm-key", "gemini-1.5-pro"),
		)

		assert.Equal(t, "sk-ant", cfg.APIKey(BackendAnthropic))
		assert.Equal(t, DefaultAnthropicModel, cfg.ModelFor(BackendAnthropic))
		assert.Equal(t, "gemini-1.5-pro", cfg.ModelFor(BackendGemini))
		assert.Equal(t, []Backend{BackendAnthropic, BackendGemini}, cfg.Available())
	})

	t.Run("with openai base url", func(t *testing.T) {
		cfg := NewConfig(WithOpenAI("none", "qwen2.5:3b", "http://localhost:11434/v1/"))
		require.NoError(t, cfg.Validate())

		assert.Equal(t, "http://localhost:11434/v1", cfg.OpenAIBaseURL)
		assert.Equal(t, "qwen2.5:3b", cfg.ModelFor(BackendOpenAI))
	})

	t.Run("with custom order", func(t *testing.T) {
		cfg := NewConfig(WithOrder(BackendGemini, BackendAnthropic, BackendGemini))
		require.NoError(t, cfg.Validate())

		assert.Equal(t, []Backend{BackendGemini, BackendAnthropic}, cfg.Order)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    []ConfigOption
		wantErr bool
	}{
		{name: "defaults", opts: nil, wantErr: false},
		{name: "empty order", opts: []ConfigOption{WithOrder()}, wantErr: true},
		{name: "unknown backend", opts: []ConfigOption{WithOrder("mistral")}, wantErr: true},
		{name: "zero rate", opts: []ConfigOption{WithRequestsPerMinute(0)}, wantErr: true},
		{name: "negative temperature", opts: []ConfigOption{WithTemperature(-0.1)}, wantErr: true},
		{name: "zero max tokens", opts: []ConfigOption{WithMaxTokens(0)}, wantErr: true},
		{name: "unknown segmentation backend", opts: []ConfigOption{WithSegmentationBackend("x")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig(tt.opts...).Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Normalize(t *testing.T) {
	cfg := &Config{
		AnthropicAPIKey: "  key \n",
		Order:           []Backend{BackendOpenAI},
	}
	cfg.Normalize()

	assert.Equal(t, "key", cfg.AnthropicAPIKey)
	assert.Equal(t, DefaultAnthropicModel, cfg.AnthropicModel)
	assert.Equal(t, DefaultGeminiModel, cfg.GeminiModel)
	assert.Equal(t, DefaultOpenAIModel, cfg.OpenAIModel)
}

func TestConfig_OrderWithPreferred(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t,
		[]Backend{BackendGemini, BackendAnthropic, BackendOpenAI},
		cfg.OrderWithPreferred(BackendGemini))
	assert.Equal(t,
		[]Backend{BackendAnthropic, BackendGemini, BackendOpenAI},
		cfg.OrderWithPreferred(BackendAnthropic))

	cfg.Order = []Backend{BackendGemini}
	assert.Equal(t,
		[]Backend{BackendOpenAI, BackendGemini},
		cfg.OrderWithPreferred(BackendOpenAI))
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		label   string
		want    Backend
		wantErr bool
	}{
		{label: "claude", want: BackendAnthropic},
		{label: "Anthropic", want: BackendAnthropic},
		{label: "claude-opus", want: BackendAnthropic},
		{label: "gemini", want: BackendGemini},
		{label: "google", want: BackendGemini},
		{label: "gemini-2.0-flash", want: BackendGemini},
		{label: "openai", want: BackendOpenAI},
		{label: " GPT ", want: BackendOpenAI},
		{label: "llama", wantErr: true},
		{label: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseBackend(tt.label)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownBackend)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
