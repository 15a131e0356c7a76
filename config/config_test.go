package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/pedagogue/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

// noDotEnv points Load at a .env file that does not exist.
func noDotEnv(t *testing.T) string {
	return filepath.Join(t.TempDir(), ".env")
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1000, cfg.Segment.MinChars)
	assert.Equal(t, 12000, cfg.Segment.MaxChars)
	assert.Equal(t, 30, cfg.Providers.RequestsPerMinute)
	assert.True(t, cfg.Segment.Semantic)

	backend, err := cfg.ModelBackend()
	require.NoError(t, err)
	assert.Equal(t, ai.BackendAnthropic, backend)
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := Load("", noDotEnv(t))
	require.NoError(t, err)
	assert.Equal(t, Default().DBPath, cfg.DBPath)
	assert.Equal(t, Default().Evaluation, cfg.Evaluation)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "pedagogue.yaml", `
db: /data/db
output_dir: /data/out
segment:
  max_chars: 6000
  semantic: false
evaluation:
  model: gemini
  concurrency: 4
  retry_base_delay: 5s
providers:
  order: [gemini, openai]
  requests_per_minute: 10
  openai_base_url: http://localhost:11434/v1/
`)

	cfg, err := Load(path, noDotEnv(t))
	require.NoError(t, err)
	assert.Equal(t, "/data/db", cfg.DBPath)
	assert.Equal(t, "/data/out", cfg.OutputDir)
	assert.Equal(t, Default().CoursesDir, cfg.CoursesDir, "unset keys keep their default")
	assert.Equal(t, 6000, cfg.Segment.MaxChars)
	assert.Equal(t, 1000, cfg.Segment.MinChars)
	assert.False(t, cfg.Segment.Semantic)
	assert.Equal(t, "gemini", cfg.Evaluation.Model)
	assert.Equal(t, 4, cfg.Evaluation.Concurrency)
	assert.Equal(t, 5*time.Second, cfg.RetryPolicy().BaseDelay)
	assert.Equal(t, []ai.Backend{ai.BackendGemini, ai.BackendOpenAI}, cfg.Providers.Order)
	assert.Equal(t, 10, cfg.Providers.RequestsPerMinute)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Providers.OpenAIBaseURL)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, "pedagogue.yaml", "db: /from/file\nsegment:\n  max_chars: 6000\n")
	t.Setenv("PEDAGOGUE_DB", "/from/env")
	t.Setenv("PEDAGOGUE_MAX_CHARS", "8000")
	t.Setenv("PEDAGOGUE_EVALUATION__LIMIT", "25")
	t.Setenv("PEDAGOGUE_PROVIDERS__ORDER", "openai,anthropic")
	t.Setenv("ANTHROPIC_API_KEY", " sk-ant ")
	t.Setenv("GEMINI_MODEL", "gemini-1.5-pro")

	cfg, err := Load(path, noDotEnv(t))
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.DBPath)
	assert.Equal(t, 8000, cfg.Segment.MaxChars)
	assert.Equal(t, 25, cfg.Evaluation.Limit)
	assert.Equal(t, []ai.Backend{ai.BackendOpenAI, ai.BackendAnthropic}, cfg.Providers.Order)
	assert.Equal(t, "sk-ant", cfg.Providers.AnthropicAPIKey, "validation normalizes credentials")
	assert.Equal(t, "gemini-1.5-pro", cfg.Providers.GeminiModel)
}

func TestLoad_DotEnv(t *testing.T) {
	dotenv := writeFile(t, ".env", "GEMINI_API_KEY=from-dotenv\nPEDAGOGUE_OUTPUT_DIR=/from/dotenv\n")
	t.Setenv("PEDAGOGUE_OUTPUT_DIR", "/from/env")
	// Registers cleanup for the variable the .env file sets.
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")

	cfg, err := Load("", dotenv)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Providers.GeminiAPIKey)
	assert.Equal(t, "/from/env", cfg.OutputDir, "the real environment wins over .env")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"invalid yaml", "db: [unterminated"},
		{"ceiling below floor", "segment:\n  min_chars: 500\n  max_chars: 400\n"},
		{"unknown model", "evaluation:\n  model: mistral\n"},
		{"unknown backend", "providers:\n  order: [mistral]\n"},
		{"zero concurrency", "evaluation:\n  concurrency: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "pedagogue.yaml", tt.contents)
			_, err := Load(path, noDotEnv(t))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), noDotEnv(t))
	assert.Error(t, err)
}

func TestValidate_Sentinel(t *testing.T) {
	cfg := Default()
	cfg.Evaluation.Limit = -1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"OPENAI_API_KEY":               "providers.openai_api_key",
		"PEDAGOGUE_COURSES_DIR":        "courses_dir",
		"PEDAGOGUE_LOG_LEVEL":          "log_level",
		"PEDAGOGUE_SEGMENT__MIN_CHARS": "segment.min_chars",
		"HOME":                         "",
		"PATH":                         "",
	}
	for name, want := range tests {
		assert.Equal(t, want, envKey(name), name)
	}
}
