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


package ai

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Default model identifiers per backend.
const (
	DefaultAnthropicModel = "claude-3-5-sonnet-20241022"
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultOpenAIModel    = "gpt-4o-mini"
)

// Config holds configuration for the language-model providers.
type Config struct {
	// AnthropicAPIKey authenticates against the Anthropic API.
	// An empty key makes the Anthropic provider report KindCredentialMissing.
	AnthropicAPIKey string `koanf:"anthropic_api_key"`

	// AnthropicModel is the Claude model identifier.
	// Default: "claude-3-5-sonnet-20241022"
	AnthropicModel string `koanf:"anthropic_model"`

	// GeminiAPIKey authenticates against the Gemini API.
	GeminiAPIKey string `koanf:"gemini_api_key"`

	// GeminiModel is the Gemini model identifier.
	// Default: "gemini-2.0-flash"
	GeminiModel string `koanf:"gemini_model"`

	// OpenAIAPIKey authenticates against an OpenAI-compatible API.
	OpenAIAPIKey string `koanf:"openai_api_key"`

	// OpenAIModel is the chat model identifier.
	// Default: "gpt-4o-mini"
	OpenAIModel string `koanf:"openai_model"`

	// OpenAIBaseURL overrides the API endpoint, e.g. "http://localhost:11434/v1"
	// for a local OpenAI-compatible server.
	OpenAIBaseURL string `koanf:"openai_base_url"`

	// Order is the provider fallback order. Backends not listed are not used.
	// Default: anthropic, gemini, openai
	Order []Backend `koanf:"order"`

	// SegmentationBackend answers semantic segmentation requests.
	// Default: gemini
	SegmentationBackend Backend `koanf:"segmentation_backend"`

	// RequestsPerMinute caps outbound calls per provider.
	// Default: 30
	RequestsPerMinute int `koanf:"requests_per_minute"`

	// Temperature is the sampling temperature for evaluation calls.
	// Default: 0.2
	Temperature float64 `koanf:"temperature"`

	// MaxTokens caps evaluation responses.
	// Default: 2000
	MaxTokens int `koanf:"max_tokens"`

	// SynthesisMaxTokens caps synthesis responses.
	// Default: 4000
	SynthesisMaxTokens int `koanf:"synthesis_max_tokens"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithAnthropic sets the Anthropic API key and, if non-empty, the model.
func WithAnthropic(apiKey, model string) ConfigOption {
	return func(c *Config) {
		c.AnthropicAPIKey = apiKey
		if model != "" {
			c.AnthropicModel = model
		}
	}
}

// WithGemini sets the Gemini API key and, if non-empty, the model.
func WithGemini(apiKey, model string) ConfigOption {
	return func(c *Config) {
		c.GeminiAPIKey = apiKey
		if model != "" {
			c.GeminiModel = model
		}
	}
}

// WithOpenAI sets the OpenAI-compatible API key, model and base URL.
// Empty model or baseURL keep the current values.
func WithOpenAI(apiKey, model, baseURL string) ConfigOption {
	return func(c *Config) {
		c.OpenAIAPIKey = apiKey
		if model != "" {
			c.OpenAIModel = model
		}
		if baseURL != "" {
			c.OpenAIBaseURL = baseURL
		}
	}
}

// WithOrder sets the provider fallback order.
func WithOrder(order ...Backend) ConfigOption {
	return func(c *Config) {
		c.Order = order
	}
}

// WithSegmentationBackend sets the backend used for semantic segmentation.
func WithSegmentationBackend(b Backend) ConfigOption {
	return func(c *Config) {
		c.SegmentationBackend = b
	}
}

// WithRequestsPerMinute sets the per-provider request rate.
func WithRequestsPerMinute(rpm int) ConfigOption {
	return func(c *Config) {
		c.RequestsPerMinute = rpm
	}
}

// WithTemperature sets the evaluation sampling temperature.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxTokens sets the evaluation response token cap.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// DefaultConfig returns a Config with the default models and limits and no credentials.
func DefaultConfig() *Config {
	return &Config{
		AnthropicModel:      DefaultAnthropicModel,
		GeminiModel:         DefaultGeminiModel,
		OpenAIModel:         DefaultOpenAIModel,
		Order:               slices.Clone(Backends),
		SegmentationBackend: BackendGemini,
		RequestsPerMinute:   30,
		Temperature:         0.2,
		MaxTokens:           2000,
		SynthesisMaxTokens:  4000,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithAnthropic(os.Getenv("ANTHROPIC_API_KEY"), ""),
//	    WithOrder(BackendGemini, BackendAnthropic),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It trims credentials, restores default model names for blank ones and
// drops duplicate backends from Order, keeping the first occurrence.
func (c *Config) Normalize() {
	c.AnthropicAPIKey = strings.TrimSpace(c.AnthropicAPIKey)
	c.GeminiAPIKey = strings.TrimSpace(c.GeminiAPIKey)
	c.OpenAIAPIKey = strings.TrimSpace(c.OpenAIAPIKey)

	if c.AnthropicModel == "" {
		c.AnthropicModel = DefaultAnthropicModel
	}
	if c.GeminiModel == "" {
		c.GeminiModel = DefaultGeminiModel
	}
	if c.OpenAIModel == "" {
		c.OpenAIModel = DefaultOpenAIModel
	}
	c.OpenAIBaseURL = strings.TrimSuffix(c.OpenAIBaseURL, "/")

	seen := make(map[Backend]bool, len(c.Order))
	order := make([]Backend, 0, len(c.Order))
	for _, b := range c.Order {
		if seen[b] {
			continue
		}
		seen[b] = true
		order = append(order, b)
	}
	c.Order = order
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
// Missing credentials are not a validation error; see Available.
func (c *Config) Validate() error {
	c.Normalize()

	if len(c.Order) == 0 {
		return errors.New("ai config: Order must name at least one backend")
	}
	for _, b := range c.Order {
		if !slices.Contains(Backends, b) {
			return fmt.Errorf("ai config: %w: %q", ErrUnknownBackend, b)
		}
	}
	if c.SegmentationBackend != "" && !slices.Contains(Backends, c.SegmentationBackend) {
		return fmt.Errorf("ai config: %w: %q", ErrUnknownBackend, c.SegmentationBackend)
	}
	if c.RequestsPerMinute < 1 {
		return errors.New("ai config: RequestsPerMinute must be at least 1")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be at least 1")
	}
	if c.SynthesisMaxTokens < 1 {
		return errors.New("ai config: SynthesisMaxTokens must be at least 1")
	}
	return nil
}

// APIKey returns the credential configured for b.
func (c *Config) APIKey(b Backend) string {
	switch b {
	case BackendAnthropic:
		return c.AnthropicAPIKey
	case BackendGemini:
		return c.GeminiAPIKey
	case BackendOpenAI:
		return c.OpenAIAPIKey
	}
	return ""
}

// ModelFor returns the model identifier configured for b.
func (c *Config) ModelFor(b Backend) string {
	switch b {
	case BackendAnthropic:
		return c.AnthropicModel
	case BackendGemini:
		return c.GeminiModel
	case BackendOpenAI:
		return c.OpenAIModel
	}
	return ""
}

// Available returns the backends in Order that have credentials.
func (c *Config) Available() []Backend {
	var out []Backend
	for _, b := range c.Order {
		if c.APIKey(b) != "" {
			out = append(out, b)
		}
	}
	return out
}

// OrderWithPreferred returns Order with preferred moved to the front.
// A preferred backend missing from Order is prepended.
func (c *Config) OrderWithPreferred(preferred Backend) []Backend {
	out := []Backend{preferred}
	for _, b := range c.Order {
		if b != preferred {
			out = append(out, b)
		}
	}
	return out
}
