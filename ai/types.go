package ai

import (
	"fmt"
	"strings"
)

// Backend identifies a provider implementation.
type Backend string

const (
	// BackendAnthropic is the Anthropic Messages API (Claude models).
	BackendAnthropic Backend = "anthropic"
	// BackendGemini is the Google Gemini API.
	BackendGemini Backend = "gemini"
	// BackendOpenAI is any OpenAI-compatible chat completions API.
	BackendOpenAI Backend = "openai"
)

// Backends lists every supported backend in the default fallback order.
var Backends = []Backend{BackendAnthropic, BackendGemini, BackendOpenAI}

// backendAliases maps user-facing labels to backends.
var backendAliases = map[string]Backend{
	"anthropic": BackendAnthropic,
	"claude":    BackendAnthropic,
	"gemini":    BackendGemini,
	"google":    BackendGemini,
	"googleai":  BackendGemini,
	"openai":    BackendOpenAI,
	"gpt":       BackendOpenAI,
}

// ParseBackend resolves a user-facing label such as "claude" or "gemini".
// Matching is case-insensitive; a label containing a known alias
// ("claude-opus", "gemini-2.0-flash") resolves to that alias's backend.
func ParseBackend(label string) (Backend, error) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if b, ok := backendAliases[normalized]; ok {
		return b, nil
	}
	for _, alias := range []string{"claude", "anthropic", "gemini", "openai", "gpt"} {
		if strings.Contains(normalized, alias) {
			return backendAliases[alias], nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, label)
}
