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


package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/pedagogue/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// errMissingCredential is wrapped in KindCredentialMissing failures.
var errMissingCredential = errors.New("API key not configured")

// Client implements ai.Completer over one langchaingo backend.
// Outbound calls pass through a token bucket shared by everything that
// uses the same Client.
type Client struct {
	backend ai.Backend
	model   string
	llm     llms.Model // nil when the backend has no credential
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ ai.Completer = (*Client)(nil)

// newLimiter returns a token bucket allowing rpm calls per minute with no burst.
func newLimiter(rpm int) *rate.Limiter {
	if rpm < 1 {
		rpm = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// NewClient creates a Client for backend using the credentials and model in config.
// A backend without an API key still yields a Client; every call on it
// fails with KindCredentialMissing.
func NewClient(ctx context.Context, backend ai.Backend, config *ai.Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if !slices.Contains(ai.Backends, backend) {
		return nil, fmt.Errorf("%w: %q", ai.ErrUnknownBackend, backend)
	}

	model := config.ModelFor(backend)
	key := config.APIKey(backend)

	var (
		client llms.Model
		err    error
	)
	if key != "" {
		switch backend {
		case ai.BackendAnthropic:
			client, err = anthropic.New(
				anthropic.WithToken(key),
				anthropic.WithModel(model),
			)
		case ai.BackendGemini:
			client, err = googleai.New(ctx,
				googleai.WithAPIKey(key),
				googleai.WithDefaultModel(model),
			)
		case ai.BackendOpenAI:
			opts := []openai.Option{
				openai.WithToken(key),
				openai.WithModel(model),
			}
			if config.OpenAIBaseURL != "" {
				opts = append(opts, openai.WithBaseURL(config.OpenAIBaseURL))
			}
			client, err = openai.New(opts...)
		default:
			return nil, fmt.Errorf("%w: %q", ai.ErrUnknownBackend, backend)
		}
		if err != nil {
			return nil, fmt.Errorf("creating %s client: %w", backend, err)
		}
	}

	return newClient(backend, model, client, config.RequestsPerMinute), nil
}

// NewClientWithModel wraps an existing langchaingo model.
// Passing a nil model produces a Client without credentials.
func NewClientWithModel(backend ai.Backend, model string, llm llms.Model, requestsPerMinute int) *Client {
	return newClient(backend, model, llm, requestsPerMinute)
}

func newClient(backend ai.Backend, model string, llm llms.Model, rpm int) *Client {
	return &Client{
		backend: backend,
		model:   model,
		llm:     llm,
		limiter: newLimiter(rpm),
		logger:  slog.Default().With("component", "llm-client", "backend", string(backend)),
	}
}

// Name returns the backend label.
func (c *Client) Name() string {
	return string(c.backend)
}

// Model returns the model identifier requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// HasCredential reports whether the client can make calls at all.
func (c *Client) HasCredential() bool {
	return c.llm != nil
}

// Complete sends req to the backend after waiting for the rate limiter.
func (c *Client) Complete(ctx context.Context, req ai.Request) (string, error) {
	if c.llm == nil {
		return "", ai.NewFailure(ai.KindCredentialMissing, c.Name(), errMissingCredential)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", ai.NewFailure(ai.KindCommunication, c.Name(), fmt.Errorf("rate limiter: %w", err))
	}

	content := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.System)},
		})
	}
	content = append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(req.Prompt)},
	})

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	start := time.Now()
	response, err := c.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		failure := classify(c.Name(), err)
		c.logger.Warn("completion failed",
			"model", c.model,
			"kind", failure.Kind.String(),
			"retryAfter", failure.RetryAfter,
			"err", err)
		return "", failure
	}

	if len(response.Choices) < 1 {
		c.logger.Debug("no choices returned from model", "model", c.model)
		return "", nil
	}

	c.logger.Debug("completion finished",
		"model", c.model,
		"elapsed", time.Since(start),
		"length", len(response.Choices[0].Content))
	return response.Choices[0].Content, nil
}
