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
	"fmt"
	"log/slog"
	"sync"

	"github.com/poiesic/pedagogue/ai"
)

// Providers owns one Client per configured backend and hands out the
// evaluation, synthesis and segmentation services built on them.
type Providers struct {
	config  *ai.Config
	mu      sync.Mutex
	clients map[ai.Backend]*Client
	logger  *slog.Logger
}

// NewProviders creates a client for every backend in config.Order plus the
// segmentation backend. The config is validated and normalized before use.
// Backends without credentials still get a client so callers can report
// KindCredentialMissing for them.
func NewProviders(ctx context.Context, config *ai.Config) (*Providers, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Providers{
		config:  config,
		clients: make(map[ai.Backend]*Client, len(ai.Backends)),
		logger:  slog.Default().With("component", "llm-providers"),
	}

	backends := config.Order
	if config.SegmentationBackend != "" {
		backends = append(backends[:len(backends):len(backends)], config.SegmentationBackend)
	}
	for _, b := range backends {
		if _, ok := p.clients[b]; ok {
			continue
		}
		client, err := NewClient(ctx, b, config)
		if err != nil {
			return nil, err
		}
		p.clients[b] = client
		p.logger.Debug("provider client ready", "backend", b, "model", client.Model(), "credential", client.HasCredential())
	}
	return p, nil
}

// Client returns the client for b, creating one on demand for a backend
// that is not in the configured order.
func (p *Providers) Client(ctx context.Context, b ai.Backend) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if client, ok := p.clients[b]; ok {
		return client, nil
	}
	client, err := NewClient(ctx, b, p.config)
	if err != nil {
		return nil, err
	}
	p.clients[b] = client
	return client, nil
}

// Evaluators returns evaluation providers in fallback order with preferred
// first. Passing an empty preferred backend keeps the configured order.
func (p *Providers) Evaluators(ctx context.Context, preferred ai.Backend) ([]ai.EvaluationProvider, error) {
	order := p.config.Order
	if preferred != "" {
		order = p.config.OrderWithPreferred(preferred)
	}

	out := make([]ai.EvaluationProvider, 0, len(order))
	for _, b := range order {
		client, err := p.Client(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, newEvaluator(client, p.config))
	}
	return out, nil
}

// Synthesizer returns the synthesis provider for b.
func (p *Providers) Synthesizer(ctx context.Context, b ai.Backend) (ai.SynthesisProvider, error) {
	client, err := p.Client(ctx, b)
	if err != nil {
		return nil, err
	}
	return NewSynthesizer(client, p.config)
}

// Segmenter returns the completer used for semantic segmentation.
func (p *Providers) Segmenter(ctx context.Context) (ai.Completer, error) {
	if p.config.SegmentationBackend == "" {
		return nil, fmt.Errorf("%w: no segmentation backend configured", ai.ErrNoProviders)
	}
	return p.Client(ctx, p.config.SegmentationBackend)
}

// Close releases resources held by the providers.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Providers) Close() error {
	p.logger.Debug("closing providers")
	return nil
}
