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
	"context"
	"log/slog"
	"slices"
	"time"
)

// RetryPolicy decides whether and how long to wait before repeating a failed call.
type RetryPolicy struct {
	// MaxRetries is the number of additional attempts after the first.
	// Default: 1
	MaxRetries int

	// BaseDelay is the wait used when the failure carries no RetryAfter hint.
	// It doubles on each subsequent retry.
	// Default: 2s
	BaseDelay time.Duration

	// RetryOn lists the failure kinds worth retrying.
	// Default: KindRateLimited
	RetryOn []FailureKind
}

// DefaultRetryPolicy sleeps once on a rate limit and then tries again.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 1,
		BaseDelay:  2 * time.Second,
		RetryOn:    []FailureKind{KindRateLimited},
	}
}

// Do runs operation, retrying it while it fails with a retryable kind and
// attempts remain. The wait before a retry is the failure's RetryAfter hint
// when present, otherwise BaseDelay * 2^(retry-1).
// Returns the error from the last attempt if all attempts fail.
func (p RetryPolicy) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	if p.MaxRetries < 0 {
		return ErrInvalidRetryPolicy
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			if attempt > 0 {
				slog.Debug("operation succeeded after retry", "attempt", attempt+1)
			}
			return nil
		}

		if !slices.Contains(p.RetryOn, KindOf(lastErr)) || attempt == p.MaxRetries {
			break
		}

		delay := RetryAfterOf(lastErr)
		if delay <= 0 {
			delay = p.BaseDelay
			for i := 0; i < attempt; i++ {
				delay *= 2
			}
		}

		slog.Debug("operation failed, will retry",
			"attempt", attempt+1,
			"maxRetries", p.MaxRetries,
			"delay", delay,
			"error", lastErr)

		// Sleep with context awareness
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}
