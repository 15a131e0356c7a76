package llm

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/pedagogue/ai"
	"github.com/tmc/langchaingo/llms"
)

// retryHintBuffer is added to any retry delay the provider suggests.
const retryHintBuffer = time.Second

var (
	// Gemini quota errors read "... Please retry in 13.5s ...".
	retryInPattern = regexp.MustCompile(`(?i)retry in (\d+(?:\.\d+)?)s`)
	// HTTP Retry-After echoed into the error text.
	retryAfterPattern = regexp.MustCompile(`(?i)retry-after:?\s*(\d+)`)
)

var rateLimitMarkers = []string{"429", "rate limit", "too many requests", "resource_exhausted", "resource exhausted", "quota"}

// classify maps a backend error to an ai.Failure.
func classify(provider string, err error) *ai.Failure {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ai.NewFailure(ai.KindCommunication, provider, err)
	}

	if llms.IsAuthenticationError(err) {
		return ai.NewFailure(ai.KindCredentialMissing, provider, err)
	}

	if llms.IsRateLimitError(err) || llms.IsQuotaExceededError(err) || hasRateLimitMarker(err.Error()) {
		f := ai.NewFailure(ai.KindRateLimited, provider, err)
		f.RetryAfter = retryHint(err.Error())
		return f
	}

	return ai.NewFailure(ai.KindCommunication, provider, err)
}

func hasRateLimitMarker(msg string) bool {
	lower := strings.ToLower(msg)
	for _, marker := range rateLimitMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// retryHint extracts the provider's suggested wait from an error message,
// padded by retryHintBuffer. Returns 0 if the message carries no hint.
func retryHint(msg string) time.Duration {
	if m := retryInPattern.FindStringSubmatch(msg); m != nil {
		if secs, err := strconv.ParseFloat(m[1], 64); err == nil {
			return time.Duration(secs*float64(time.Second)) + retryHintBuffer
		}
	}
	if m := retryAfterPattern.FindStringSubmatch(msg); m != nil {
		if secs, err := strconv.Atoi(m[1]); err == nil {
			return time.Duration(secs)*time.Second + retryHintBuffer
		}
	}
	return 0
}
