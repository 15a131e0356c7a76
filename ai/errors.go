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
	"time"
)

var (
	// ErrUnknownBackend is returned for a backend label that maps to no provider.
	ErrUnknownBackend = errors.New("unknown provider backend")

	// ErrNoProviders is returned when no configured provider has credentials.
	ErrNoProviders = errors.New("no usable provider configured")

	// ErrInvalidRetryPolicy is returned for a RetryPolicy with negative retries.
	ErrInvalidRetryPolicy = errors.New("retry policy: max retries must be >= 0")
)

// FailureKind classifies why an operation against a provider or a document failed.
type FailureKind int

const (
	// KindUnknown is reported for errors that are not a *Failure.
	KindUnknown FailureKind = iota
	// KindExtraction: a document yielded no text or could not be read.
	KindExtraction
	// KindCredentialMissing: the provider has no API key configured.
	KindCredentialMissing
	// KindCommunication: transport, timeout or provider-side error.
	KindCommunication
	// KindRateLimited: the provider asked the caller to slow down.
	KindRateLimited
	// KindSchemaValidation: the response did not satisfy the evaluation schema.
	KindSchemaValidation
	// KindPersistence: a store write failed.
	KindPersistence
)

var failureKindNames = map[FailureKind]string{
	KindUnknown:           "unknown",
	KindExtraction:        "extraction",
	KindCredentialMissing: "credential_missing",
	KindCommunication:     "communication",
	KindRateLimited:       "rate_limited",
	KindSchemaValidation:  "schema_validation",
	KindPersistence:       "persistence",
}

// String returns the snake_case name of the kind, used as a metrics label.
func (k FailureKind) String() string {
	if name, ok := failureKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Failure is a classified error from a provider call or pipeline step.
type Failure struct {
	Kind     FailureKind
	Provider string // Backend label, empty when not provider-related

	// RetryAfter is the provider's suggested wait before retrying.
	// Zero when the provider gave no hint.
	RetryAfter time.Duration

	Err error
}

// NewFailure creates a Failure of the given kind.
func NewFailure(kind FailureKind, provider string, err error) *Failure {
	return &Failure{Kind: kind, Provider: provider, Err: err}
}

func (f *Failure) Error() string {
	if f.Provider != "" {
		return fmt.Sprintf("%s: %s: %v", f.Provider, f.Kind, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf returns the FailureKind of the first *Failure in err's chain,
// or KindUnknown if there is none.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return KindUnknown
}

// RetryAfterOf returns the retry-after hint carried by err, if any.
func RetryAfterOf(err error) time.Duration {
	var f *Failure
	if errors.As(err, &f) {
		return f.RetryAfter
	}
	return 0
}
