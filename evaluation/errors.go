package evaluation

import "errors"

var (
	// ErrRepositoryRequired is returned when a course repository is not provided.
	ErrRepositoryRequired = errors.New("course repository required")

	// ErrModelRequired is returned when no model label is given.
	ErrModelRequired = errors.New("model label required")

	// ErrProvidersRequired is returned when the provider list is empty.
	ErrProvidersRequired = errors.New("at least one evaluation provider required")
)
