package vector

import "errors"

var (
	// ErrInvalidTimeout is returned for a non-positive service timeout.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrServicePanic is reported when the vector service panics during a query.
	ErrServicePanic = errors.New("vector service panicked")

	// ErrRepositoryRequired is returned when a state chunk repository is not provided.
	ErrRepositoryRequired = errors.New("state chunk repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
