package reembed

import "errors"

var (
	// ErrRepositoryRequired is returned when no state chunk repository is given.
	ErrRepositoryRequired = errors.New("state chunk repository is required")

	// ErrEmbedderRequired is returned when no embedder is given.
	ErrEmbedderRequired = errors.New("embedder is required")
)
