package ai

import "errors"

var (
	// ErrEmptyText is returned when asked to embed blank text.
	ErrEmptyText = errors.New("text to embed is empty")

	// ErrEmptyEmbedding is returned when the service answers with no vector.
	ErrEmptyEmbedding = errors.New("embedding service returned an empty vector")
)
