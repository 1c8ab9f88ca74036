package storage

import (
	"context"

	"github.com/poiesic/lihtcrag/core"
)

// StateChunkRepository stores state QAP chunks and their embeddings.
type StateChunkRepository interface {
	// AddStateChunks inserts or replaces chunks.
	// Chunks with an empty ID get a content-derived ID.
	// Sets InsertedAt on new chunks and UpdatedAt on every chunk.
	// Returns the chunks with IDs and timestamps populated.
	AddStateChunks(ctx context.Context, chunks ...*core.StateChunk) ([]*core.StateChunk, error)

	// GetStateChunk retrieves a single chunk by ID.
	// Returns ErrNotFound if the chunk doesn't exist.
	GetStateChunk(ctx context.Context, id string) (*core.StateChunk, error)

	// GetStateChunks retrieves multiple chunks by their IDs.
	// Returns only the chunks that exist (no error for missing chunks).
	GetStateChunks(ctx context.Context, ids ...string) ([]*core.StateChunk, error)

	// DeleteStateChunks removes chunks and their state index entries.
	// Returns ErrNotFound if any chunk doesn't exist.
	DeleteStateChunks(ctx context.Context, ids ...string) error

	// ListStateCodes returns the distinct state codes held by the store, sorted.
	ListStateCodes(ctx context.Context) ([]string, error)

	// ListStateChunkIDs returns the IDs of stored chunks, optionally limited
	// to states, ordered by state code then ID.
	ListStateChunkIDs(ctx context.Context, states ...string) ([]string, error)

	// CountStateChunks returns the number of stored chunks, optionally limited to states.
	CountStateChunks(ctx context.Context, states ...string) (int, error)

	// FindSimilar finds chunks whose embedding is similar to vector.
	// When states is non-empty only chunks from those states are considered.
	// Returns up to limit matches with similarity >= minSimilarity,
	// ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, states []string, minSimilarity float32, limit int) ([]*core.StateMatch, error)

	// Close releases resources held by the repository.
	Close() error
}
