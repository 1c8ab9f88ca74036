package reembed

import (
	"context"
	"fmt"

	"github.com/poiesic/lihtcrag/ai"
	"github.com/poiesic/lihtcrag/core"
	"github.com/poiesic/lihtcrag/ingestion"
	"github.com/poiesic/lihtcrag/storage"
)

// BatchProcessor embeds batches of chunks and writes them back.
type BatchProcessor struct {
	repo     storage.StateChunkRepository
	embedder ai.Embedder
	retry    ingestion.RetryPolicy
}

// NewBatchProcessor creates a processor that retries embedding calls under retry.
func NewBatchProcessor(repo storage.StateChunkRepository, embedder ai.Embedder, retry ingestion.RetryPolicy) *BatchProcessor {
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		retry:    retry,
	}
}

// Process replaces the vectors of chunks with fresh, normalized embeddings.
func (bp *BatchProcessor) Process(ctx context.Context, chunks []*core.StateChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	var embeddings [][]float32
	err := bp.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to generate embeddings after %d attempts: %w", bp.retry.MaxAttempts, err)
	}

	if len(embeddings) != len(chunks) {
		return fmt.Errorf("%w: expected %d, got %d", ingestion.ErrEmbeddingMismatch, len(chunks), len(embeddings))
	}

	for i := range chunks {
		chunks[i].Vector = NormalizeVector(embeddings[i])
	}

	if _, err := bp.repo.AddStateChunks(ctx, chunks...); err != nil {
		return fmt.Errorf("failed to update chunks: %w", err)
	}
	return nil
}
