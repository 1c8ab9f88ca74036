package vector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/lihtcrag/ai"
	"github.com/poiesic/lihtcrag/storage"
)

// QueryRequest is a similarity query against a vector search service.
type QueryRequest struct {
	Query               string
	Limit               int
	States              []string
	SimilarityThreshold float32
}

// HitMetadata describes where a hit came from.
type HitMetadata struct {
	StateCode        string
	SectionTitle     string
	SectionReference string
	DocumentTitle    string
	EffectiveDate    string
	PageNumber       int
}

// Hit is one match returned by a vector search service.
type Hit struct {
	ChunkID  string
	Content  string
	Score    float32
	Metadata HitMetadata
}

// Service is an external vector search over state QAP chunks.
type Service interface {
	Query(ctx context.Context, req QueryRequest) ([]Hit, error)
}

// LocalService implements Service over the local state chunk store.
type LocalService struct {
	repository storage.StateChunkRepository
	embedder   ai.Embedder
	logger     *slog.Logger
}

var _ Service = (*LocalService)(nil)

// NewLocalService creates a Service that embeds queries with embedder and
// scores them against the chunks held by repository.
func NewLocalService(repository storage.StateChunkRepository, embedder ai.Embedder) (*LocalService, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	return &LocalService{
		repository: repository,
		embedder:   embedder,
		logger:     slog.Default().With("component", "vector-local"),
	}, nil
}

// Query embeds the query text and returns the most similar chunks.
func (s *LocalService) Query(ctx context.Context, req QueryRequest) ([]Hit, error) {
	embedding, err := s.embedder.EmbedText(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := s.repository.FindSimilar(ctx, embedding, req.States, req.SimilarityThreshold, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("finding similar chunks: %w", err)
	}

	hits := make([]Hit, 0, len(matches))
	for _, match := range matches {
		c := match.Chunk
		hits = append(hits, Hit{
			ChunkID: c.ID,
			Content: c.Content,
			Score:   match.Score,
			Metadata: HitMetadata{
				StateCode:        c.StateCode,
				SectionTitle:     c.SectionTitle,
				SectionReference: c.SectionReference,
				DocumentTitle:    c.DocumentTitle,
				EffectiveDate:    c.EffectiveDate,
				PageNumber:       c.PageNumber,
			},
		})
	}
	s.logger.Debug("local vector query", "query", req.Query, "hits", len(hits))
	return hits, nil
}
