package reembed

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/poiesic/lihtcrag/ai/mock"
	"github.com/poiesic/lihtcrag/ingestion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *Config {
	return &Config{
		BatchSize:      3,
		ReportInterval: 3,
		Retry: ingestion.RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
		},
	}
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestNewReembedder(t *testing.T) {
	repo := setupTestRepository(t)
	embedder := mock.NewMockEmbedder()

	_, err := NewReembedder(nil, embedder, nil, nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewReembedder(repo, nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewReembedder(repo, embedder, &Config{BatchSize: 1}, nil)
	assert.ErrorIs(t, err, ingestion.ErrInvalidMaxAttempts)

	r, err := NewReembedder(repo, embedder, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBatchSize, r.iterator.batchSize)
}

func TestReembedder_Run(t *testing.T) {
	repo := setupTestRepository(t)
	seedChunks(t, repo, 5, "CA", "NY")
	ctx := context.Background()

	var buf bytes.Buffer
	r, err := NewReembedder(repo, mock.NewMockEmbedder(), fastConfig(), &buf)
	require.NoError(t, err)

	processed, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, processed)

	ids, err := repo.ListStateChunkIDs(ctx)
	require.NoError(t, err)
	chunks, err := repo.GetStateChunks(ctx, ids...)
	require.NoError(t, err)
	require.Len(t, chunks, 10)
	for _, chunk := range chunks {
		require.Len(t, chunk.Vector, mock.Dimensions, "chunk %s should have a fresh embedding", chunk.ID)
		assert.InDelta(t, 1.0, magnitude(chunk.Vector), 0.001)
	}

	output := buf.String()
	assert.Contains(t, output, "Reembedded: 10/10")
	assert.Contains(t, output, "Reembedding complete")
}

func TestReembedder_OnlySelectedStates(t *testing.T) {
	repo := setupTestRepository(t)
	seedChunks(t, repo, 2, "CA", "NY")
	ctx := context.Background()

	cfg := fastConfig()
	cfg.States = []string{"ny"}
	r, err := NewReembedder(repo, mock.NewMockEmbedder(), cfg, nil)
	require.NoError(t, err)

	processed, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	untouched, err := repo.GetStateChunk(ctx, "CA-00")
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, untouched.Vector)
}

func TestReembedder_EmptyStore(t *testing.T) {
	repo := setupTestRepository(t)

	var buf bytes.Buffer
	r, err := NewReembedder(repo, mock.NewMockEmbedder(), nil, &buf)
	require.NoError(t, err)

	processed, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, processed)
	assert.Contains(t, buf.String(), "0 chunks")
}

func TestReembedder_EmbeddingRetry(t *testing.T) {
	repo := setupTestRepository(t)
	seedChunks(t, repo, 2, "CA")

	embedder := mock.NewMockEmbedder()
	failures := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if failures < 2 {
			failures++
			return nil, errors.New("temporarily unavailable")
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.DeterministicVector(text, mock.Dimensions)
		}
		return out, nil
	}

	r, err := NewReembedder(repo, embedder, fastConfig(), nil)
	require.NoError(t, err)

	processed, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, processed)
	assert.Equal(t, 2, failures)
}

func TestReembedder_EmbeddingMismatch(t *testing.T) {
	repo := setupTestRepository(t)
	seedChunks(t, repo, 2, "CA")

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1, 0}}, nil
	}

	r, err := NewReembedder(repo, embedder, fastConfig(), nil)
	require.NoError(t, err)

	processed, err := r.Run(context.Background())
	assert.ErrorIs(t, err, ingestion.ErrEmbeddingMismatch)
	assert.Zero(t, processed)
}

func TestReembedder_ContextCancellation(t *testing.T) {
	repo := setupTestRepository(t)
	seedChunks(t, repo, 10, "CA")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		out := make([][]float32, len(texts))
		for i := range out {
			out[i] = []float32{1, 0, 0}
		}
		return out, nil
	}

	r, err := NewReembedder(repo, embedder, fastConfig(), nil)
	require.NoError(t, err)

	processed, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 6, processed)
}
