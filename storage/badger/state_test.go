package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/lihtcrag/core"
	"github.com/poiesic/lihtcrag/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) storage.StateChunkRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func seedChunks(t *testing.T, repo storage.StateChunkRepository) {
	t.Helper()
	_, err := repo.AddStateChunks(context.Background(),
		&core.StateChunk{ID: "ca-1", StateCode: "CA", Content: "California income limits", Vector: []float32{1, 0, 0}},
		&core.StateChunk{ID: "ca-2", StateCode: "CA", Content: "California tie breakers", Vector: []float32{0.7, 0.7, 0}},
		&core.StateChunk{ID: "tx-1", StateCode: "tx", Content: "Texas income limits", Vector: []float32{0.9, 0.1, 0}},
		&core.StateChunk{ID: "ny-1", StateCode: "NY", Content: "New York chunk without vector"},
	)
	require.NoError(t, err)
}

func TestAddStateChunks(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	t.Run("derives ID and timestamps", func(t *testing.T) {
		added, err := repo.AddStateChunks(ctx, &core.StateChunk{StateCode: "az", Content: "Arizona set-asides"})
		require.NoError(t, err)
		require.Len(t, added, 1)
		assert.NotEmpty(t, added[0].ID)
		assert.Equal(t, "AZ", added[0].StateCode)
		assert.False(t, added[0].InsertedAt.IsZero())
		assert.False(t, added[0].UpdatedAt.IsZero())

		got, err := repo.GetStateChunk(ctx, added[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "Arizona set-asides", got.Content)
	})

	t.Run("rejects invalid chunk", func(t *testing.T) {
		_, err := repo.AddStateChunks(ctx, &core.StateChunk{StateCode: "CA"})
		assert.ErrorIs(t, err, core.ErrEmptyContent)
	})

	t.Run("replace keeps inserted time and moves state index", func(t *testing.T) {
		first, err := repo.AddStateChunks(ctx, &core.StateChunk{ID: "move-me", StateCode: "CA", Content: "v1"})
		require.NoError(t, err)
		inserted := first[0].InsertedAt

		time.Sleep(time.Millisecond)
		_, err = repo.AddStateChunks(ctx, &core.StateChunk{ID: "move-me", StateCode: "OR", Content: "v2"})
		require.NoError(t, err)

		got, err := repo.GetStateChunk(ctx, "move-me")
		require.NoError(t, err)
		assert.Equal(t, "v2", got.Content)
		assert.True(t, inserted.Equal(got.InsertedAt))

		caCount, err := repo.CountStateChunks(ctx, "CA")
		require.NoError(t, err)
		orCount, err := repo.CountStateChunks(ctx, "OR")
		require.NoError(t, err)
		assert.Equal(t, 0, caCount)
		assert.Equal(t, 1, orCount)
	})
}

func TestGetStateChunk_NotFound(t *testing.T) {
	repo := newTestRepository(t)
	_, err := repo.GetStateChunk(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetStateChunks_SkipsMissing(t *testing.T) {
	repo := newTestRepository(t)
	seedChunks(t, repo)

	chunks, err := repo.GetStateChunks(context.Background(), "ca-1", "missing", "tx-1")
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestDeleteStateChunks(t *testing.T) {
	repo := newTestRepository(t)
	seedChunks(t, repo)
	ctx := context.Background()

	require.NoError(t, repo.DeleteStateChunks(ctx, "ca-1"))
	_, err := repo.GetStateChunk(ctx, "ca-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	count, err := repo.CountStateChunks(ctx, "CA")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.ErrorIs(t, repo.DeleteStateChunks(ctx, "ca-1"), storage.ErrNotFound)
}

func TestListStateCodesAndCount(t *testing.T) {
	repo := newTestRepository(t)
	seedChunks(t, repo)
	ctx := context.Background()

	codes, err := repo.ListStateCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CA", "NY", "TX"}, codes)

	total, err := repo.CountStateChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	some, err := repo.CountStateChunks(ctx, "ca", "TX")
	require.NoError(t, err)
	assert.Equal(t, 3, some)
}

func TestListStateChunkIDs(t *testing.T) {
	repo := newTestRepository(t)
	seedChunks(t, repo)
	ctx := context.Background()

	ids, err := repo.ListStateChunkIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ca-1", "ca-2", "ny-1", "tx-1"}, ids)

	ids, err = repo.ListStateChunkIDs(ctx, "tx")
	require.NoError(t, err)
	assert.Equal(t, []string{"tx-1"}, ids)
}

func TestFindSimilar(t *testing.T) {
	repo := newTestRepository(t)
	seedChunks(t, repo)
	ctx := context.Background()

	t.Run("orders by similarity and skips unembedded", func(t *testing.T) {
		matches, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, nil, 0, 10)
		require.NoError(t, err)
		require.Len(t, matches, 3)
		assert.Equal(t, "ca-1", matches[0].Chunk.ID)
		assert.Equal(t, "tx-1", matches[1].Chunk.ID)
		assert.Equal(t, "ca-2", matches[2].Chunk.ID)
		for i := 1; i < len(matches); i++ {
			assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
		}
	})

	t.Run("filters by state", func(t *testing.T) {
		matches, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, []string{"tx"}, 0, 10)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "TX", matches[0].Chunk.StateCode)
	})

	t.Run("applies threshold and limit", func(t *testing.T) {
		matches, err := repo.FindSimilar(ctx, []float32{1, 0, 0}, nil, 0.95, 10)
		require.NoError(t, err)
		assert.Len(t, matches, 2)

		matches, err = repo.FindSimilar(ctx, []float32{1, 0, 0}, nil, 0, 1)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("empty vector is invalid", func(t *testing.T) {
		_, err := repo.FindSimilar(ctx, nil, nil, 0, 10)
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := repo.FindSimilar(cctx, []float32{1, 0, 0}, nil, 0, 10)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
