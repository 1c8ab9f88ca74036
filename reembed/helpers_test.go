package reembed

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/lihtcrag/core"
	"github.com/poiesic/lihtcrag/storage"
	"github.com/poiesic/lihtcrag/storage/badger"
	"github.com/stretchr/testify/require"
)

func setupTestRepository(t *testing.T) storage.StateChunkRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

// seedChunks stores n chunks per state, each with a stale two-element vector.
func seedChunks(t *testing.T, repo storage.StateChunkRepository, n int, states ...string) {
	t.Helper()
	var chunks []*core.StateChunk
	for _, state := range states {
		for i := 0; i < n; i++ {
			chunks = append(chunks, &core.StateChunk{
				ID:        fmt.Sprintf("%s-%02d", state, i),
				StateCode: state,
				Content:   fmt.Sprintf("%s allocation rule %d", state, i),
				Vector:    []float32{3, 4},
			})
		}
	}
	_, err := repo.AddStateChunks(context.Background(), chunks...)
	require.NoError(t, err)
}
