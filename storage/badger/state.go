package badger

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/lihtcrag/core"
	"github.com/poiesic/lihtcrag/storage"
)

// StateChunkRepository implements storage.StateChunkRepository using BadgerDB.
type StateChunkRepository struct {
	backend *Backend
}

var _ storage.StateChunkRepository = (*StateChunkRepository)(nil)

// NewStateChunkRepository creates a new StateChunkRepository.
func NewStateChunkRepository(backend *Backend) (storage.StateChunkRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &StateChunkRepository{backend: backend}, nil
}

// Close releases resources. The repository holds none; the backend is closed separately.
func (r *StateChunkRepository) Close() error {
	return nil
}

// AddStateChunks inserts or replaces chunks and maintains the state index.
func (r *StateChunkRepository) AddStateChunks(ctx context.Context, chunks ...*core.StateChunk) ([]*core.StateChunk, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, chunk := range chunks {
			if err := core.ValidateStateChunk(chunk); err != nil {
				return err
			}
			chunk.StateCode = strings.ToUpper(chunk.StateCode)
			if chunk.ID == "" {
				chunk.ID = core.ChunkIDFromContent(chunk.StateCode, chunk.SectionReference, chunk.Content)
			}

			key := makeStateChunkKey(chunk.ID)
			old, err := readStateChunk(tx, key)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			if old != nil {
				chunk.InsertedAt = old.InsertedAt
				// Chunk moved between states; drop the stale index entry
				if old.StateCode != chunk.StateCode {
					if err := tx.Delete(makeStateIndexKey(old.StateCode, old.ID)); err != nil {
						return err
					}
				}
			} else if chunk.InsertedAt.IsZero() {
				chunk.InsertedAt = now
			}
			chunk.UpdatedAt = now

			if err := tx.Set(key, storage.MarshalStateChunk(chunk)); err != nil {
				return err
			}
			if err := tx.Set(makeStateIndexKey(chunk.StateCode, chunk.ID), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// GetStateChunk retrieves a single chunk by ID.
func (r *StateChunkRepository) GetStateChunk(ctx context.Context, id string) (*core.StateChunk, error) {
	var result *core.StateChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readStateChunk(tx, makeStateChunkKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetStateChunks retrieves multiple chunks by their IDs.
func (r *StateChunkRepository) GetStateChunks(ctx context.Context, ids ...string) ([]*core.StateChunk, error) {
	var result []*core.StateChunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			chunk, err := readStateChunk(tx, makeStateChunkKey(id))
			if err != nil {
				return err
			}
			if chunk != nil {
				result = append(result, chunk)
			}
		}
		return nil
	}, false)
	return result, err
}

// DeleteStateChunks removes chunks and their state index entries.
func (r *StateChunkRepository) DeleteStateChunks(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeStateChunkKey(id)
			chunk, err := readStateChunk(tx, key)
			if err != nil {
				return err
			}
			if chunk == nil {
				return storage.ErrNotFound
			}
			if err := tx.Delete(makeStateIndexKey(chunk.StateCode, chunk.ID)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// ListStateCodes returns the distinct state codes in the state index.
func (r *StateChunkRepository) ListStateCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		seen := make(map[string]bool)
		for _, key := range indexKeys(tx, []byte(stateIndexPrefix+":")) {
			state, _, ok := parseStateIndexKey(key)
			if ok && !seen[state] {
				seen[state] = true
				codes = append(codes, state)
			}
		}
		return nil
	}, false)
	slices.Sort(codes)
	return codes, err
}

// ListStateChunkIDs lists chunk IDs from the state index.
func (r *StateChunkRepository) ListStateChunkIDs(ctx context.Context, states ...string) ([]string, error) {
	var ids []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, prefix := range statePrefixes(states) {
			for _, key := range indexKeys(tx, prefix) {
				if _, id, ok := parseStateIndexKey(key); ok {
					ids = append(ids, id)
				}
			}
		}
		return nil
	}, false)
	return ids, err
}

// CountStateChunks counts stored chunks, optionally limited to states.
func (r *StateChunkRepository) CountStateChunks(ctx context.Context, states ...string) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, prefix := range statePrefixes(states) {
			count += len(indexKeys(tx, prefix))
		}
		return nil
	}, false)
	return count, err
}

// FindSimilar scores every candidate chunk against vector.
// Chunks without embeddings are skipped.
func (r *StateChunkRepository) FindSimilar(ctx context.Context, vector []float32, states []string, minSimilarity float32, limit int) ([]*core.StateMatch, error) {
	if len(vector) == 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []*core.StateMatch
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, prefix := range statePrefixes(states) {
			for _, key := range indexKeys(tx, prefix) {
				if err := ctx.Err(); err != nil {
					return err
				}
				_, id, ok := parseStateIndexKey(key)
				if !ok {
					continue
				}
				chunk, err := readStateChunk(tx, makeStateChunkKey(id))
				if err != nil {
					return err
				}
				if chunk == nil || len(chunk.Vector) == 0 {
					continue
				}

				similarity := cosineSimilarity(vector, chunk.Vector)
				if similarity >= minSimilarity {
					results = append(results, &core.StateMatch{Chunk: chunk, Score: similarity})
				}
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending, ID ascending for stable output
	slices.SortFunc(results, func(a, b *core.StateMatch) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return strings.Compare(a.Chunk.ID, b.Chunk.ID)
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// statePrefixes returns the index prefixes to scan: one per state, or the whole index.
func statePrefixes(states []string) [][]byte {
	states = core.NormalizeStateCodes(states)
	if len(states) == 0 {
		return [][]byte{[]byte(stateIndexPrefix + ":")}
	}
	prefixes := make([][]byte, 0, len(states))
	for _, s := range states {
		prefixes = append(prefixes, makePartialStateIndexKey(s))
	}
	return prefixes
}

// indexKeys collects copies of every key under prefix.
func indexKeys(tx *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys
}

// readStateChunk reads a chunk, returning nil without error when it is absent.
func readStateChunk(tx *badger.Txn, key []byte) (*core.StateChunk, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var chunk *core.StateChunk
	err = item.Value(func(val []byte) error {
		var err error
		chunk, err = storage.UnmarshalStateChunk(val)
		return err
	})
	return chunk, err
}
