// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package reembed

import (
	"context"

	"github.com/poiesic/lihtcrag/core"
	"github.com/poiesic/lihtcrag/storage"
)

// DefaultBatchSize is the default number of chunks fetched per batch.
const DefaultBatchSize = 100

// ChunkIterator walks stored state chunks in batches.
type ChunkIterator struct {
	repo      storage.StateChunkRepository
	batchSize int
	states    []string
}

// NewChunkIterator creates an iterator over the chunks of states, or of
// every state when none are given.
func NewChunkIterator(repo storage.StateChunkRepository, batchSize int, states ...string) *ChunkIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &ChunkIterator{
		repo:      repo,
		batchSize: batchSize,
		states:    states,
	}
}

// IDs lists the chunk IDs the iterator will visit.
func (it *ChunkIterator) IDs(ctx context.Context) ([]string, error) {
	return it.repo.ListStateChunkIDs(ctx, it.states...)
}

// ForEach calls fn with each batch of chunks. Iteration stops on the first
// error from fn. Context cancellation is checked between batches.
func (it *ChunkIterator) ForEach(ctx context.Context, fn func([]*core.StateChunk) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ids, err := it.IDs(ctx)
	if err != nil {
		return err
	}

	for start := 0; start < len(ids); start += it.batchSize {
		batch, err := it.repo.GetStateChunks(ctx, ids[start:min(start+it.batchSize, len(ids))]...)
		if err != nil {
			return err
		}
		if len(batch) > 0 {
			if err := fn(batch); err != nil {
				return err
			}
		}

		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}
