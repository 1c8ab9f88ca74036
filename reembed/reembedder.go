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
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/lihtcrag/ai"
	"github.com/poiesic/lihtcrag/core"
	"github.com/poiesic/lihtcrag/ingestion"
	"github.com/poiesic/lihtcrag/storage"
)

// Config holds configuration for a reembedding run.
type Config struct {
	// BatchSize is the number of chunks embedded per request.
	BatchSize int

	// ReportInterval is how often to report progress, in chunks.
	ReportInterval int

	// Retry governs embedding requests.
	Retry ingestion.RetryPolicy

	// States limits the run to these state codes. Empty means all states.
	States []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultBatchSize,
		Retry:          ingestion.DefaultRetryPolicy(),
	}
}

// Reembedder regenerates the embeddings of every stored state chunk.
type Reembedder struct {
	repo      storage.StateChunkRepository
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ChunkIterator
	logger    *slog.Logger
}

// NewReembedder creates a reembedder. Progress is written to progress,
// typically os.Stderr; a nil writer disables it.
func NewReembedder(repo storage.StateChunkRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Retry.MaxAttempts <= 0 {
		return nil, fmt.Errorf("%w: %d", ingestion.ErrInvalidMaxAttempts, config.Retry.MaxAttempts)
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		repo:      repo,
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.Retry),
		iterator:  NewChunkIterator(repo, config.BatchSize, config.States...),
		logger:    slog.Default().With("component", "reembed"),
	}, nil
}

// Run reembeds every selected chunk and returns how many were updated.
func (r *Reembedder) Run(ctx context.Context) (int, error) {
	total, err := r.repo.CountStateChunks(ctx, r.config.States...)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "No chunks found in store (0 chunks)\n")
		return 0, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d chunks (batch size: %d)\n",
		total, r.iterator.batchSize)

	tracker := ingestion.NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.SetLabel("Reembedded")
	tracker.Start()

	processed := 0
	err = r.iterator.ForEach(ctx, func(chunks []*core.StateChunk) error {
		if err := r.processor.Process(ctx, chunks); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		processed += len(chunks)
		tracker.Increment(len(chunks))
		return nil
	})
	if err != nil {
		r.logger.Error("reembedding stopped", "processed", processed, "total", total, "err", err)
		return processed, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d chunks in %v (%.1f chunks/sec)\n",
		processed, elapsed.Round(time.Millisecond), float64(processed)/max(elapsed.Seconds(), 1e-9))
	return processed, nil
}
