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


package ingestion

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/lihtcrag/ai"
	"github.com/poiesic/lihtcrag/core"
	"github.com/poiesic/lihtcrag/storage"
	"golang.org/x/time/rate"
)

// Summary reports the outcome of an import.
type Summary struct {
	Total    int `json:"total"`
	Imported int `json:"imported"`
	Embedded int `json:"embedded"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Importer loads state QAP chunks into a StateChunkRepository.
type Importer struct {
	repository storage.StateChunkRepository
	embedder   ai.Embedder
	pool       *ants.Pool
	batchSize  int
	retry      RetryPolicy
	limiter    *rate.Limiter
	progress   io.Writer
	logger     *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer) error

// WithPoolSize sets the worker pool size for concurrent batches.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(im *Importer) error {
		if size < 1 {
			size = 1
		}

		// Release old pool
		if im.pool != nil {
			im.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		im.pool = pool
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded and stored together.
// Default is 32.
func WithBatchSize(size int) Option {
	return func(im *Importer) error {
		if size < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidBatchSize, size)
		}
		im.batchSize = size
		return nil
	}
}

// WithRetryPolicy sets the retry policy for embedding calls.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(im *Importer) error {
		if policy.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		im.retry = policy
		return nil
	}
}

// WithRateLimit caps embedding requests at perSecond across all workers.
// Default is unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(im *Importer) error {
		if perSecond <= 0 {
			return fmt.Errorf("%w: %g", ErrInvalidRateLimit, perSecond)
		}
		im.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		return nil
	}
}

// WithProgress reports progress to w, typically os.Stderr.
func WithProgress(w io.Writer) Option {
	return func(im *Importer) error {
		im.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		im.logger = logger
		return nil
	}
}

// NewImporter creates an importer that stores chunks in repository and
// embeds them with the provider's embedder.
func NewImporter(repository storage.StateChunkRepository, provider ai.AIProvider, opts ...Option) (*Importer, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	im := &Importer{
		repository: repository,
		embedder:   provider.Embedder(),
		pool:       pool,
		batchSize:  32,
		retry:      DefaultRetryPolicy(),
		logger:     slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(im); optErr != nil {
			im.Release()
			return nil, optErr
		}
	}
	im.logger = im.logger.With("component", "importer")

	return im, nil
}

// Release releases the worker pool.
// The importer should not be used after calling Release.
func (im *Importer) Release() {
	if im.pool != nil {
		im.pool.Release()
	}
}

// Import validates chunks and stores the valid ones, embedding those
// without a vector. Invalid chunks are skipped. Failed batches are counted
// and reported through ErrImportIncomplete after every batch has run.
func (im *Importer) Import(ctx context.Context, chunks []*core.StateChunk) (Summary, error) {
	summary := Summary{Total: len(chunks)}

	var tracker *ProgressTracker
	if im.progress != nil {
		tracker = NewProgressTracker(im.progress, len(chunks), im.batchSize)
		tracker.Start()
		defer tracker.Finish()
	}

	valid := make([]*core.StateChunk, 0, len(chunks))
	for i, chunk := range chunks {
		if err := core.ValidateStateChunk(chunk); err != nil {
			im.logger.Warn("skipping invalid chunk", "index", i, "err", err)
			summary.Skipped++
			if tracker != nil {
				tracker.Skip(1)
			}
			continue
		}
		valid = append(valid, chunk)
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		lastErr error
	)
	for start := 0; start < len(valid); start += im.batchSize {
		batch := valid[start:min(start+im.batchSize, len(valid))]
		wg.Add(1)
		task := func() {
			defer wg.Done()
			embedded, err := im.importBatch(ctx, batch)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				im.logger.Error("error importing batch", "chunks", len(batch), "err", err)
				summary.Failed += len(batch)
				lastErr = err
			} else {
				summary.Imported += len(batch)
				summary.Embedded += embedded
			}
			if tracker != nil {
				tracker.Increment(len(batch))
			}
		}
		if err := im.pool.Submit(task); err != nil {
			im.logger.Warn("worker pool rejected batch; importing inline", "err", err)
			task()
		}
	}
	wg.Wait()

	im.logger.Info("import finished",
		"total", summary.Total,
		"imported", summary.Imported,
		"embedded", summary.Embedded,
		"skipped", summary.Skipped,
		"failed", summary.Failed)

	if summary.Failed > 0 {
		return summary, fmt.Errorf("%w: %d of %d chunks failed: %w", ErrImportIncomplete, summary.Failed, summary.Total, lastErr)
	}
	return summary, nil
}

// importBatch embeds chunks that lack vectors and stores the batch.
// It returns how many chunks were embedded.
func (im *Importer) importBatch(ctx context.Context, batch []*core.StateChunk) (int, error) {
	var missing []*core.StateChunk
	for _, chunk := range batch {
		if len(chunk.Vector) == 0 {
			missing = append(missing, chunk)
		}
	}

	if len(missing) > 0 {
		texts := make([]string, len(missing))
		for i, chunk := range missing {
			texts[i] = chunk.Content
		}

		var embeddings [][]float32
		err := im.retry.Do(ctx, func(ctx context.Context) error {
			if im.limiter != nil {
				if err := im.limiter.Wait(ctx); err != nil {
					return err
				}
			}
			var err error
			embeddings, err = im.embedder.EmbedTexts(ctx, texts)
			return err
		})
		if err != nil {
			return 0, fmt.Errorf("generating embeddings: %w", err)
		}
		if len(embeddings) != len(missing) {
			return 0, fmt.Errorf("%w: expected %d, received %d", ErrEmbeddingMismatch, len(missing), len(embeddings))
		}
		for i := range embeddings {
			missing[i].Vector = embeddings[i]
		}
	}

	if _, err := im.repository.AddStateChunks(ctx, batch...); err != nil {
		return 0, err
	}
	return len(missing), nil
}
