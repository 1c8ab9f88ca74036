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


package lihtcrag

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/lihtcrag/ai"
	"github.com/poiesic/lihtcrag/ai/openai"
	"github.com/poiesic/lihtcrag/index"
	"github.com/poiesic/lihtcrag/ingestion"
	"github.com/poiesic/lihtcrag/reembed"
	"github.com/poiesic/lihtcrag/search"
	"github.com/poiesic/lihtcrag/storage"
	"github.com/poiesic/lihtcrag/storage/badger"
	"github.com/poiesic/lihtcrag/vector"
)

// System wires the precomputed indexes, the state chunk store and the
// search façade together.
type System struct {
	store     *index.Store
	backend   *badger.Backend
	stateRepo storage.StateChunkRepository
	provider  ai.AIProvider
	states    *vector.StateSearcher
	telemetry *vector.Telemetry
	searcher  *search.Searcher
	embedRate float64
	logger    *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	provider ai.AIProvider
	service  vector.Service
	monitor  search.SearchMonitor
	logger   *slog.Logger
}

// WithProvider replaces the OpenAI-compatible provider built from the config.
// The System takes ownership and closes it.
func WithProvider(provider ai.AIProvider) SystemOption {
	return func(o *systemOptions) {
		o.provider = provider
	}
}

// WithVectorService uses an external vector search service for state
// sources instead of the local store.
func WithVectorService(service vector.Service) SystemOption {
	return func(o *systemOptions) {
		o.service = service
	}
}

// WithSearchMonitor observes every stage of unified searches.
func WithSearchMonitor(monitor search.SearchMonitor) SystemOption {
	return func(o *systemOptions) {
		o.monitor = monitor
	}
}

// WithLogger sets the logger passed to every component.
func WithLogger(logger *slog.Logger) SystemOption {
	return func(o *systemOptions) {
		o.logger = logger
	}
}

// New opens a System described by cfg. A nil cfg uses DefaultConfig.
// Missing index files are not an error; the affected operations return
// empty results.
func New(cfg *Config, opts ...SystemOption) (*System, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout, err := cfg.VectorTimeout()
	if err != nil {
		return nil, err
	}

	options := &systemOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	// Load indexes
	indexOpts := []index.Option{index.WithLogger(logger)}
	if cfg.Index.LoaderPoolSize > 0 {
		indexOpts = append(indexOpts, index.WithPoolSize(cfg.Index.LoaderPoolSize))
	}
	store, err := index.Open(cfg.IndexDir, indexOpts...)
	if err != nil {
		return nil, err
	}

	sys := &System{
		store:     store,
		embedRate: cfg.AI.RequestsPerSecond,
		logger:    logger.With("component", "system"),
	}

	// Open the local state chunk store
	service := options.service
	if cfg.Vector.Enabled {
		backend, err := badger.OpenBackend(cfg.Vector.Path, cfg.Vector.InMemory)
		if err != nil {
			return nil, err
		}
		stateRepo, err := badger.NewStateChunkRepository(backend)
		if err != nil {
			backend.Close()
			return nil, err
		}

		provider := options.provider
		if provider == nil {
			provider, err = openai.NewProvider(cfg.AIConfig())
			if err != nil {
				stateRepo.Close()
				backend.Close()
				return nil, err
			}
		}

		sys.backend = backend
		sys.stateRepo = stateRepo
		sys.provider = provider

		if service == nil {
			local, err := vector.NewLocalService(stateRepo, provider.Embedder())
			if err != nil {
				sys.Close()
				return nil, err
			}
			service = local
		}
	} else if options.provider != nil {
		sys.provider = options.provider
	}

	// State searcher
	if timeout == 0 {
		timeout = time.Duration(store.SearchConfig().VectorTimeoutSeconds * float64(time.Second))
	}
	vectorOpts := []vector.Option{
		vector.WithLogger(logger),
		vector.WithTimeout(timeout),
	}
	if cfg.Search.Telemetry {
		sys.telemetry = vector.NewTelemetry()
		vectorOpts = append(vectorOpts, vector.WithTelemetry(sys.telemetry))
	}
	states, err := vector.NewStateSearcher(service, vectorOpts...)
	if err != nil {
		sys.Close()
		return nil, err
	}
	sys.states = states

	searchOpts := []search.Option{
		search.WithLogger(logger),
		search.WithStateSource(states),
	}
	if options.monitor != nil {
		searchOpts = append(searchOpts, search.WithMonitor(options.monitor))
	}
	searcher, err := search.NewSearcher(store, searchOpts...)
	if err != nil {
		sys.Close()
		return nil, err
	}
	sys.searcher = searcher

	sys.logger.Info("system ready",
		"index_dir", cfg.IndexDir,
		"indexes_loaded", len(store.Availability().Loaded),
		"vector_service", states.Available(),
		"telemetry", cfg.Search.Telemetry)
	return sys, nil
}

// Close releases the provider and the state chunk store.
func (s *System) Close() error {
	// Close AI provider first
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
		}
	}

	if s.stateRepo != nil {
		if err := s.stateRepo.Close(); err != nil {
			s.logger.Error("error closing state chunk repository", "err", err)
			return err
		}
	}

	// Close backend
	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			s.logger.Error("error closing backend storage", "err", err)
			return err
		}
	}
	return nil
}

// Searcher returns the unified query façade.
func (s *System) Searcher() *search.Searcher {
	return s.searcher
}

// Store returns the loaded index store.
func (s *System) Store() *index.Store {
	return s.store
}

// StateSearcher returns the vector search adapter.
func (s *System) StateSearcher() *vector.StateSearcher {
	return s.states
}

// StateChunkRepository returns the local state chunk store, or nil when disabled.
func (s *System) StateChunkRepository() storage.StateChunkRepository {
	return s.stateRepo
}

// Telemetry returns the latency report, or false when telemetry is disabled.
func (s *System) Telemetry() (vector.TelemetryReport, bool) {
	if s.telemetry == nil {
		return vector.TelemetryReport{}, false
	}
	return s.telemetry.Report(), true
}

// Benchmark runs the fixed benchmark queries against the state searcher.
func (s *System) Benchmark(ctx context.Context, iterations int) vector.BenchmarkReport {
	return vector.Benchmark(ctx, s.states, iterations)
}

// NewImporter creates an importer that loads QAP chunks into the local store.
func (s *System) NewImporter(opts ...ingestion.Option) (*ingestion.Importer, error) {
	if s.stateRepo == nil || s.provider == nil {
		return nil, ErrVectorStoreDisabled
	}
	defaults := []ingestion.Option{ingestion.WithLogger(s.logger)}
	if s.embedRate > 0 {
		defaults = append(defaults, ingestion.WithRateLimit(s.embedRate))
	}
	opts = append(defaults, opts...)
	return ingestion.NewImporter(s.stateRepo, s.provider, opts...)
}

// NewReembedder creates a reembedder that refreshes the vectors of stored
// chunks with the configured embedder.
func (s *System) NewReembedder(config *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	if s.stateRepo == nil || s.provider == nil {
		return nil, ErrVectorStoreDisabled
	}
	return reembed.NewReembedder(s.stateRepo, s.provider.Embedder(), config, progress)
}
