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


package search

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/lihtcrag/core"
	"github.com/poiesic/lihtcrag/index"
	"golang.org/x/sync/errgroup"
)

// StateSource supplies state QAP results for state and unified queries.
type StateSource interface {
	SearchStateSources(ctx context.Context, query string, states []string, limit int) []*core.Result
	Available() bool
}

// Request describes one unified search.
// Empty Namespace and Ranking fall back to the index search config.
type Request struct {
	Query     string
	Namespace core.Namespace
	Ranking   core.RankingStrategy
	Limit     int
	States    []string
}

// Availability reports which data sources back the Searcher.
// Callers use it to tell "no matches" apart from "data unavailable".
type Availability struct {
	Indexes        index.Availability `json:"indexes"`
	VectorService  bool               `json:"vector_service"`
	Degraded       bool               `json:"degraded"`
	DegradedReason string             `json:"degraded_reason,omitempty"`
}

// Searcher provides unified search over federal and state LIHTC sources.
type Searcher struct {
	store   *index.Store
	states  StateSource
	monitor SearchMonitor
	stats   *Stats
	logger  *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithStateSource sets the state QAP search used by state and unified queries.
// Without one, those queries return federal results only.
func WithStateSource(source StateSource) Option {
	return func(s *Searcher) error {
		s.states = source
		return nil
	}
}

// WithMonitor sets a monitor that observes every unified search.
func WithMonitor(monitor SearchMonitor) Option {
	return func(s *Searcher) error {
		if monitor == nil {
			monitor = &noopMonitor{}
		}
		s.monitor = monitor
		return nil
	}
}

// NewSearcher creates a new searcher over the loaded indexes.
func NewSearcher(store *index.Store, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrIndexStoreRequired
	}

	s := &Searcher{
		store:   store,
		monitor: &noopMonitor{},
		stats:   NewStats(),
		logger:  slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Stats returns a snapshot of the query counters.
func (s *Searcher) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// Availability reports which indexes were loaded and whether a vector
// service is configured.
func (s *Searcher) Availability() Availability {
	a := Availability{
		Indexes:       s.store.Availability(),
		VectorService: s.states != nil && s.states.Available(),
	}
	switch {
	case s.store.Empty():
		a.Degraded = true
		a.DegradedReason = "no index files loaded"
	case len(a.Indexes.Missing) > 0 || len(a.Indexes.Malformed) > 0:
		a.Degraded = true
		a.DegradedReason = "some index files unavailable"
	case !a.VectorService:
		a.Degraded = true
		a.DegradedReason = "vector service not configured"
	}
	return a
}

// SemanticSearchUnified dispatches a query to the federal indexes, the state
// vector search, or both, and returns normalized records.
// Unknown namespaces yield an empty result; unknown rankings fall back to
// authority-first ordering.
func (s *Searcher) SemanticSearchUnified(ctx context.Context, req Request) []Record {
	start := time.Now()
	cfg := s.store.SearchConfig()
	if req.Namespace == "" {
		req.Namespace = core.Namespace(cfg.DefaultNamespace)
	}
	if req.Ranking == "" {
		req.Ranking = core.RankingStrategy(cfg.DefaultRanking)
	}
	req.Limit = s.limitOrDefault(req.Limit)
	defer func() {
		s.stats.RecordQuery(string(req.Namespace), time.Since(start))
	}()

	s.monitor.Start(req)

	if !req.Namespace.IsValid() {
		s.logger.Warn("unknown search namespace", "namespace", req.Namespace)
		records := []Record{}
		s.monitor.Finish(records)
		return records
	}

	results := s.gather(ctx, req.Namespace, req.Query, req.States, req.Limit)
	s.rank(results, req.Ranking)
	s.monitor.AfterRanking(results)

	records := ToRecords(truncate(results, req.Limit))
	s.monitor.Finish(records)
	s.logger.Debug("unified search complete",
		"query", req.Query,
		"namespace", req.Namespace,
		"ranking", req.Ranking,
		"results", len(records),
		"elapsed", time.Since(start))
	return records
}

// gather collects candidates for namespace. Unified gathering also runs
// conflict detection and resolution over the combined set.
func (s *Searcher) gather(ctx context.Context, ns core.Namespace, query string, states []string, limit int) []*core.Result {
	searchFederal := ns == core.NamespaceFederal || ns == core.NamespaceUnified
	searchState := ns == core.NamespaceState || ns == core.NamespaceUnified

	// Neither path returns an error; failures degrade to empty results.
	var federal, state []*core.Result
	var g errgroup.Group
	if searchFederal {
		g.Go(func() error {
			federal = s.SearchByAuthorityLevel(ctx, query, core.FederalAuthorityLevels(), limit)
			return nil
		})
	}
	if searchState {
		g.Go(func() error {
			state = s.SearchStateSources(ctx, query, states, limit)
			return nil
		})
	}
	g.Wait()

	if searchFederal {
		s.monitor.AfterFederalSearch(federal)
	}
	if searchState {
		s.monitor.AfterStateSearch(state)
	}
	if ns != core.NamespaceUnified {
		return append(federal, state...)
	}

	combined := append(federal, state...)
	combined = DetectConflicts(combined, query)
	combined = ResolveConflicts(combined)
	s.monitor.AfterConflictResolution(combined, countConflicted(combined))
	return combined
}

// SearchStateSources queries the configured state source.
// Without one it logs a warning and returns no results.
func (s *Searcher) SearchStateSources(ctx context.Context, query string, states []string, limit int) []*core.Result {
	if s.states == nil {
		s.logger.Warn("state search requested but no vector service is configured")
		return []*core.Result{}
	}
	return s.states.SearchStateSources(ctx, query, core.NormalizeStateCodes(states), limit)
}

// rank orders results in place by strategy.
func (s *Searcher) rank(results []*core.Result, strategy core.RankingStrategy) {
	switch strategy {
	case core.RankAuthorityFirst:
		sortAuthorityFirst(results)
	case core.RankChronological:
		sortChronological(results)
	case core.RankRelevance:
		sortRelevance(results)
	default:
		s.logger.Warn("unknown ranking strategy, using authority_first", "ranking", strategy)
		sortAuthorityFirst(results)
	}
}

// limitOrDefault replaces a non-positive limit with the configured default.
func (s *Searcher) limitOrDefault(limit int) int {
	if limit > 0 {
		return limit
	}
	return s.store.SearchConfig().DefaultLimit
}

func sortAuthorityFirst(results []*core.Result) {
	slices.SortStableFunc(results, compareAuthorityFirst)
}

func compareAuthorityFirst(a, b *core.Result) int {
	if c := cmp.Compare(b.AuthorityScore, a.AuthorityScore); c != 0 {
		return c
	}
	return cmp.Compare(b.RelevanceScore, a.RelevanceScore)
}

func sortChronological(results []*core.Result) {
	slices.SortStableFunc(results, func(a, b *core.Result) int {
		switch {
		case a.EffectiveDate.After(b.EffectiveDate):
			return -1
		case b.EffectiveDate.After(a.EffectiveDate):
			return 1
		}
		return compareAuthorityFirst(a, b)
	})
}

func sortRelevance(results []*core.Result) {
	slices.SortStableFunc(results, func(a, b *core.Result) int {
		return cmp.Compare(b.RelevanceScore, a.RelevanceScore)
	})
}

func truncate(results []*core.Result, limit int) []*core.Result {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}

func countConflicted(results []*core.Result) int {
	n := 0
	for _, r := range results {
		if r.HasConflicts() {
			n++
		}
	}
	return n
}
