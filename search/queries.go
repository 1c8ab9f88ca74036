package search

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/lihtcrag/core"
	"github.com/poiesic/lihtcrag/index"
)

// SearchByEffectiveDate returns chunks from the effective-date index whose
// date falls within [start, end] and whose content matches the query.
// A zero bound is open; when both are zero, undated chunks are included too.
// Results are ordered newest first, then by relevance.
func (s *Searcher) SearchByEffectiveDate(ctx context.Context, query string, start, end time.Time, limit int) []*core.Result {
	bounded := !start.IsZero() || !end.IsZero()
	seen := make(map[string]bool)
	results := []*core.Result{}
	for _, bucket := range s.store.DateBuckets() {
		for _, chunk := range bucket.Chunks {
			if seen[chunk.ID] {
				continue
			}
			if bounded && !chunk.EffectiveDate.Within(start, end) {
				continue
			}
			if chunk.Content == "" {
				chunk.Content = s.store.ChunkContent(chunk.ID)
			}
			if chunk.Content == "" || !ContentMatchesQuery(chunk.Content, query) {
				continue
			}
			seen[chunk.ID] = true
			results = append(results, core.NewResult(chunk, RelevanceScore(chunk.Content, query)))
		}
	}

	slices.SortStableFunc(results, func(a, b *core.Result) int {
		switch {
		case a.EffectiveDate.After(b.EffectiveDate):
			return -1
		case b.EffectiveDate.After(a.EffectiveDate):
			return 1
		}
		return cmp.Compare(b.RelevanceScore, a.RelevanceScore)
	})
	return truncate(results, s.limitOrDefault(limit))
}

// SearchFederalStateMappings returns mappings whose federal content or
// section reference matches the query. With states set, implementing states
// are narrowed to those and mappings left without states are dropped.
func (s *Searcher) SearchFederalStateMappings(ctx context.Context, query string, states []string, limit int) []core.MappingEntry {
	filter := core.NormalizeStateCodes(states)
	entries := []core.MappingEntry{}
	for _, m := range s.store.Mappings() {
		text := s.store.ChunkContent(m.FederalChunkID) + " " + m.SectionReference
		if !ContentMatchesQuery(text, query) {
			continue
		}

		entry := m
		entry.ImplementingStates = slices.Clone(m.ImplementingStates)
		if len(filter) > 0 {
			entry.ImplementingStates = slices.DeleteFunc(entry.ImplementingStates, func(code string) bool {
				return !slices.Contains(filter, code)
			})
			if len(entry.ImplementingStates) == 0 {
				continue
			}
		}
		entry.RelevanceScore = RelevanceScore(text, query)
		entries = append(entries, entry)
	}

	slices.SortStableFunc(entries, func(a, b core.MappingEntry) int {
		return cmp.Compare(b.RelevanceScore, a.RelevanceScore)
	})
	if limit = s.limitOrDefault(limit); len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// ConflictAnalysis is the outcome of SearchWithConflictAnalysis.
type ConflictAnalysis struct {
	Query             string               `json:"query"`
	Results           []Record             `json:"results"`
	TotalResults      int                  `json:"total_results"`
	ConflictsDetected int                  `json:"conflicts_detected"`
	ResolutionRules   []index.ResolverRule `json:"resolution_rules"`
}

// SearchWithConflictAnalysis runs a unified search and reports how many
// results were involved in a conflict. Results carry the other chunks filed
// under their section as cross references, and federal results carry the
// states implementing them.
func (s *Searcher) SearchWithConflictAnalysis(ctx context.Context, query string, states []string, limit int) ConflictAnalysis {
	start := time.Now()
	limit = s.limitOrDefault(limit)
	defer func() {
		s.stats.RecordQuery(string(core.NamespaceUnified), time.Since(start))
	}()

	results := s.gather(ctx, core.NamespaceUnified, query, states, limit)
	implementing := make(map[string][]string)
	for _, m := range s.store.Mappings() {
		implementing[m.FederalChunkID] = m.ImplementingStates
	}
	for _, r := range results {
		for _, id := range s.store.SectionChunks(r.SectionReference) {
			if id != r.ID {
				r.CrossReferences = append(r.CrossReferences, id)
			}
		}
		if r.IsFederal() {
			r.StateApplications = slices.Clone(implementing[r.ID])
		}
	}
	sortAuthorityFirst(results)
	results = truncate(results, limit)

	rules := s.store.ResolverRules()
	if rules == nil {
		rules = []index.ResolverRule{}
	}
	return ConflictAnalysis{
		Query:             query,
		Results:           ToRecords(results),
		TotalResults:      len(results),
		ConflictsDetected: countConflicted(results),
		ResolutionRules:   rules,
	}
}

// AdvancedEntitySearch finds chunks through the entity index. An entity value
// contributes its chunks when it matches the query or appears in it. Results
// list the matched entities as "type:value" cross references and are ordered
// by authority, then relevance. Empty entityTypes searches every type.
func (s *Searcher) AdvancedEntitySearch(ctx context.Context, query string, entityTypes []string, limit int) []*core.Result {
	if len(entityTypes) == 0 {
		entityTypes = s.store.EntityTypes()
	}
	lowerQuery := strings.ToLower(query)
	if strings.TrimSpace(lowerQuery) == "" {
		return []*core.Result{}
	}

	var order []string
	matched := make(map[string][]string)
	for _, entityType := range entityTypes {
		values := s.store.Entities(entityType)
		names := make([]string, 0, len(values))
		for name := range values {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			if !strings.Contains(lowerQuery, strings.ToLower(name)) && !ContentMatchesQuery(name, query) {
				continue
			}
			for _, id := range values[name] {
				if _, ok := matched[id]; !ok {
					order = append(order, id)
				}
				matched[id] = append(matched[id], entityType+":"+name)
			}
		}
	}

	results := []*core.Result{}
	for _, id := range order {
		chunk, ok := s.store.Chunk(id)
		if !ok || chunk.Content == "" {
			s.logger.Debug("entity references unknown chunk", "chunk_id", id)
			continue
		}
		r := core.NewResult(chunk, RelevanceScore(chunk.Content, query))
		r.CrossReferences = matched[id]
		results = append(results, r)
	}

	sortAuthorityFirst(results)
	return truncate(results, s.limitOrDefault(limit))
}
