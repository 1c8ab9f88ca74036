package search

import (
	"context"

	"github.com/poiesic/lihtcrag/core"
)

// SearchByAuthorityLevel scans the authority buckets for levels and returns
// matching chunks ordered by authority, then relevance. A nil levels slice
// searches every level. Chunks whose content is unavailable are skipped.
func (s *Searcher) SearchByAuthorityLevel(ctx context.Context, query string, levels []core.AuthorityLevel, limit int) []*core.Result {
	if len(levels) == 0 {
		levels = core.AllAuthorityLevels()
	}

	seen := make(map[string]bool)
	results := []*core.Result{}
	for _, level := range levels {
		for _, chunk := range s.store.AuthorityBucket(level) {
			if seen[chunk.ID] {
				continue
			}
			if chunk.Content == "" {
				chunk.Content = s.store.ChunkContent(chunk.ID)
			}
			if chunk.Content == "" {
				s.logger.Debug("skipping chunk without content", "chunk_id", chunk.ID, "level", level)
				continue
			}
			if !ContentMatchesQuery(chunk.Content, query) {
				continue
			}
			seen[chunk.ID] = true
			results = append(results, core.NewResult(chunk, RelevanceScore(chunk.Content, query)))
		}
	}

	sortAuthorityFirst(results)
	return truncate(results, s.limitOrDefault(limit))
}
