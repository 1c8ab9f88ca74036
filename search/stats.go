package search

import (
	"maps"
	"sync"
	"time"
)

// Stats accumulates query counters for one Searcher.
// It is safe for concurrent use.
type Stats struct {
	mu             sync.Mutex
	totalQueries   int
	totalTime      time.Duration
	namespaceUsage map[string]int
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	TotalQueries    int            `json:"total_queries"`
	AvgResponseTime time.Duration  `json:"avg_response_time"`
	NamespaceUsage  map[string]int `json:"namespace_usage"`
}

// NewStats creates empty statistics.
func NewStats() *Stats {
	return &Stats{namespaceUsage: make(map[string]int)}
}

// RecordQuery counts one query against namespace.
func (s *Stats) RecordQuery(namespace string, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalQueries++
	s.totalTime += latency
	s.namespaceUsage[namespace]++
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := StatsSnapshot{
		TotalQueries:   s.totalQueries,
		NamespaceUsage: maps.Clone(s.namespaceUsage),
	}
	if s.totalQueries > 0 {
		snap.AvgResponseTime = s.totalTime / time.Duration(s.totalQueries)
	}
	return snap
}
