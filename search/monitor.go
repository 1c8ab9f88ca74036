package search

import "github.com/poiesic/lihtcrag/core"

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(req Request)
	AfterFederalSearch(results []*core.Result)
	AfterStateSearch(results []*core.Result)
	AfterConflictResolution(results []*core.Result, conflicted int)
	AfterRanking(results []*core.Result)
	Finish(records []Record)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Request)                                {}
func (n *noopMonitor) AfterFederalSearch(_ []*core.Result)            {}
func (n *noopMonitor) AfterStateSearch(_ []*core.Result)              {}
func (n *noopMonitor) AfterConflictResolution(_ []*core.Result, _ int) {}
func (n *noopMonitor) AfterRanking(_ []*core.Result)                  {}
func (n *noopMonitor) Finish(_ []Record)                              {}
