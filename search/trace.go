package search

import (
	"fmt"
	"io"
	"time"

	"github.com/poiesic/lihtcrag/core"
)

// TraceMonitor writes one line per search stage to a writer.
// It is meant for interactive use and is not safe for concurrent searches.
type TraceMonitor struct {
	w     io.Writer
	start time.Time
}

var _ SearchMonitor = (*TraceMonitor)(nil)

// NewTraceMonitor creates a monitor that writes to w.
func NewTraceMonitor(w io.Writer) *TraceMonitor {
	return &TraceMonitor{w: w}
}

func (m *TraceMonitor) stage(format string, args ...any) {
	fmt.Fprintf(m.w, "[%8s] ", time.Since(m.start).Round(time.Microsecond))
	fmt.Fprintf(m.w, format+"\n", args...)
}

func (m *TraceMonitor) Start(req Request) {
	m.start = time.Now()
	m.stage("search %q namespace=%s ranking=%s limit=%d states=%v",
		req.Query, req.Namespace, req.Ranking, req.Limit, req.States)
}

func (m *TraceMonitor) AfterFederalSearch(results []*core.Result) {
	m.stage("federal: %d candidates", len(results))
}

func (m *TraceMonitor) AfterStateSearch(results []*core.Result) {
	m.stage("state: %d candidates", len(results))
}

func (m *TraceMonitor) AfterConflictResolution(results []*core.Result, conflicted int) {
	m.stage("conflicts: %d of %d results annotated", conflicted, len(results))
}

func (m *TraceMonitor) AfterRanking(results []*core.Result) {
	if len(results) == 0 {
		m.stage("ranked: no results")
		return
	}
	top := results[0]
	m.stage("ranked: %d results, top %s (%s, relevance %.3f)",
		len(results), top.ID, top.AuthorityLevel, top.RelevanceScore)
}

func (m *TraceMonitor) Finish(records []Record) {
	m.stage("done: %d records", len(records))
}
