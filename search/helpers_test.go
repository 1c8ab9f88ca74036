package search

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/lihtcrag/core"
	"github.com/poiesic/lihtcrag/index"
	"github.com/stretchr/testify/require"
)

var zeroTime time.Time

// fakeStateSource returns fresh copies of its results on every call.
type fakeStateSource struct {
	results   []core.Result
	available bool
	calls     int
	lastState []string
}

func (f *fakeStateSource) SearchStateSources(_ context.Context, _ string, states []string, limit int) []*core.Result {
	f.calls++
	f.lastState = states
	out := []*core.Result{}
	for _, r := range f.results {
		r := r
		out = append(out, &r)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *fakeStateSource) Available() bool { return f.available }

func californiaSetAside() core.Result {
	chunk := core.Chunk{
		ID:               "ca-vec-1",
		Content:          "California minimum set-aside scoring for deeper income targeting",
		Source:           "CA",
		SourceType:       core.SourceTypeQAP,
		AuthorityLevel:   core.AuthorityStateQAP,
		SectionReference: "Section 42(g)(1)",
		EffectiveDate:    core.ParseEffectiveDate("2024-01-01"),
		Metadata:         core.StateMetadata{StateCode: "CA", SectionTitle: "Section 10325"},
	}
	return *core.NewResult(chunk, 0.88)
}

func newStateSource() *fakeStateSource {
	return &fakeStateSource{results: []core.Result{californiaSetAside()}, available: true}
}

func openStore(t *testing.T, files map[string]any) *index.Store {
	t.Helper()
	dir := t.TempDir()
	if files != nil {
		require.NoError(t, index.WriteIndexFiles(dir, files))
	}
	store, err := index.Open(dir)
	require.NoError(t, err)
	return store
}

func newSampleSearcher(t *testing.T, opts ...Option) *Searcher {
	t.Helper()
	s, err := NewSearcher(openStore(t, index.SampleFiles()), opts...)
	require.NoError(t, err)
	return s
}

func newEmptySearcher(t *testing.T, opts ...Option) *Searcher {
	t.Helper()
	s, err := NewSearcher(openStore(t, nil), opts...)
	require.NoError(t, err)
	return s
}

func chunkIDs(results []*core.Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	return ids
}

func recordIDs(records []Record) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ChunkID)
	}
	return ids
}
