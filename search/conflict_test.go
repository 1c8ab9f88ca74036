package search

import (
	"strings"
	"testing"

	"github.com/poiesic/lihtcrag/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(id string, level core.AuthorityLevel, sourceType core.SourceType, ref string, relevance float64) *core.Result {
	source := core.FederalSource
	if level == core.AuthorityStateQAP {
		source = "CA"
	}
	return core.NewResult(core.Chunk{
		ID:               id,
		Content:          "content of " + id,
		Source:           source,
		SourceType:       sourceType,
		AuthorityLevel:   level,
		SectionReference: ref,
	}, relevance)
}

func containsFold(notes []string, substr string) bool {
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n), substr) {
			return true
		}
	}
	return false
}

func TestDetectAndResolve_SharedSection(t *testing.T) {
	regulatory := result("reg", core.AuthorityRegulatory, core.SourceTypeCFR, "Section 42(g)(1)", 0.4)
	state := result("qap", core.AuthorityStateQAP, core.SourceTypeQAP, "Section 42(g)(1)", 0.9)

	detected := DetectConflicts([]*core.Result{state, regulatory}, "minimum set-aside")
	require.Len(t, detected, 2)
	assert.NotEmpty(t, state.Conflicts)
	assert.Equal(t, "Potentially conflicting with CFR (regulatory) on Section 42(g)(1)", state.Conflicts[0])
	assert.Empty(t, regulatory.Conflicts)

	resolved := ResolveConflicts(detected)
	require.Len(t, resolved, 2)
	assert.Equal(t, "reg", resolved[0].ID)
	assert.Equal(t, "qap", resolved[1].ID)
	assert.True(t, containsFold(resolved[0].Conflicts, "supersedes"))
	assert.True(t, containsFold(resolved[1].Conflicts, "superseded by"))
	assert.Contains(t, resolved[1].Conflicts, "Superseded by CFR Section 42(g)(1)")
}

func TestDetectConflicts_Scope(t *testing.T) {
	t.Run("federal only groups are not annotated", func(t *testing.T) {
		results := []*core.Result{
			result("irc", core.AuthorityStatutory, core.SourceTypeIRC, "Section 42(b)", 0.5),
			result("cfr", core.AuthorityRegulatory, core.SourceTypeCFR, "Section 42(b)", 0.5),
		}
		DetectConflicts(results, "q")
		for _, r := range results {
			assert.Empty(t, r.Conflicts)
		}
	})

	t.Run("single level group is not annotated", func(t *testing.T) {
		results := []*core.Result{
			result("qap-1", core.AuthorityStateQAP, core.SourceTypeQAP, "Scoring", 0.5),
			result("qap-2", core.AuthorityStateQAP, core.SourceTypeQAP, "Scoring", 0.6),
		}
		DetectConflicts(results, "q")
		for _, r := range results {
			assert.Empty(t, r.Conflicts)
		}
	})

	t.Run("one note per distinct source type", func(t *testing.T) {
		state := result("qap", core.AuthorityStateQAP, core.SourceTypeQAP, "", 0.5)
		results := []*core.Result{
			result("irc-1", core.AuthorityStatutory, core.SourceTypeIRC, "", 0.5),
			result("irc-2", core.AuthorityStatutory, core.SourceTypeIRC, "", 0.4),
			result("notice", core.AuthorityGuidance, core.SourceTypeNotice, "", 0.4),
			state,
		}
		DetectConflicts(results, "q")
		assert.Equal(t, []string{
			"Potentially conflicting with IRC (statutory) on general",
			"Potentially conflicting with Notice (guidance) on general",
		}, state.Conflicts)
	})

	t.Run("repeated detection does not duplicate notes", func(t *testing.T) {
		state := result("qap", core.AuthorityStateQAP, core.SourceTypeQAP, "S", 0.5)
		results := []*core.Result{result("irc", core.AuthorityStatutory, core.SourceTypeIRC, "S", 0.5), state}
		DetectConflicts(results, "q")
		DetectConflicts(results, "q")
		assert.Len(t, state.Conflicts, 1)
	})
}

func TestResolveConflicts_CountPreserving(t *testing.T) {
	inputs := [][]*core.Result{
		nil,
		{result("a", core.AuthorityGuidance, core.SourceTypeRevProc, "X", 0.2)},
		{
			result("a", core.AuthorityStatutory, core.SourceTypeIRC, "X", 0.2),
			result("b", core.AuthorityStateQAP, core.SourceTypeQAP, "X", 0.9),
			result("c", core.AuthorityGuidance, core.SourceTypeNotice, "X", 0.5),
			result("d", core.AuthorityStateQAP, core.SourceTypeQAP, "Y", 0.9),
			result("e", core.AuthorityInterpretive, core.SourceTypePLR, "", 0.1),
			result("f", core.AuthorityStateQAP, core.SourceTypeQAP, "", 0.3),
		},
	}
	for _, in := range inputs {
		out := ResolveConflicts(DetectConflicts(in, "q"))
		assert.Len(t, out, len(in))

		seen := make(map[string]int)
		for _, r := range out {
			seen[r.ID]++
		}
		for _, r := range in {
			assert.Equal(t, 1, seen[r.ID], r.ID)
		}
	}
}

func TestResolveConflicts_WinnerCountsLowerSources(t *testing.T) {
	results := []*core.Result{
		result("qap", core.AuthorityStateQAP, core.SourceTypeQAP, "X", 0.9),
		result("notice", core.AuthorityGuidance, core.SourceTypeNotice, "X", 0.5),
		result("irc", core.AuthorityStatutory, core.SourceTypeIRC, "X", 0.2),
		result("other", core.AuthorityGuidance, core.SourceTypeNotice, "Z", 0.7),
	}
	out := ResolveConflicts(DetectConflicts(results, "q"))

	assert.Equal(t, []string{"irc", "other", "notice", "qap"}, chunkIDs(out))
	assert.Equal(t, []string{"Supersedes 2 lower-authority sources on X"}, out[0].Conflicts)
	assert.Equal(t, []string{"Superseded by IRC X"}, out[2].Conflicts)
	assert.Empty(t, out[1].Conflicts)
}

func TestResolveConflicts_EqualAuthorityCountsAsSuperseded(t *testing.T) {
	results := []*core.Result{
		result("qap", core.AuthorityStateQAP, core.SourceTypeQAP, "X", 0.9),
		result("irc-a", core.AuthorityStatutory, core.SourceTypeIRC, "X", 0.6),
		result("irc-b", core.AuthorityStatutory, core.SourceTypeIRC, "X", 0.3),
	}
	out := ResolveConflicts(DetectConflicts(results, "q"))

	require.Equal(t, []string{"irc-a", "irc-b", "qap"}, chunkIDs(out))
	assert.Equal(t, []string{"Supersedes 2 lower-authority sources on X"}, out[0].Conflicts)
	superseded := 0
	for _, r := range out[1:] {
		if containsFold(r.Conflicts, "superseded by") {
			superseded++
		}
	}
	assert.Equal(t, 2, superseded)
}
