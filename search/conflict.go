package search

import (
	"fmt"
	"slices"

	"github.com/poiesic/lihtcrag/core"
)

// generalGroup is the conflict group for results without a section reference.
const generalGroup = "general"

func conflictKey(r *core.Result) string {
	if r.SectionReference == "" {
		return generalGroup
	}
	return r.SectionReference
}

// groupByKey groups results by conflict key, keeping first-seen key order.
func groupByKey(results []*core.Result) ([]string, map[string][]*core.Result) {
	var keys []string
	groups := make(map[string][]*core.Result)
	for _, r := range results {
		key := conflictKey(r)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], r)
	}
	return keys, groups
}

// DetectConflicts annotates state QAP results that share a section with a
// source of a different authority level. Each state QAP member receives one
// annotation per distinct non-state source type in its group. Groups that
// hold only federal levels are not annotated. Results are modified in place
// and returned in the same order. The query does not affect grouping.
func DetectConflicts(results []*core.Result, query string) []*core.Result {
	keys, groups := groupByKey(results)
	for _, key := range keys {
		group := groups[key]

		levels := make(map[core.AuthorityLevel]bool)
		hasState := false
		for _, r := range group {
			levels[r.AuthorityLevel] = true
			if r.AuthorityLevel == core.AuthorityStateQAP {
				hasState = true
			}
		}
		if len(levels) < 2 || !hasState {
			continue
		}

		var notes []string
		seenTypes := make(map[core.SourceType]bool)
		for _, r := range group {
			if r.AuthorityLevel == core.AuthorityStateQAP || seenTypes[r.SourceType] {
				continue
			}
			seenTypes[r.SourceType] = true
			notes = append(notes, fmt.Sprintf("Potentially conflicting with %s (%s) on %s", r.SourceType, r.AuthorityLevel, key))
		}
		for _, r := range group {
			if r.AuthorityLevel != core.AuthorityStateQAP {
				continue
			}
			for _, note := range notes {
				if !slices.Contains(r.Conflicts, note) {
					r.Conflicts = append(r.Conflicts, note)
				}
			}
		}
	}
	return results
}

// ResolveConflicts picks the highest-authority member of every group that
// holds an annotated result. The winner is noted as superseding the rest and
// every other member is noted as superseded by the winner. No result is
// removed; the output is ordered by authority, then relevance.
func ResolveConflicts(results []*core.Result) []*core.Result {
	keys, groups := groupByKey(results)
	for _, key := range keys {
		group := groups[key]
		if !slices.ContainsFunc(group, (*core.Result).HasConflicts) {
			continue
		}

		ranked := slices.Clone(group)
		slices.SortStableFunc(ranked, compareAuthorityFirst)
		winner := ranked[0]

		winner.Conflicts = append(winner.Conflicts,
			fmt.Sprintf("Supersedes %d lower-authority sources on %s", len(ranked)-1, key))

		ref := winner.SectionReference
		if ref == "" {
			ref = key
		}
		for _, r := range ranked[1:] {
			r.Conflicts = append(r.Conflicts, fmt.Sprintf("Superseded by %s %s", winner.SourceType, ref))
		}
	}

	out := slices.Clone(results)
	sortAuthorityFirst(out)
	return out
}
