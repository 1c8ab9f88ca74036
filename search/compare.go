package search

import (
	"context"
	"slices"

	"github.com/poiesic/lihtcrag/core"
)

// Comparison types accepted by CrossJurisdictionalComparison.
const (
	CompareFederalVsStates = "federal_vs_states"
	CompareStateVsState    = "state_vs_state"
)

// Comparison statuses.
const (
	StatusComplete            = "complete"
	StatusRequiresIntegration = "requires_integration"
	StatusUnsupported         = "unsupported"
)

const (
	comparisonFederalLimit = 5
	comparisonMappingLimit = 10
)

// Comparison is a side-by-side of federal rules and their state implementations.
type Comparison struct {
	Query          string              `json:"query,omitempty"`
	ComparisonType string              `json:"comparison_type,omitempty"`
	TargetStates   []string            `json:"target_states,omitempty"`
	Status         string              `json:"status,omitempty"`
	Message        string              `json:"message,omitempty"`
	FederalSources []Record            `json:"federal_sources,omitempty"`
	StateMappings  []core.MappingEntry `json:"state_mappings,omitempty"`
	Analysis       *ComparisonAnalysis `json:"analysis,omitempty"`
}

// ComparisonAnalysis holds the fields derived from a federal_vs_states comparison.
type ComparisonAnalysis struct {
	ImplementingStatesCount int  `json:"implementing_states_count"`
	VariationDetected       bool `json:"variation_detected"`
	FederalSourcesFound     int  `json:"federal_sources_found"`
}

// CrossJurisdictionalComparison compares how federal provisions matching the
// query are implemented by states. Only federal_vs_states is fully supported;
// state_vs_state reports that it needs further integration. With no indexes
// loaded the comparison is empty.
func (s *Searcher) CrossJurisdictionalComparison(ctx context.Context, query, comparisonType string, targetStates []string) Comparison {
	if s.store.Empty() {
		s.logger.Warn("comparison requested with no indexes loaded", "query", query)
		return Comparison{}
	}

	targetStates = core.NormalizeStateCodes(targetStates)
	comparison := Comparison{
		Query:          query,
		ComparisonType: comparisonType,
		TargetStates:   targetStates,
	}

	switch comparisonType {
	case CompareFederalVsStates:
		federal := s.SearchByAuthorityLevel(ctx, query,
			[]core.AuthorityLevel{core.AuthorityStatutory, core.AuthorityRegulatory},
			comparisonFederalLimit)
		mappings := s.SearchFederalStateMappings(ctx, query, targetStates, comparisonMappingLimit)

		var union []string
		for _, m := range mappings {
			for _, code := range m.ImplementingStates {
				if !slices.Contains(union, code) {
					union = append(union, code)
				}
			}
		}

		comparison.Status = StatusComplete
		comparison.FederalSources = ToRecords(federal)
		comparison.StateMappings = mappings
		comparison.Analysis = &ComparisonAnalysis{
			ImplementingStatesCount: len(union),
			VariationDetected:       len(mappings) > 1,
			FederalSourcesFound:     len(federal),
		}
	case CompareStateVsState:
		comparison.Status = StatusRequiresIntegration
		comparison.Message = "state_vs_state comparison requires state QAP cross-referencing that is not yet integrated"
	default:
		s.logger.Warn("unsupported comparison type", "comparison_type", comparisonType)
		comparison.Status = StatusUnsupported
		comparison.Message = "unsupported comparison type: " + comparisonType
	}
	return comparison
}
