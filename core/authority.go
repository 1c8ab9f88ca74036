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


package core

// AuthorityLevel classifies the legal weight of a source.
type AuthorityLevel string

const (
	// AuthorityStatutory is the Internal Revenue Code itself.
	AuthorityStatutory AuthorityLevel = "statutory"
	// AuthorityRegulatory covers Treasury regulations (26 CFR).
	AuthorityRegulatory AuthorityLevel = "regulatory"
	// AuthorityGuidance covers revenue procedures, rulings and notices.
	AuthorityGuidance AuthorityLevel = "guidance"
	// AuthorityInterpretive covers private letter rulings and similar.
	AuthorityInterpretive AuthorityLevel = "interpretive"
	// AuthorityStateQAP is a state Qualified Allocation Plan.
	AuthorityStateQAP AuthorityLevel = "state_qap"
)

// authorityScores is the fixed hierarchy. It is never modified at runtime.
var authorityScores = map[AuthorityLevel]int{
	AuthorityStatutory:    100,
	AuthorityRegulatory:   80,
	AuthorityGuidance:     60,
	AuthorityInterpretive: 40,
	AuthorityStateQAP:     30,
}

// Score returns the numeric authority score for the level.
// Unknown levels score 0 so they sort below every known level.
func (a AuthorityLevel) Score() int {
	return authorityScores[a]
}

// IsKnown reports whether the level is part of the hierarchy.
func (a AuthorityLevel) IsKnown() bool {
	_, ok := authorityScores[a]
	return ok
}

// IsFederal reports whether the level belongs to a federal source.
func (a AuthorityLevel) IsFederal() bool {
	return a.IsKnown() && a != AuthorityStateQAP
}

// AllAuthorityLevels returns every level, highest authority first.
func AllAuthorityLevels() []AuthorityLevel {
	return []AuthorityLevel{
		AuthorityStatutory,
		AuthorityRegulatory,
		AuthorityGuidance,
		AuthorityInterpretive,
		AuthorityStateQAP,
	}
}

// FederalAuthorityLevels returns the non-state levels, highest authority first.
func FederalAuthorityLevels() []AuthorityLevel {
	return []AuthorityLevel{
		AuthorityStatutory,
		AuthorityRegulatory,
		AuthorityGuidance,
		AuthorityInterpretive,
	}
}

// SourceType identifies the kind of document a chunk came from.
type SourceType string

const (
	SourceTypeIRC     SourceType = "IRC"
	SourceTypeCFR     SourceType = "CFR"
	SourceTypeRevProc SourceType = "Rev_Proc"
	SourceTypeRevRul  SourceType = "Rev_Rul"
	SourceTypeNotice  SourceType = "Notice"
	SourceTypePLR     SourceType = "PLR"
	SourceTypeQAP     SourceType = "QAP"
)

// Namespace selects which source population a query runs against.
type Namespace string

const (
	NamespaceFederal Namespace = "federal"
	NamespaceState   Namespace = "state"
	NamespaceUnified Namespace = "unified"
)

// IsValid reports whether n is one of the supported namespaces.
func (n Namespace) IsValid() bool {
	switch n {
	case NamespaceFederal, NamespaceState, NamespaceUnified:
		return true
	}
	return false
}

// RankingStrategy selects the final ordering of a result list.
type RankingStrategy string

const (
	RankAuthorityFirst RankingStrategy = "authority_first"
	RankChronological  RankingStrategy = "chronological"
	RankRelevance      RankingStrategy = "relevance"
)

// IsValid reports whether r is one of the supported strategies.
func (r RankingStrategy) IsValid() bool {
	switch r {
	case RankAuthorityFirst, RankChronological, RankRelevance:
		return true
	}
	return false
}
