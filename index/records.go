package index

import (
	"fmt"
	"strings"

	"github.com/poiesic/lihtcrag/core"
)

// chunkRecord is the on-disk shape of a chunk in every chunk-bearing index.
// Sparse records (e.g. an authority entry carrying only chunk_id) are filled
// from the master index after loading.
type chunkRecord struct {
	ChunkID          string         `json:"chunk_id"`
	Content          string         `json:"content"`
	Source           string         `json:"source"`
	StateCode        string         `json:"state_code"`
	SourceType       string         `json:"source_type"`
	AuthorityLevel   string         `json:"authority_level"`
	SectionReference string         `json:"section_reference"`
	SectionTitle     string         `json:"section_title"`
	EffectiveDate    string         `json:"effective_date"`
	SupersededBy     string         `json:"superseded_by"`
	DocumentTitle    string         `json:"document_title"`
	PageNumber       int            `json:"page_number"`
	CitationCount    int            `json:"citation_count"`
	Metadata         map[string]any `json:"metadata"`
}

type chunkFile struct {
	Chunks map[string]chunkRecord `json:"chunks"`
}

type mappingRecord struct {
	SectionReference   string   `json:"section_reference"`
	ImplementingStates []string `json:"implementing_states"`
	CitationContexts   []string `json:"citation_contexts"`
}

type crossRefFile struct {
	Mappings map[string]mappingRecord `json:"mappings"`
}

// SearchConfig holds façade defaults read from unified_search_config.json.
type SearchConfig struct {
	DefaultLimit         int     `json:"default_limit"`
	DefaultNamespace     string  `json:"default_namespace"`
	DefaultRanking       string  `json:"default_ranking"`
	VectorTimeoutSeconds float64 `json:"vector_timeout_seconds"`
}

// DefaultSearchConfig is used when the config index is absent or incomplete.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		DefaultLimit:         10,
		DefaultNamespace:     string(core.NamespaceUnified),
		DefaultRanking:       string(core.RankAuthorityFirst),
		VectorTimeoutSeconds: 10,
	}
}

// withDefaults fills zero fields from DefaultSearchConfig.
func (c SearchConfig) withDefaults() SearchConfig {
	d := DefaultSearchConfig()
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = d.DefaultLimit
	}
	if !core.Namespace(c.DefaultNamespace).IsValid() {
		c.DefaultNamespace = d.DefaultNamespace
	}
	if !core.RankingStrategy(c.DefaultRanking).IsValid() {
		c.DefaultRanking = d.DefaultRanking
	}
	if c.VectorTimeoutSeconds <= 0 {
		c.VectorTimeoutSeconds = d.VectorTimeoutSeconds
	}
	return c
}

// ResolverRule is a documented conflict-resolution rule from
// authority_conflict_resolver.json. Rules are reported, never executed.
type ResolverRule struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type resolverFile struct {
	Hierarchy map[string]int `json:"hierarchy"`
	Rules     []ResolverRule `json:"rules"`
}

// toChunk converts a record; id and level are used when the record omits them.
func (r chunkRecord) toChunk(id string, level core.AuthorityLevel) core.Chunk {
	if r.ChunkID != "" {
		id = r.ChunkID
	}
	if r.AuthorityLevel != "" {
		level = core.AuthorityLevel(r.AuthorityLevel)
	}

	source := r.Source
	if source == "" {
		source = r.StateCode
	}
	if source == "" && level.IsFederal() {
		source = core.FederalSource
	}
	if source != "" && !strings.EqualFold(source, core.FederalSource) {
		source = strings.ToUpper(source)
	} else if source != "" {
		source = core.FederalSource
	}

	chunk := core.Chunk{
		ID:               id,
		Content:          r.Content,
		Source:           source,
		SourceType:       core.SourceType(r.SourceType),
		AuthorityLevel:   level,
		SectionReference: r.SectionReference,
		EffectiveDate:    core.ParseEffectiveDate(r.EffectiveDate),
		SupersededBy:     r.SupersededBy,
		DocumentTitle:    r.DocumentTitle,
	}

	extras := stringifyMetadata(r.Metadata)
	if source == "" || source == core.FederalSource {
		chunk.Metadata = core.FederalMetadata{CitationCount: r.CitationCount, Extras: extras}
	} else {
		chunk.Metadata = core.StateMetadata{
			StateCode:    source,
			SectionTitle: r.SectionTitle,
			PageNumber:   r.PageNumber,
			Extras:       extras,
		}
	}
	return chunk
}

func stringifyMetadata(m map[string]any) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// mergeChunk fills empty fields of c from base.
func mergeChunk(c, base core.Chunk) core.Chunk {
	if c.Content == "" {
		c.Content = base.Content
	}
	if c.Source == "" {
		c.Source = base.Source
	}
	if c.SourceType == "" {
		c.SourceType = base.SourceType
	}
	if c.AuthorityLevel == "" {
		c.AuthorityLevel = base.AuthorityLevel
	}
	if c.SectionReference == "" {
		c.SectionReference = base.SectionReference
	}
	if c.EffectiveDate.Raw == "" {
		c.EffectiveDate = base.EffectiveDate
	}
	if c.SupersededBy == "" {
		c.SupersededBy = base.SupersededBy
	}
	if c.DocumentTitle == "" {
		c.DocumentTitle = base.DocumentTitle
	}
	if metadataEmpty(c.Metadata) && base.Metadata != nil {
		c.Metadata = base.Metadata
	}
	return c
}

func metadataEmpty(m core.Metadata) bool {
	switch v := m.(type) {
	case core.FederalMetadata:
		return v.CitationCount == 0 && len(v.Extras) == 0
	case core.StateMetadata:
		return v.SectionTitle == "" && v.PageNumber == 0 && len(v.Extras) == 0
	}
	return true
}
