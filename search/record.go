package search

import "github.com/poiesic/lihtcrag/core"

// Record is the normalized form of a result returned to callers.
type Record struct {
	ChunkID        string         `json:"chunk_id"`
	StateCode      *string        `json:"state_code"`
	Content        string         `json:"content"`
	SectionTitle   string         `json:"section_title"`
	AuthorityLevel string         `json:"authority_level"`
	Score          float64        `json:"score"`
	Metadata       RecordMetadata `json:"metadata"`
}

// RecordMetadata carries the remaining result fields.
type RecordMetadata struct {
	AuthorityScore    int               `json:"authority_score"`
	RelevanceScore    float64           `json:"relevance_score"`
	SourceType        string            `json:"source_type"`
	DocumentTitle     string            `json:"document_title"`
	EffectiveDate     string            `json:"effective_date"`
	SupersededBy      string            `json:"superseded_by,omitempty"`
	Conflicts         []string          `json:"conflicts"`
	CrossReferences   []string          `json:"cross_references"`
	StateApplications []string          `json:"state_applications"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// ToRecord converts a result into its normalized record.
func ToRecord(r *core.Result) Record {
	var stateCode *string
	if code := r.StateCode(); code != "" {
		stateCode = &code
	}
	var extra map[string]string
	if r.Metadata != nil {
		extra = r.Metadata.ExtraFields()
	}
	return Record{
		ChunkID:        r.ID,
		StateCode:      stateCode,
		Content:        r.Content,
		SectionTitle:   r.SectionTitle(),
		AuthorityLevel: string(r.AuthorityLevel),
		Score:          r.RelevanceScore,
		Metadata: RecordMetadata{
			AuthorityScore:    r.AuthorityScore,
			RelevanceScore:    r.RelevanceScore,
			SourceType:        string(r.SourceType),
			DocumentTitle:     r.DocumentTitle,
			EffectiveDate:     r.EffectiveDate.String(),
			SupersededBy:      r.SupersededBy,
			Conflicts:         orEmpty(r.Conflicts),
			CrossReferences:   orEmpty(r.CrossReferences),
			StateApplications: orEmpty(r.StateApplications),
			Extra:             extra,
		},
	}
}

// ToRecords converts results in order.
func ToRecords(results []*core.Result) []Record {
	records := make([]Record, 0, len(results))
	for _, r := range results {
		records = append(records, ToRecord(r))
	}
	return records
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
