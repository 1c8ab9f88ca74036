package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// FederalSource is the Source value of every non-state chunk.
const FederalSource = "federal"

// ChunkIDFromContent derives a deterministic chunk ID from its content using BLAKE2b.
// Identical input always produces the identical ID.
func ChunkIDFromContent(parts ...string) string {
	h, _ := blake2b.New(16, nil)
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Metadata carries the source-specific fields of a chunk.
// Implementations are FederalMetadata and StateMetadata.
type Metadata interface {
	isMetadata()
	// ExtraFields returns index-specific values that have no promoted field.
	ExtraFields() map[string]string
}

// FederalMetadata is attached to chunks from federal sources.
type FederalMetadata struct {
	CitationCount int
	Extras        map[string]string
}

func (FederalMetadata) isMetadata() {}

// ExtraFields implements Metadata.
func (m FederalMetadata) ExtraFields() map[string]string { return m.Extras }

// StateMetadata is attached to chunks from state QAP documents.
type StateMetadata struct {
	StateCode    string
	SectionTitle string
	PageNumber   int
	Extras       map[string]string
}

func (StateMetadata) isMetadata() {}

// ExtraFields implements Metadata.
func (m StateMetadata) ExtraFields() map[string]string { return m.Extras }

// Chunk is the atomic retrievable unit shared by every index.
type Chunk struct {
	ID               string
	Content          string
	Source           string // "federal" or a state code
	SourceType       SourceType
	AuthorityLevel   AuthorityLevel
	SectionReference string
	EffectiveDate    EffectiveDate
	SupersededBy     string
	DocumentTitle    string
	Metadata         Metadata
}

// IsFederal reports whether the chunk came from a federal source.
func (c *Chunk) IsFederal() bool {
	return c.Source == "" || c.Source == FederalSource
}

// StateCode returns the state code of a state chunk, or "" for federal chunks.
func (c *Chunk) StateCode() string {
	if c.IsFederal() {
		return ""
	}
	return c.Source
}

// SectionTitle returns the human-readable section label of the chunk.
func (c *Chunk) SectionTitle() string {
	if m, ok := c.Metadata.(StateMetadata); ok && m.SectionTitle != "" {
		return m.SectionTitle
	}
	return c.SectionReference
}

// Result is a scored view of a chunk produced for one query.
// Results are built fresh for each query and never written back.
type Result struct {
	Chunk
	RelevanceScore    float64
	AuthorityScore    int
	Conflicts         []string
	CrossReferences   []string
	StateApplications []string
}

// NewResult builds a Result for the chunk with its authority score filled in.
func NewResult(chunk Chunk, relevance float64) *Result {
	return &Result{
		Chunk:          chunk,
		RelevanceScore: relevance,
		AuthorityScore: chunk.AuthorityLevel.Score(),
	}
}

// HasConflicts reports whether conflict detection annotated the result.
func (r *Result) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// MappingEntry links one federal provision to the states implementing it.
type MappingEntry struct {
	FederalChunkID     string   `json:"federal_chunk_id"`
	SectionReference   string   `json:"section_reference"`
	ImplementingStates []string `json:"implementing_states"`
	CitationContexts   []string `json:"citation_contexts"`
	RelevanceScore     float64  `json:"relevance_score"`
}

// StateChunk is a QAP chunk as held by the vector store.
type StateChunk struct {
	ID               string    `json:"chunk_id"`
	StateCode        string    `json:"state_code"`
	DocumentTitle    string    `json:"document_title,omitempty"`
	SectionTitle     string    `json:"section_title,omitempty"`
	SectionReference string    `json:"section_reference,omitempty"`
	EffectiveDate    string    `json:"effective_date,omitempty"`
	PageNumber       int       `json:"page_number,omitempty"`
	Content          string    `json:"content"`
	Vector           []float32 `json:"vector,omitempty"`
	InsertedAt       time.Time `json:"inserted_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StateMatch is a state chunk returned by similarity search.
type StateMatch struct {
	Chunk *StateChunk
	Score float32
}
