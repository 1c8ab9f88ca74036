package core

import (
	"testing"
)

func TestChunkIDFromContent_Deterministic(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
	}{
		{name: "single part", parts: []string{"income limits"}},
		{name: "state and content", parts: []string{"CA", "Tie breaker scoring"}},
		{name: "empty", parts: []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := ChunkIDFromContent(tt.parts...)
			id2 := ChunkIDFromContent(tt.parts...)
			if id1 != id2 {
				t.Errorf("ChunkIDFromContent() produced different IDs for same input: %s vs %s", id1, id2)
			}
			if len(id1) != 32 {
				t.Errorf("ChunkIDFromContent() length = %d, want 32", len(id1))
			}
		})
	}
}

func TestChunkIDFromContent_PartBoundaries(t *testing.T) {
	if ChunkIDFromContent("CA", "B") == ChunkIDFromContent("C", "AB") {
		t.Errorf("ChunkIDFromContent() ignored part boundaries")
	}
}

func TestAuthorityLevel_Score(t *testing.T) {
	tests := []struct {
		level AuthorityLevel
		want  int
	}{
		{AuthorityStatutory, 100},
		{AuthorityRegulatory, 80},
		{AuthorityGuidance, 60},
		{AuthorityInterpretive, 40},
		{AuthorityStateQAP, 30},
		{AuthorityLevel("advisory"), 0},
		{AuthorityLevel(""), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if got := tt.level.Score(); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAuthorityLevels_Ordered(t *testing.T) {
	levels := AllAuthorityLevels()
	for i := 1; i < len(levels); i++ {
		if levels[i-1].Score() <= levels[i].Score() {
			t.Errorf("levels out of order at %d: %s before %s", i, levels[i-1], levels[i])
		}
	}
	for _, l := range FederalAuthorityLevels() {
		if !l.IsFederal() {
			t.Errorf("%s should be federal", l)
		}
	}
	if AuthorityStateQAP.IsFederal() {
		t.Errorf("state_qap should not be federal")
	}
}

func TestChunk_StateCodeAndTitle(t *testing.T) {
	federal := Chunk{Source: FederalSource, SectionReference: "Section 42(g)(1)"}
	if federal.StateCode() != "" {
		t.Errorf("federal StateCode() = %q, want empty", federal.StateCode())
	}
	if federal.SectionTitle() != "Section 42(g)(1)" {
		t.Errorf("federal SectionTitle() = %q", federal.SectionTitle())
	}

	state := Chunk{
		Source:           "CA",
		SectionReference: "10325(c)",
		Metadata:         StateMetadata{StateCode: "CA", SectionTitle: "Tie Breakers"},
	}
	if state.StateCode() != "CA" {
		t.Errorf("state StateCode() = %q, want CA", state.StateCode())
	}
	if state.SectionTitle() != "Tie Breakers" {
		t.Errorf("state SectionTitle() = %q, want Tie Breakers", state.SectionTitle())
	}
}

func TestNewResult(t *testing.T) {
	r := NewResult(Chunk{ID: "c1", AuthorityLevel: AuthorityGuidance}, 0.5)
	if r.AuthorityScore != 60 {
		t.Errorf("AuthorityScore = %d, want 60", r.AuthorityScore)
	}
	if r.RelevanceScore != 0.5 {
		t.Errorf("RelevanceScore = %v, want 0.5", r.RelevanceScore)
	}
	if r.HasConflicts() {
		t.Errorf("new result should have no conflicts")
	}
}
