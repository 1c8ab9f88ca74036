package index

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// WriteIndexFiles writes each value as JSON to dir under its file name.
// A []byte value is written verbatim, which allows malformed fixtures.
func WriteIndexFiles(dir string, files map[string]any) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for name, v := range files {
		data, ok := v.([]byte)
		if !ok {
			var err error
			data, err = json.MarshalIndent(v, "", "  ")
			if err != nil {
				return err
			}
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// SampleFiles returns a small but complete corpus covering every index file.
// Chunk irc-42-b has no content in the master index so lookups must fall
// back to the federal content index.
func SampleFiles() map[string]any {
	return map[string]any{
		MasterChunkFile: map[string]any{
			"chunks": map[string]any{
				"irc-42-g-1": map[string]any{
					"content":           "Section 42(g)(1) minimum set-aside: at least 20 percent of the residential units must be rent-restricted and occupied by individuals whose income is 50 percent or less of area median gross income.",
					"source":            "federal",
					"source_type":       "IRC",
					"authority_level":   "statutory",
					"section_reference": "Section 42(g)(1)",
					"effective_date":    "1986-10-22",
					"document_title":    "Internal Revenue Code Section 42",
					"citation_count":    12,
				},
				"irc-42-b": map[string]any{
					"source":            "federal",
					"source_type":       "IRC",
					"authority_level":   "statutory",
					"section_reference": "Section 42(b)",
					"effective_date":    "1986-10-22",
					"document_title":    "Internal Revenue Code Section 42",
				},
				"cfr-1.42-5": map[string]any{
					"content":           "Compliance monitoring requirements: the allocating agency must review tenant income certifications and inspect low-income units.",
					"source":            "federal",
					"source_type":       "CFR",
					"authority_level":   "regulatory",
					"section_reference": "26 CFR 1.42-5",
					"effective_date":    "2000-01-01",
					"document_title":    "Treasury Regulations",
				},
				"revproc-2014-49": map[string]any{
					"content":           "Income averaging procedures under the minimum set-aside election for qualified low-income projects.",
					"source":            "federal",
					"source_type":       "Rev_Proc",
					"authority_level":   "guidance",
					"section_reference": "Rev. Proc. 2014-49",
					"effective_date":    "2014-06-23",
					"document_title":    "Revenue Procedure 2014-49",
				},
				"plr-201234005": map[string]any{
					"content":           "Private letter ruling addressing whether a project satisfied the minimum set-aside after a casualty loss.",
					"source":            "federal",
					"source_type":       "PLR",
					"authority_level":   "interpretive",
					"section_reference": "PLR 201234005",
					"effective_date":    "Unknown",
					"document_title":    "Private Letter Ruling 201234005",
				},
				"ca-qap-10325": map[string]any{
					"content":           "California minimum set-aside scoring: projects electing deeper targeting receive additional points.",
					"source":            "CA",
					"source_type":       "QAP",
					"authority_level":   "state_qap",
					"section_reference": "Section 42(g)(1)",
					"section_title":     "Section 10325 Application Selection Criteria",
					"effective_date":    "2024-01-01",
					"document_title":    "California QAP 2024",
					"page_number":       41,
				},
			},
		},
		FederalContentFile: map[string]any{
			"chunks": map[string]any{
				"irc-42-b": map[string]any{
					"content": "Section 42(b) applicable percentage: the credit rate for new buildings placed in service is 9 percent for non-federally subsidized buildings.",
				},
			},
		},
		AuthorityFile: map[string]any{
			"statutory":    []any{map[string]any{"chunk_id": "irc-42-g-1"}, map[string]any{"chunk_id": "irc-42-b"}},
			"regulatory":   []any{map[string]any{"chunk_id": "cfr-1.42-5"}},
			"guidance":     []any{map[string]any{"chunk_id": "revproc-2014-49"}},
			"interpretive": []any{map[string]any{"chunk_id": "plr-201234005"}},
			"state_qap":    []any{map[string]any{"chunk_id": "ca-qap-10325"}},
		},
		EffectiveDateFile: map[string]any{
			"1986": []any{
				map[string]any{"chunk_id": "irc-42-g-1", "effective_date": "1986-10-22"},
				map[string]any{"chunk_id": "irc-42-b", "effective_date": "1986-10-22"},
			},
			"2000":    []any{map[string]any{"chunk_id": "cfr-1.42-5", "effective_date": "2000-01-01"}},
			"2014":    []any{map[string]any{"chunk_id": "revproc-2014-49", "effective_date": "2014-06-23"}},
			"unknown": []any{map[string]any{"chunk_id": "plr-201234005", "effective_date": "Unknown"}},
		},
		CrossRefFile: map[string]any{
			"mappings": map[string]any{
				"irc-42-g-1": map[string]any{
					"section_reference":   "Section 42(g)(1)",
					"implementing_states": []string{"CA", "TX", "NY"},
					"citation_contexts":   []string{"CA QAP Section 10325", "TX QAP 11.5"},
				},
				"cfr-1.42-5": map[string]any{
					"section_reference":   "26 CFR 1.42-5",
					"implementing_states": []string{"CA", "TX"},
					"citation_contexts":   []string{"TX compliance manual"},
				},
			},
		},
		FederalEntityFile: map[string]any{
			"percentages": map[string]any{
				"20 percent": []string{"irc-42-g-1"},
				"9 percent":  []string{"irc-42-b"},
			},
			"programs": map[string]any{
				"income averaging": []string{"revproc-2014-49"},
			},
		},
		FederalSectionFile: map[string]any{
			"Section 42(g)(1)": []string{"irc-42-g-1", "ca-qap-10325"},
			"26 CFR 1.42-5":    []string{"cfr-1.42-5"},
		},
		SearchConfigFile: map[string]any{
			"default_limit":          10,
			"default_namespace":      "unified",
			"default_ranking":        "authority_first",
			"vector_timeout_seconds": 10,
		},
		ConflictResolverFile: map[string]any{
			"hierarchy": map[string]int{
				"statutory": 100, "regulatory": 80, "guidance": 60, "interpretive": 40, "state_qap": 30,
			},
			"rules": []any{
				map[string]any{"name": "federal_preemption", "description": "Federal statutory and regulatory requirements override conflicting state QAP provisions"},
				map[string]any{"name": "state_stricter_allowed", "description": "States may impose requirements stricter than federal minimums"},
			},
		},
	}
}
