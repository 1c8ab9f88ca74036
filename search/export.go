package search

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Export formats accepted by ExportSearchResults.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

const previewLength = 200

type exportDocument struct {
	ExportID     string    `json:"export_id"`
	Query        string    `json:"query"`
	ExportedAt   time.Time `json:"exported_at"`
	TotalResults int       `json:"total_results"`
	Results      []Record  `json:"results"`
}

// ExportSearchResults renders records as a JSON document or a Markdown
// report. Any other format falls back to the default Go formatting of records.
func ExportSearchResults(records []Record, query, format string) string {
	switch strings.ToLower(format) {
	case FormatJSON:
		if records == nil {
			records = []Record{}
		}
		doc := exportDocument{
			ExportID:     uuid.NewString(),
			Query:        query,
			ExportedAt:   time.Now().UTC(),
			TotalResults: len(records),
			Results:      records,
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Sprint(records)
		}
		return string(data)
	case FormatMarkdown:
		return exportMarkdown(records, query)
	default:
		return fmt.Sprint(records)
	}
}

func exportMarkdown(records []Record, query string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Search Results for: %s\n\n", query)
	fmt.Fprintf(&b, "Exported: %s\n\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Total results: %d\n", len(records))

	for i, r := range records {
		source := "Federal"
		if r.StateCode != nil {
			source = *r.StateCode
		}
		fmt.Fprintf(&b, "\n## %d. %s\n\n", i+1, r.SectionTitle)
		fmt.Fprintf(&b, "- **Source:** %s\n", source)
		fmt.Fprintf(&b, "- **Authority:** %s (%d)\n", r.AuthorityLevel, r.Metadata.AuthorityScore)
		fmt.Fprintf(&b, "- **Score:** %.3f\n", r.Score)
		fmt.Fprintf(&b, "- **Effective date:** %s\n", r.Metadata.EffectiveDate)
		for _, c := range r.Metadata.Conflicts {
			fmt.Fprintf(&b, "- **Conflict:** %s\n", c)
		}
		fmt.Fprintf(&b, "\n%s\n", preview(r.Content))
	}
	return b.String()
}

// preview shortens content to previewLength runes.
func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}
