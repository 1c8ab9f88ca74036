package core

import (
	"strings"
	"time"
)

// UnknownDate is the literal the indexes use when a source carries no date.
const UnknownDate = "Unknown"

var effectiveDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01",
	"2006",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2006",
}

// EffectiveDate is a parsed effective date that keeps its original text.
// A zero Time means the date is unknown.
type EffectiveDate struct {
	Raw  string
	Time time.Time
}

// ParseEffectiveDate parses the formats found in federal and QAP indexes.
// Unparseable input yields an unknown date rather than an error.
func ParseEffectiveDate(raw string) EffectiveDate {
	trimmed := strings.TrimSpace(raw)
	d := EffectiveDate{Raw: trimmed}
	if trimmed == "" || strings.EqualFold(trimmed, UnknownDate) {
		return d
	}
	for _, layout := range effectiveDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			d.Time = t.UTC()
			return d
		}
	}
	return d
}

// Known reports whether the date was parsed successfully.
func (d EffectiveDate) Known() bool {
	return !d.Time.IsZero()
}

// String returns the original text, or "Unknown" when there was none.
func (d EffectiveDate) String() string {
	if d.Raw == "" {
		return UnknownDate
	}
	return d.Raw
}

// After orders dates newest first with unknown dates last.
// It returns true when d should be placed before other.
func (d EffectiveDate) After(other EffectiveDate) bool {
	switch {
	case d.Known() && !other.Known():
		return true
	case !d.Known():
		return false
	}
	return d.Time.After(other.Time)
}

// Within reports whether the date falls in [start, end].
// A zero bound is open. Unknown dates are never within a range.
func (d EffectiveDate) Within(start, end time.Time) bool {
	if !d.Known() {
		return false
	}
	if !start.IsZero() && d.Time.Before(start) {
		return false
	}
	if !end.IsZero() && d.Time.After(end) {
		return false
	}
	return true
}
