package fields

import (
	"strings"
	"time"
)

// dateLayouts is the fallback chain of accepted date formats, tried in
// order. Source documents use slash dates; web metadata sometimes spells
// the month out.
var dateLayouts = []string{
	"1/2/2006",
	"1/2/06",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
}

// ParseDate parses a date with the fallback chain. An unparseable date
// returns nil rather than a fabricated value; the validator records the
// absence as an issue.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
