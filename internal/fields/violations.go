package fields

import (
	"regexp"
	"strings"
)

const (
	// minViolationLen filters out list fragments too short to be a real
	// violation statement.
	minViolationLen = 20
	// maxKeyViolations caps the list; beyond this the summary carries the rest.
	maxKeyViolations = 10
)

// violationSectionRe locates the violation summary under its common section
// headers, running to the next blank line.
var violationSectionRe = regexp.MustCompile(`(?is)(?:violations?|deficiencies|findings?|issues)\s*:\s*(.+?)(?:\n\s*\n|\z)`)

// itemMarkerRe matches the start of a numbered, bulleted, or lettered list
// item.
var itemMarkerRe = regexp.MustCompile(`^\s*(?:[0-9]+\.|[a-z]\)|[•\-\*])\s+(.*)$`)

// violationSummary extracts the main violation section, or "" when no
// section header is present.
func violationSummary(text string) string {
	if m := violationSectionRe.FindStringSubmatch(text); m != nil {
		return collapseSpace(m[1])
	}
	return ""
}

// keyViolations extracts the itemized violation list. Items come from
// numbered/bulleted/lettered lines; continuation lines are folded into the
// current item. When no itemization exists, semicolon-delimited clauses in
// the summary are used, and failing that the whole summary is a
// single-element list.
func keyViolations(text, summary string) []string {
	items := itemized(text)
	if len(items) == 0 && summary != "" {
		items = clauses(summary)
	}
	if len(items) == 0 && summary != "" {
		items = []string{summary}
	}
	if len(items) > maxKeyViolations {
		items = items[:maxKeyViolations]
	}
	return items
}

// itemized scans lines for list markers, folding wrapped continuation lines
// into the item they belong to.
func itemized(text string) []string {
	var items []string
	var current strings.Builder

	flush := func() {
		item := collapseSpace(current.String())
		current.Reset()
		if len(item) >= minViolationLen {
			items = append(items, item)
		}
	}

	inItem := false
	for _, line := range strings.Split(text, "\n") {
		if m := itemMarkerRe.FindStringSubmatch(line); m != nil {
			if inItem {
				flush()
			}
			inItem = true
			current.WriteString(m[1])
			continue
		}
		if !inItem {
			continue
		}
		if strings.TrimSpace(line) == "" {
			flush()
			inItem = false
			continue
		}
		current.WriteString(" ")
		current.WriteString(line)
	}
	if inItem {
		flush()
	}
	return items
}

// clauses splits a summary on semicolons when it reads as a run-on list.
func clauses(summary string) []string {
	if !strings.Contains(summary, ";") {
		return nil
	}
	var items []string
	for _, part := range strings.Split(summary, ";") {
		part = collapseSpace(part)
		if len(part) >= minViolationLen {
			items = append(items, part)
		}
	}
	if len(items) < 2 {
		return nil
	}
	return items
}
