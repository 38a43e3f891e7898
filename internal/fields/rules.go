// Package fields populates an EnforcementRecord from raw document text and
// web-page metadata. Extraction is rule-layered: an ordered list of pattern
// rules per field, evaluated in priority order, first match wins.
package fields

import (
	"regexp"
	"strings"
)

// Canonical field names, used as provenance keys and validation issue names.
const (
	FieldFacilityName     = "facility_name"
	FieldFacilityAddress  = "facility_address"
	FieldLicenseNumber    = "license_number"
	FieldEnforcementDate  = "enforcement_date"
	FieldActionType       = "action_type"
	FieldPenaltyAmount    = "penalty_amount"
	FieldViolationSummary = "violation_summary"
	FieldEffectiveDate    = "effective_date"
	FieldContactInfo      = "contact_info"
	FieldAdministrator    = "administrator_name"

	// FieldRawWebText carries the index-row text fragment for audit; it is
	// stored verbatim, never merged.
	FieldRawWebText = "raw_web_text"
)

// rule is one pattern in the layered table. Rules for the same field are
// evaluated top to bottom; the first match wins and later rules for that
// field are skipped.
type rule struct {
	field string
	re    *regexp.Regexp
}

// pdfRules is the full ordered rule table applied to document text. Patterns
// tolerate irregular whitespace and varying label phrasing; labels match
// case-insensitively while captured values keep their original case.
var pdfRules = []rule{
	// Facility identity.
	{FieldFacilityName, regexp.MustCompile(`(?im)^\s*(?:facility|facility\s+name)\s*:\s*(.+?)\s*$`)},
	{FieldFacilityAddress, regexp.MustCompile(`(?im)^\s*address\s*:\s*(.+?)\s*$`)},
	{FieldLicenseNumber, regexp.MustCompile(`(?i:lic(?:ense|\.)\s*(?:number|no\.?|#)?\s*[:#]?\s*)([A-Z0-9][A-Z0-9-]{2,})`)},

	// Penalty amount: label form first, then prose forms.
	{FieldPenaltyAmount, regexp.MustCompile(`(?i:penalty\s*:\s*)\$?([0-9][0-9,]*(?:\.[0-9]{2})?)`)},
	{FieldPenaltyAmount, regexp.MustCompile(`(?i:(?:assessed\s+)?penalty\s+of\s+)\$?([0-9][0-9,]*(?:\.[0-9]{2})?)`)},
	{FieldPenaltyAmount, regexp.MustCompile(`(?i:fine\s+of\s+)\$?([0-9][0-9,]*(?:\.[0-9]{2})?)`)},
	{FieldPenaltyAmount, regexp.MustCompile(`\$([0-9][0-9,]*(?:\.[0-9]{2})?)(?i:\s*penalty)`)},

	// Effective date: labeled forms first, bare date last.
	{FieldEffectiveDate, regexp.MustCompile(`(?i:effective\s+date\s*:\s*)([0-9]{1,2}/[0-9]{1,2}/[0-9]{2,4})`)},
	{FieldEffectiveDate, regexp.MustCompile(`(?i:date\s*:\s*)([0-9]{1,2}/[0-9]{1,2}/[0-9]{2,4})`)},
	{FieldEffectiveDate, regexp.MustCompile(`([0-9]{1,2}/[0-9]{1,2}/[0-9]{4})`)},

	// Contact block: runs to the next blank line.
	{FieldContactInfo, regexp.MustCompile(`(?is)contact\s*:\s*(.+?)(?:\n\s*\n|\z)`)},
	{FieldContactInfo, regexp.MustCompile(`(?is)for\s+questions?\s*:\s*(.+?)(?:\n\s*\n|\z)`)},
	{FieldContactInfo, regexp.MustCompile(`(?is)inquiries\s*:\s*(.+?)(?:\n\s*\n|\z)`)},

	// Administrator: "Jane Doe, Administrator" form, labeled form, signature.
	{FieldAdministrator, regexp.MustCompile(`([A-Z][a-z]+\s+[A-Z][a-z]+),?\s+(?i:(?:nursing\s+home\s+|facility\s+)?administrator)`)},
	{FieldAdministrator, regexp.MustCompile(`(?i:(?:nursing\s+home\s+|facility\s+)?administrator\s*[-:]\s*)([A-Z][a-z]+\s+[A-Z][a-z]+)`)},
	{FieldAdministrator, regexp.MustCompile(`(?i:sincerely,)\s*([A-Z][a-z]+\s+[A-Z][a-z]+)`)},
}

// actionVocabulary is the controlled vocabulary for enforcement action types,
// checked in order. "Lifting Curtailment" precedes "Curtailment" so the more
// specific action wins.
var actionVocabulary = []struct {
	canonical string
	re        *regexp.Regexp
}{
	{"Notice of Assessment of Penalties", regexp.MustCompile(`(?i)notice\s+of\s+assessment\s+of\s+penalties`)},
	{"Lifting Curtailment", regexp.MustCompile(`(?i)lifting\s+curtailment`)},
	{"Curtailment", regexp.MustCompile(`(?i)curtailment`)},
	{"Cease & Desist", regexp.MustCompile(`(?i)cease\s*(?:&|and)\s*desist`)},
	{"Directed Plan of Correction", regexp.MustCompile(`(?i)directed\s+plan\s+of\s+correction`)},
	{"Revocation", regexp.MustCompile(`(?i)revocation`)},
	{"Suspension", regexp.MustCompile(`(?i)suspension`)},
}

// applyRules runs the table over the text and returns first-match-wins
// values per field.
func applyRules(text string) map[string]string {
	out := make(map[string]string)
	for _, r := range pdfRules {
		if _, done := out[r.field]; done {
			continue
		}
		if m := r.re.FindStringSubmatch(text); m != nil {
			out[r.field] = collapseSpace(m[1])
		}
	}
	if action := matchAction(text); action != "" {
		out[FieldActionType] = action
	}
	return out
}

// matchAction returns the canonical action type for the first vocabulary
// entry found in the text, or "" when none match.
func matchAction(text string) string {
	for _, a := range actionVocabulary {
		if a.re.MatchString(text) {
			return a.canonical
		}
	}
	return ""
}

var spaceRe = regexp.MustCompile(`\s+`)

// collapseSpace trims and folds runs of whitespace, including the line wraps
// OCR output is full of.
func collapseSpace(s string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}
