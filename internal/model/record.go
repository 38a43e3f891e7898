package model

import "time"

// Severity is the coarse three-tier classification of an enforcement action.
type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Rank orders severities; higher is more severe. Unknown values rank lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Issue is one field-level validation problem attached to a record.
type Issue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validation is the per-record validation block. Invalid records are still
// persisted; Valid gates notification confidence display, not storage.
type Validation struct {
	Valid        bool    `json:"valid"`
	Issues       []Issue `json:"issues,omitempty"`
	Completeness float64 `json:"completeness"`
}

// HasIssue reports whether an issue for the given field is present.
func (v Validation) HasIssue(field string) bool {
	for _, i := range v.Issues {
		if i.Field == field {
			return true
		}
	}
	return false
}

// EnforcementRecord is the structured result of processing one document.
// Severity and PriorityScore are always set together by the scorer and
// PriorityScore is clamped to [0,100].
type EnforcementRecord struct {
	DocID           string     `json:"doc_id"`
	PDFURL          string     `json:"pdf_url,omitempty"`
	FacilityName    string     `json:"facility_name"`
	FacilityAddress string     `json:"facility_address,omitempty"`
	LicenseNumber   string     `json:"license_number,omitempty"`
	EnforcementDate *time.Time `json:"enforcement_date,omitempty"`
	ActionType      string     `json:"action_type,omitempty"`

	// PenaltyAmount keeps the raw matched text; source amounts are irregular
	// and not guaranteed parseable. PenaltyValue is the best-effort numeric.
	PenaltyAmount string   `json:"penalty_amount,omitempty"`
	PenaltyValue  *float64 `json:"penalty_value,omitempty"`

	ViolationSummary  string   `json:"violation_summary,omitempty"`
	KeyViolations     []string `json:"key_violations,omitempty"`
	EffectiveDate     string   `json:"effective_date,omitempty"`
	ContactInfo       string   `json:"contact_information,omitempty"`
	AdministratorName string   `json:"administrator_name,omitempty"`

	Severity      Severity `json:"severity_level"`
	PriorityScore int      `json:"priority_score"`

	// Raw source text kept for audit.
	RawWebText string `json:"raw_web_text,omitempty"`
	RawPDFText string `json:"raw_pdf_text,omitempty"`

	Provenance map[string]FieldSource `json:"provenance,omitempty"`
	Validation Validation             `json:"validation"`
	CreatedAt  time.Time              `json:"created_at"`
}
