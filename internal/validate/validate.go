// Package validate checks a scored record before persistence. Invalid
// records are still persisted and flagged; validity gates notification
// confidence, not storage.
package validate

import (
	"regexp"

	"github.com/lanternhealth/enforcement-cli/internal/fields"
	"github.com/lanternhealth/enforcement-cli/internal/model"
)

// penaltyFormatRe is the shape of a cleanly extracted penalty amount.
var penaltyFormatRe = regexp.MustCompile(`^\$?[\d,]+(?:\.\d{2})?$`)

// minLicenseLen flags suspiciously short license numbers.
const minLicenseLen = 3

// Record validates a record, returning the validation block to attach to
// it. Facility name is the only required field; every other absence is an
// issue for downstream visibility, not a rejection.
func Record(rec model.EnforcementRecord) model.Validation {
	var issues []model.Issue

	if rec.FacilityName == "" {
		issues = append(issues, model.Issue{
			Field:  fields.FieldFacilityName,
			Reason: "facility name is required",
		})
	}
	if rec.ActionType == "" {
		issues = append(issues, model.Issue{
			Field:  fields.FieldActionType,
			Reason: "no enforcement action type recognized",
		})
	}
	if rec.EnforcementDate == nil {
		issues = append(issues, model.Issue{
			Field:  fields.FieldEnforcementDate,
			Reason: "no parseable enforcement date",
		})
	}
	if rec.RawPDFText == "" && rec.RawWebText == "" {
		issues = append(issues, model.Issue{
			Field:  "raw_text",
			Reason: "no usable text extracted from any source",
		})
	}

	if rec.PenaltyAmount != "" && !penaltyFormatRe.MatchString(rec.PenaltyAmount) {
		issues = append(issues, model.Issue{
			Field:  fields.FieldPenaltyAmount,
			Reason: "penalty amount format may be incorrect",
		})
	}
	if rec.LicenseNumber != "" && len(rec.LicenseNumber) < minLicenseLen {
		issues = append(issues, model.Issue{
			Field:  fields.FieldLicenseNumber,
			Reason: "license number seems too short",
		})
	}

	return model.Validation{
		Valid:        rec.FacilityName != "",
		Issues:       issues,
		Completeness: completeness(rec),
	}
}

// completeness scores how much of the record is populated: required fields
// weigh 60 points, optional fields 40.
func completeness(rec model.EnforcementRecord) float64 {
	required := []bool{
		rec.FacilityName != "",
		rec.ActionType != "",
		rec.EnforcementDate != nil,
	}
	optional := []bool{
		rec.FacilityAddress != "",
		rec.LicenseNumber != "",
		rec.PenaltyAmount != "",
		rec.ViolationSummary != "",
		len(rec.KeyViolations) > 0,
		rec.EffectiveDate != "",
	}

	score := fraction(required)*60 + fraction(optional)*40
	// One decimal place is plenty for a completeness figure.
	return float64(int(score*10+0.5)) / 10
}

func fraction(present []bool) float64 {
	n := 0
	for _, p := range present {
		if p {
			n++
		}
	}
	return float64(n) / float64(len(present))
}
