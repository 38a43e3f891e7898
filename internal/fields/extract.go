package fields

import (
	"time"

	"github.com/lanternhealth/enforcement-cli/internal/model"
)

// Extract populates an EnforcementRecord from raw document text plus
// web-page metadata supplied by the crawl collaborator. The metadata is a
// lower-priority secondary source: when both sides supply a field, the
// document value wins if non-empty, and the provenance map records which
// side each value came from. Extraction is deterministic: identical inputs
// always produce the identical record.
func Extract(raw string, webMeta map[string]string) model.EnforcementRecord {
	pdfVals := applyRules(raw)

	summary := violationSummary(raw)
	if summary != "" {
		pdfVals[FieldViolationSummary] = summary
	}

	rec := model.EnforcementRecord{
		RawPDFText: raw,
		RawWebText: webMeta[FieldRawWebText],
		Provenance: make(map[string]model.FieldSource),
	}

	merge := func(field string) string {
		value, src := model.Merge(webMeta[field], pdfVals[field])
		rec.Provenance[field] = src
		return value
	}

	rec.FacilityName = merge(FieldFacilityName)
	rec.FacilityAddress = merge(FieldFacilityAddress)
	rec.LicenseNumber = merge(FieldLicenseNumber)
	rec.ActionType = merge(FieldActionType)
	rec.PenaltyAmount = merge(FieldPenaltyAmount)
	rec.ViolationSummary = merge(FieldViolationSummary)
	rec.EffectiveDate = merge(FieldEffectiveDate)
	rec.ContactInfo = merge(FieldContactInfo)
	rec.AdministratorName = merge(FieldAdministrator)

	rec.PenaltyValue = ParseAmount(rec.PenaltyAmount)
	rec.EnforcementDate = enforcementDate(webMeta, pdfVals, rec.Provenance)
	rec.KeyViolations = keyViolations(raw, rec.ViolationSummary)

	return rec
}

// enforcementDate resolves the enforcement date. The crawl index date is
// authoritative when it parses; the document's effective date is the
// fallback. An unparseable date stays nil rather than being fabricated.
func enforcementDate(webMeta, pdfVals map[string]string, prov map[string]model.FieldSource) *time.Time {
	if t := ParseDate(webMeta[FieldEnforcementDate]); t != nil {
		prov[FieldEnforcementDate] = model.SourceWeb
		return t
	}
	if t := ParseDate(pdfVals[FieldEffectiveDate]); t != nil {
		prov[FieldEnforcementDate] = model.SourcePDF
		return t
	}
	prov[FieldEnforcementDate] = model.SourceNone
	return nil
}
