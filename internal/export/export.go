// Package export writes enforcement records to an xlsx report.
package export

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/lanternhealth/enforcement-cli/internal/model"
)

// header is the report column order.
var header = []string{
	"Doc ID",
	"Facility",
	"Address",
	"License",
	"Action",
	"Severity",
	"Priority",
	"Penalty",
	"Enforcement Date",
	"Valid",
	"Completeness",
	"Issues",
	"PDF URL",
}

// WriteXLSX writes the records to an xlsx file at path, in the order
// given. The caller decides the ordering, typically priority descending.
func WriteXLSX(path string, recs []model.EnforcementRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Enforcement Actions")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	row := sheet.AddRow()
	for _, h := range header {
		row.AddCell().Value = h
	}

	for _, rec := range recs {
		row := sheet.AddRow()
		row.AddCell().Value = rec.DocID
		row.AddCell().Value = rec.FacilityName
		row.AddCell().Value = rec.FacilityAddress
		row.AddCell().Value = rec.LicenseNumber
		row.AddCell().Value = rec.ActionType
		row.AddCell().Value = string(rec.Severity)
		row.AddCell().SetInt(rec.PriorityScore)

		penalty := row.AddCell()
		if rec.PenaltyValue != nil {
			penalty.SetFloatWithFormat(*rec.PenaltyValue, "#,##0.00")
		} else {
			penalty.Value = rec.PenaltyAmount
		}

		date := row.AddCell()
		if rec.EnforcementDate != nil {
			date.Value = rec.EnforcementDate.Format("2006-01-02")
		}

		row.AddCell().SetBool(rec.Validation.Valid)
		row.AddCell().SetFloatWithFormat(rec.Validation.Completeness, "0.0")
		row.AddCell().Value = issueList(rec.Validation.Issues)
		row.AddCell().Value = rec.PDFURL
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// issueList renders validation issues as "field: reason" pairs.
func issueList(issues []model.Issue) string {
	if len(issues) == 0 {
		return ""
	}
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = issue.Field + ": " + issue.Reason
	}
	return strings.Join(parts, "; ")
}
