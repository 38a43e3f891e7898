package model

import "strings"

// FieldSource tags where a field's winning value came from.
type FieldSource string

const (
	SourceNone FieldSource = "none"
	SourceWeb  FieldSource = "web"
	SourcePDF  FieldSource = "pdf"
	SourceBoth FieldSource = "both"
)

// Merge resolves the web- and PDF-sourced candidates for one field. The PDF
// value wins when non-empty; PDFs are the primary legal source and the web
// table is only a summary of them.
func Merge(web, pdf string) (string, FieldSource) {
	web = strings.TrimSpace(web)
	pdf = strings.TrimSpace(pdf)
	switch {
	case pdf != "" && web != "":
		return pdf, SourceBoth
	case pdf != "":
		return pdf, SourcePDF
	case web != "":
		return web, SourceWeb
	default:
		return "", SourceNone
	}
}
