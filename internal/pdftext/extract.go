// Package pdftext extracts the embedded text layer from PDF byte streams and
// judges whether the result is usable or OCR is required.
package pdftext

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// PageMarker separates page texts in the concatenated output so downstream
// field extraction can reason about section boundaries.
const PageMarker = "\f"

// Result is the outcome of a text-layer extraction attempt.
type Result struct {
	Text      string  `json:"text"`
	Usable    bool    `json:"usable"`
	PageCount int     `json:"page_count"`
	Quality   Quality `json:"quality"`
}

// Extract attempts direct text-layer extraction from PDF bytes. A malformed
// or image-only PDF yields Usable=false with empty text; extraction failure
// is data, not an error, so nothing is raised to the caller.
func Extract(pdf []byte) Result {
	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), conf)
	if err != nil {
		zap.L().Debug("pdftext: unreadable pdf", zap.Error(err))
		return Result{}
	}

	var b strings.Builder
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		pageText := extractPageText(ctx, pageNr)
		if pageText == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(PageMarker)
		}
		b.WriteString(pageText)
	}

	// NFKC folds the ligatures PDF fonts love (ﬁ → fi) before the quality
	// heuristics and field rules see the text.
	text := norm.NFKC.String(b.String())
	q := Measure(text, ctx.PageCount)

	return Result{
		Text:      text,
		Usable:    q.Usable(),
		PageCount: ctx.PageCount,
		Quality:   q,
	}
}

// extractPageText pulls text out of a single page's content stream. Errors
// on individual pages degrade to an empty page, not a failed document.
func extractPageText(ctx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil || r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\)`)

// textFromContentStream parses PDF content stream text-showing operators
// (Tj, TJ, ') and positioning operators (Td, TD, T*) into plain text.
func textFromContentStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				sb.WriteByte('\n')
				sb.WriteString(decodePDFString(m[1]))
			}
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}

	return strings.TrimSpace(sb.String())
}

// decodePDFString handles basic PDF escape sequences, including octal.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] >= '0' && raw[i] <= '7' {
				val := int(raw[i] - '0')
				for k := 0; k < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; k++ {
					i++
					val = val*8 + int(raw[i]-'0')
				}
				sb.WriteByte(byte(val))
			} else {
				sb.WriteByte(raw[i])
			}
		}
	}
	return sb.String()
}
