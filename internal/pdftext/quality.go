package pdftext

import (
	"strings"
	"unicode"
)

// Usability thresholds. A scanned page with no embedded text layer typically
// yields either nothing or operator garbage; the ratios catch the garbage.
const (
	MinUsableChars    = 50
	MinPrintableRatio = 0.85
	MinWordlikeRatio  = 0.55
)

// Quality captures metrics about an extraction attempt, used to decide
// whether the text layer is usable or OCR is needed.
type Quality struct {
	PageCount      int     `json:"page_count"`
	Chars          int     `json:"chars"`
	PrintableRatio float64 `json:"printable_ratio"`
	WordlikeRatio  float64 `json:"wordlike_ratio"`
}

// Usable reports whether extracted text meets the minimum length and noise
// thresholds.
func (q Quality) Usable() bool {
	return q.Chars >= MinUsableChars &&
		q.PrintableRatio >= MinPrintableRatio &&
		q.WordlikeRatio >= MinWordlikeRatio
}

// Measure computes quality metrics over extracted text.
func Measure(text string, pageCount int) Quality {
	trimmed := strings.TrimSpace(text)
	return Quality{
		PageCount:      pageCount,
		Chars:          len([]rune(trimmed)),
		PrintableRatio: printableRatio(trimmed),
		WordlikeRatio:  wordlikeRatio(trimmed),
	}
}

// printableRatio returns the ratio of printable runes. Private Use Area
// runes, the replacement character, and non-whitespace control characters
// count as garbage; they are the signature of font-encoding corruption.
func printableRatio(text string) float64 {
	if text == "" {
		return 0
	}
	total, printable := 0, 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' || r == '\f' {
			printable++
		}
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' && r != '\f' {
		return true
	}
	return false
}

// wordlikeRatio returns the ratio of word-like tokens (2-15 runes) to total
// tokens. Extraction artifacts skew toward single characters and very long
// runs.
func wordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		n := len([]rune(f))
		if n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}
