package model

import "time"

// ExtractionMethod records which extractor produced a RawExtraction.
type ExtractionMethod string

const (
	MethodDirect ExtractionMethod = "direct"
	MethodOCR    ExtractionMethod = "ocr"
)

// RawExtraction is the outcome of one text-extraction pass over a document.
// Created once and never mutated; a re-extraction produces a new row rather
// than overwriting an old one.
type RawExtraction struct {
	ID          string           `json:"id"`
	DocID       string           `json:"doc_id"`
	Text        string           `json:"text"`
	Method      ExtractionMethod `json:"method"`
	Usable      bool             `json:"usable"`
	Chars       int              `json:"chars"`
	ExtractedAt time.Time        `json:"extracted_at"`
}
