package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDocumentIDDeterministic(t *testing.T) {
	a := DocumentID("https://www.nj.gov/health/healthfacilities/documents/enforcement/abc.pdf")
	b := DocumentID("https://www.nj.gov/health/healthfacilities/documents/enforcement/abc.pdf")
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestDocumentIDCanonicalization(t *testing.T) {
	base := DocumentID("https://www.nj.gov/health/doc.pdf")

	tests := []struct {
		name string
		url  string
		same bool
	}{
		{"uppercase host", "https://WWW.NJ.GOV/health/doc.pdf", true},
		{"fragment stripped", "https://www.nj.gov/health/doc.pdf#page=2", true},
		{"surrounding whitespace", "  https://www.nj.gov/health/doc.pdf ", true},
		{"different path", "https://www.nj.gov/health/other.pdf", false},
		{"different query", "https://www.nj.gov/health/doc.pdf?v=2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DocumentID(tt.url)
			if tt.same {
				assert.Equal(t, base, got)
			} else {
				assert.NotEqual(t, base, got)
			}
		})
	}
}

func TestNewDocumentReference(t *testing.T) {
	now := time.Now().UTC()
	ref := NewDocumentReference("https://example.org/a.pdf", now)
	assert.Equal(t, DocumentID("https://example.org/a.pdf"), ref.ID)
	assert.Equal(t, "https://example.org/a.pdf", ref.URL)
	assert.Equal(t, now, ref.DiscoveredAt)
}

func TestMergePDFWins(t *testing.T) {
	tests := []struct {
		name       string
		web, pdf   string
		wantValue  string
		wantSource FieldSource
	}{
		{"both present", "Web Manor", "Sunrise Care Center", "Sunrise Care Center", SourceBoth},
		{"pdf only", "", "Sunrise Care Center", "Sunrise Care Center", SourcePDF},
		{"web only", "Web Manor", "", "Web Manor", SourceWeb},
		{"pdf whitespace only", "Web Manor", "   ", "Web Manor", SourceWeb},
		{"neither", "", "", "", SourceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, src := Merge(tt.web, tt.pdf)
			assert.Equal(t, tt.wantValue, got)
			assert.Equal(t, tt.wantSource, src)
		})
	}
}

func TestSeverityRankMonotonic(t *testing.T) {
	assert.Greater(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Greater(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Equal(t, 0, Severity("").Rank())
}
