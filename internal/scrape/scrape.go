// Package scrape crawls the state health department's enforcement actions
// index page and turns its table rows into document references plus the
// web-side field metadata the extraction engine merges in.
package scrape

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lanternhealth/enforcement-cli/internal/config"
	"github.com/lanternhealth/enforcement-cli/internal/fetcher"
	"github.com/lanternhealth/enforcement-cli/internal/fields"
	"github.com/lanternhealth/enforcement-cli/internal/model"
)

// Entry is one row of the enforcement actions table.
type Entry struct {
	Date         time.Time `json:"date"`
	FacilityName string    `json:"facility_name"`
	ActionType   string    `json:"action_type"`
	PDFURL       string    `json:"pdf_url"`
}

// Scraper fetches and parses the enforcement index.
type Scraper struct {
	fetcher  fetcher.Fetcher
	indexURL string
	cutoff   time.Time
}

// NewScraper creates a Scraper. A configured cutoff date drops table rows
// older than the date the watch history starts at.
func NewScraper(f fetcher.Fetcher, cfg config.ScrapeConfig) (*Scraper, error) {
	s := &Scraper{fetcher: f, indexURL: cfg.IndexURL}
	if cfg.CutoffDate != "" {
		t := fields.ParseDate(cfg.CutoffDate)
		if t == nil {
			return nil, eris.Errorf("scrape: unparseable cutoff date %q", cfg.CutoffDate)
		}
		s.cutoff = *t
	}
	return s, nil
}

// Entries fetches the index page and returns its rows, oldest first, with
// rows before the cutoff dropped.
func (s *Scraper) Entries(ctx context.Context) ([]Entry, error) {
	page, err := s.fetcher.DownloadBytes(ctx, s.indexURL)
	if err != nil {
		return nil, eris.Wrap(err, "scrape: fetch index")
	}

	entries, err := ParseIndex(page, s.indexURL)
	if err != nil {
		return nil, err
	}

	kept := entries[:0]
	for _, e := range entries {
		if !s.cutoff.IsZero() && e.Date.Before(s.cutoff) {
			continue
		}
		kept = append(kept, e)
	}

	zap.L().Info("scrape: parsed index",
		zap.Int("rows", len(entries)),
		zap.Int("kept", len(kept)),
	)
	return kept, nil
}

// NewSince filters entries to those dated strictly after the last check.
func NewSince(entries []Entry, lastCheck *time.Time) []Entry {
	if lastCheck == nil {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if e.Date.After(*lastCheck) {
			out = append(out, e)
		}
	}
	return out
}

// Reference builds the stable document reference for an entry.
func (e Entry) Reference(now time.Time) model.DocumentReference {
	return model.NewDocumentReference(e.PDFURL, now)
}

// WebMetadata returns the entry's fields in the shape the extraction engine
// consumes as its secondary source.
func (e Entry) WebMetadata() map[string]string {
	meta := map[string]string{
		fields.FieldFacilityName: e.FacilityName,
		fields.FieldActionType:   e.ActionType,
	}
	if !e.Date.IsZero() {
		meta[fields.FieldEnforcementDate] = e.Date.Format("1/2/2006")
		meta[fields.FieldRawWebText] = meta[fields.FieldEnforcementDate] +
			" | " + e.FacilityName + " | " + e.ActionType
	}
	return meta
}
