// Package pipeline orchestrates the per-document processing chain:
// extraction, field population, scoring, validation, persistence. A record
// is only committed after validation completes in full, so an interrupted
// run leaves no partial-write state.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/lanternhealth/enforcement-cli/internal/config"
	"github.com/lanternhealth/enforcement-cli/internal/fetcher"
	"github.com/lanternhealth/enforcement-cli/internal/fields"
	"github.com/lanternhealth/enforcement-cli/internal/model"
	"github.com/lanternhealth/enforcement-cli/internal/ocr"
	"github.com/lanternhealth/enforcement-cli/internal/pdftext"
	"github.com/lanternhealth/enforcement-cli/internal/scorer"
	"github.com/lanternhealth/enforcement-cli/internal/scrape"
	"github.com/lanternhealth/enforcement-cli/internal/store"
	"github.com/lanternhealth/enforcement-cli/internal/validate"
)

// Result is the outcome of processing one document. IsNew reports whether
// the store had no record for the document before this run.
type Result struct {
	Record model.EnforcementRecord
	IsNew  bool
}

// Pipeline processes documents. Documents are independent; the only shared
// resource is the recognition engine, bounded by a semaphore.
type Pipeline struct {
	store   store.Store
	fetcher fetcher.Fetcher
	engine  ocr.Engine
	rules   config.ScorerConfig

	maxDocs int
	ocrSem  *semaphore.Weighted

	// Injection points for tests.
	extractFn func(pdf []byte) pdftext.Result
	now       func() time.Time
}

// New creates a Pipeline. The scorer rule table is resolved and validated
// once here, not per document.
func New(cfg *config.Config, st store.Store, f fetcher.Fetcher, eng ocr.Engine) (*Pipeline, error) {
	rules, err := scorer.Resolve(cfg.Scorer)
	if err != nil {
		return nil, err
	}

	maxDocs := cfg.Pipeline.MaxConcurrentDocs
	if maxDocs <= 0 {
		maxDocs = 4
	}
	maxOCR := cfg.Pipeline.MaxConcurrentOCR
	if maxOCR <= 0 {
		maxOCR = 1
	}

	return &Pipeline{
		store:     st,
		fetcher:   f,
		engine:    eng,
		rules:     rules,
		maxDocs:   maxDocs,
		ocrSem:    semaphore.NewWeighted(int64(maxOCR)),
		extractFn: pdftext.Extract,
		now:       time.Now,
	}, nil
}

// Process runs the full chain for one document whose bytes are already
// fetched. Extraction failure is data, not an error: an unusable document
// still yields a persisted, flagged record. Returned errors are storage
// failures only.
func (p *Pipeline) Process(ctx context.Context, doc model.DocumentReference, pdf []byte, webMeta map[string]string) (*Result, error) {
	log := zap.L().With(zap.String("doc_id", doc.ID), zap.String("url", doc.URL))

	direct := p.extractFn(pdf)
	method := ocr.ChooseSource(direct)

	res := direct
	if method == model.MethodOCR {
		if err := p.ocrSem.Acquire(ctx, 1); err != nil {
			return nil, eris.Wrap(err, "pipeline: acquire ocr slot")
		}
		res = ocr.Run(ctx, p.engine, pdf)
		p.ocrSem.Release(1)
		log.Info("pipeline: ocr fallback",
			zap.Bool("usable", res.Usable),
			zap.Int("chars", res.Quality.Chars),
		)
	}

	extraction := model.RawExtraction{
		DocID:       doc.ID,
		Text:        res.Text,
		Method:      method,
		Usable:      res.Usable,
		Chars:       res.Quality.Chars,
		ExtractedAt: p.now().UTC(),
	}

	rec := fields.Extract(res.Text, webMeta)
	rec.DocID = doc.ID
	rec.PDFURL = doc.URL

	score := scorer.Score(rec, p.rules, p.now())
	rec.Severity = score.Severity
	rec.PriorityScore = score.Score

	rec.Validation = validate.Record(rec)
	rec.CreatedAt = p.now().UTC()

	isNew, err := p.store.Exists(ctx, doc.ID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: exists check for %s", doc.ID)
	}
	isNew = !isNew

	// Commit only after validation completed in full.
	if err := p.store.SaveExtraction(ctx, extraction); err != nil {
		return nil, err
	}
	if err := p.store.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	log.Info("pipeline: processed document",
		zap.String("facility", rec.FacilityName),
		zap.String("severity", string(rec.Severity)),
		zap.Int("priority", rec.PriorityScore),
		zap.Bool("valid", rec.Validation.Valid),
		zap.Bool("new", isNew),
	)
	return &Result{Record: rec, IsNew: isNew}, nil
}

// ProcessEntries downloads and processes the given index entries
// concurrently. One document's failure never prevents processing of the
// rest; failures are logged and counted, not propagated.
func (p *Pipeline) ProcessEntries(ctx context.Context, entries []scrape.Entry) ([]Result, error) {
	var mu sync.Mutex
	var results []Result
	var failed int

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxDocs)

	for _, entry := range entries {
		g.Go(func() error {
			doc := entry.Reference(p.now().UTC())

			pdf, err := p.fetcher.DownloadBytes(ctx, doc.URL)
			if err != nil {
				zap.L().Warn("pipeline: download failed, skipping document",
					zap.String("url", doc.URL),
					zap.Error(err),
				)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			res, err := p.Process(ctx, doc, pdf, entry.WebMetadata())
			if err != nil {
				zap.L().Error("pipeline: processing failed, skipping document",
					zap.String("doc_id", doc.ID),
					zap.Error(err),
				)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			mu.Lock()
			results = append(results, *res)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, eris.Wrap(err, "pipeline: process entries")
	}

	zap.L().Info("pipeline: run complete",
		zap.Int("processed", len(results)),
		zap.Int("failed", failed),
	)
	return results, nil
}

// NewRecords filters results down to the records the store had never seen,
// in the order they were processed.
func NewRecords(results []Result) []model.EnforcementRecord {
	var out []model.EnforcementRecord
	for _, r := range results {
		if r.IsNew {
			out = append(out, r.Record)
		}
	}
	return out
}
