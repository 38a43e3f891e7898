package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lanternhealth/enforcement-cli/internal/fetcher"
	"github.com/lanternhealth/enforcement-cli/internal/notify"
	"github.com/lanternhealth/enforcement-cli/internal/ocr"
	"github.com/lanternhealth/enforcement-cli/internal/pipeline"
	"github.com/lanternhealth/enforcement-cli/internal/scrape"
	"github.com/lanternhealth/enforcement-cli/internal/store"
)

// env bundles the wired collaborators a command needs.
type env struct {
	store    store.Store
	pipeline *pipeline.Pipeline
	scraper  *scrape.Scraper
	notifier *notify.Notifier
}

// initEnv builds the runtime from the loaded config. The schema migration
// is idempotent, so every command runs against a current schema.
func initEnv(ctx context.Context) (*env, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}

	f := fetcher.NewHTTPFetcher(cfg.Scrape)

	eng, err := ocr.NewEngine(cfg.OCR)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	p, err := pipeline.New(cfg, st, f, eng)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	sc, err := scrape.NewScraper(f, cfg.Scrape)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &env{
		store:    st,
		pipeline: p,
		scraper:  sc,
		notifier: notify.New(cfg.Notify),
	}, nil
}

func (e *env) Close() {
	_ = e.store.Close()
}

// checkOnce runs one monitoring pass: crawl the index, process entries not
// seen since the last check, notify on records the store had never held,
// then advance the checkpoint.
func (e *env) checkOnce(ctx context.Context) error {
	last, err := e.store.GetLastCheck(ctx)
	if err != nil {
		return err
	}

	entries, err := e.scraper.Entries(ctx)
	if err != nil {
		return err
	}
	fresh := scrape.NewSince(entries, last)

	results, err := e.pipeline.ProcessEntries(ctx, fresh)
	if err != nil {
		return err
	}

	newRecs := pipeline.NewRecords(results)
	sent := e.notifier.Send(ctx, newRecs)

	if err := e.store.SetLastCheck(ctx, time.Now().UTC()); err != nil {
		return err
	}

	zap.L().Info("check complete",
		zap.Int("entries", len(entries)),
		zap.Int("fresh", len(fresh)),
		zap.Int("processed", len(results)),
		zap.Int("new", len(newRecs)),
		zap.Int("sinks_notified", sent),
	)
	return nil
}
