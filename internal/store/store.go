// Package store persists enforcement records and raw extractions. The store
// owns deduplication: records are keyed by document identifier, and the
// pipeline asks Exists before signaling a record as new.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/lanternhealth/enforcement-cli/internal/config"
	"github.com/lanternhealth/enforcement-cli/internal/model"
)

// Store defines the persistence interface for the enforcement pipeline.
type Store interface {
	// Records
	Exists(ctx context.Context, docID string) (bool, error)
	Upsert(ctx context.Context, rec model.EnforcementRecord) error
	Get(ctx context.Context, docID string) (*model.EnforcementRecord, error)
	ListRecent(ctx context.Context, since time.Time) ([]model.EnforcementRecord, error)
	ListHighPriority(ctx context.Context, minScore int) ([]model.EnforcementRecord, error)

	// Extraction audit trail. Each pipeline pass appends a new extraction;
	// nothing here is ever overwritten.
	SaveExtraction(ctx context.Context, ex model.RawExtraction) error
	ListExtractions(ctx context.Context, docID string) ([]model.RawExtraction, error)

	// Watch-loop checkpoint.
	GetLastCheck(ctx context.Context) (*time.Time, error)
	SetLastCheck(ctx context.Context, t time.Time) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New creates a Store for the configured driver.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
