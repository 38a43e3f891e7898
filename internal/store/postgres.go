package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/lanternhealth/enforcement-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS records (
	doc_id        TEXT PRIMARY KEY,
	pdf_url       TEXT NOT NULL,
	facility_name TEXT NOT NULL DEFAULT '',
	severity      TEXT NOT NULL,
	priority      INTEGER NOT NULL,
	valid         BOOLEAN NOT NULL,
	record        JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS extractions (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	doc_id       TEXT NOT NULL,
	method       TEXT NOT NULL,
	usable       BOOLEAN NOT NULL,
	chars        INTEGER NOT NULL,
	text         TEXT NOT NULL,
	extracted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS checkpoints (
	name       TEXT PRIMARY KEY,
	checked_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_priority ON records(priority);
CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);
CREATE INDEX IF NOT EXISTS idx_extractions_doc_id ON extractions(doc_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, docID string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM records WHERE doc_id = $1`, docID,
	).Scan(&one)
	if eris.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "postgres: exists %s", docID)
	}
	return true, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, rec model.EnforcementRecord) error {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal record")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO records (doc_id, pdf_url, facility_name, severity, priority, valid, record, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (doc_id) DO UPDATE SET
			pdf_url = EXCLUDED.pdf_url,
			facility_name = EXCLUDED.facility_name,
			severity = EXCLUDED.severity,
			priority = EXCLUDED.priority,
			valid = EXCLUDED.valid,
			record = EXCLUDED.record`,
		rec.DocID, rec.PDFURL, rec.FacilityName, string(rec.Severity),
		rec.PriorityScore, rec.Validation.Valid, string(recJSON), rec.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: upsert record %s", rec.DocID)
}

func (s *PostgresStore) Get(ctx context.Context, docID string) (*model.EnforcementRecord, error) {
	var recJSON string
	err := s.pool.QueryRow(ctx,
		`SELECT record FROM records WHERE doc_id = $1`, docID,
	).Scan(&recJSON)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", docID)
	}
	return unmarshalRecord(recJSON)
}

func (s *PostgresStore) ListRecent(ctx context.Context, since time.Time) ([]model.EnforcementRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM records WHERE created_at >= $1 ORDER BY created_at DESC`,
		since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recent")
	}
	defer rows.Close()
	return collectPgxRecords(rows)
}

func (s *PostgresStore) ListHighPriority(ctx context.Context, minScore int) ([]model.EnforcementRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT record FROM records WHERE priority >= $1 ORDER BY priority DESC, created_at DESC`,
		minScore,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list high priority")
	}
	defer rows.Close()
	return collectPgxRecords(rows)
}

func (s *PostgresStore) SaveExtraction(ctx context.Context, ex model.RawExtraction) error {
	if ex.ID == "" {
		ex.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO extractions (id, doc_id, method, usable, chars, text, extracted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ex.ID, ex.DocID, string(ex.Method), ex.Usable, ex.Chars, ex.Text, ex.ExtractedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: save extraction for %s", ex.DocID)
}

func (s *PostgresStore) ListExtractions(ctx context.Context, docID string) ([]model.RawExtraction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, doc_id, method, usable, chars, text, extracted_at
		 FROM extractions WHERE doc_id = $1 ORDER BY extracted_at`,
		docID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list extractions for %s", docID)
	}
	defer rows.Close()

	var out []model.RawExtraction
	for rows.Next() {
		var ex model.RawExtraction
		var method string
		if err := rows.Scan(&ex.ID, &ex.DocID, &method, &ex.Usable, &ex.Chars, &ex.Text, &ex.ExtractedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan extraction")
		}
		ex.Method = model.ExtractionMethod(method)
		out = append(out, ex)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate extractions")
}

func (s *PostgresStore) GetLastCheck(ctx context.Context) (*time.Time, error) {
	var t time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT checked_at FROM checkpoints WHERE name = 'watch'`,
	).Scan(&t)
	if eris.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get last check")
	}
	return &t, nil
}

func (s *PostgresStore) SetLastCheck(ctx context.Context, t time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO checkpoints (name, checked_at) VALUES ('watch', $1)
		 ON CONFLICT (name) DO UPDATE SET checked_at = EXCLUDED.checked_at`,
		t.UTC(),
	)
	return eris.Wrap(err, "postgres: set last check")
}

func collectPgxRecords(rows pgx.Rows) ([]model.EnforcementRecord, error) {
	var out []model.EnforcementRecord
	for rows.Next() {
		var recJSON string
		if err := rows.Scan(&recJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		rec, err := unmarshalRecord(recJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate records")
}
