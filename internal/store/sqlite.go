package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/lanternhealth/enforcement-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS records (
	doc_id        TEXT PRIMARY KEY,
	pdf_url       TEXT NOT NULL,
	facility_name TEXT NOT NULL DEFAULT '',
	severity      TEXT NOT NULL,
	priority      INTEGER NOT NULL,
	valid         INTEGER NOT NULL,
	record        TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS extractions (
	id           TEXT PRIMARY KEY,
	doc_id       TEXT NOT NULL,
	method       TEXT NOT NULL,
	usable       INTEGER NOT NULL,
	chars        INTEGER NOT NULL,
	text         TEXT NOT NULL,
	extracted_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS checkpoints (
	name       TEXT PRIMARY KEY,
	checked_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_priority ON records(priority);
CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);
CREATE INDEX IF NOT EXISTS idx_extractions_doc_id ON extractions(doc_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Exists(ctx context.Context, docID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM records WHERE doc_id = ?`, docID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: exists %s", docID)
	}
	return true, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, rec model.EnforcementRecord) error {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal record")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (doc_id, pdf_url, facility_name, severity, priority, valid, record, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(doc_id) DO UPDATE SET
			pdf_url = excluded.pdf_url,
			facility_name = excluded.facility_name,
			severity = excluded.severity,
			priority = excluded.priority,
			valid = excluded.valid,
			record = excluded.record`,
		rec.DocID, rec.PDFURL, rec.FacilityName, string(rec.Severity),
		rec.PriorityScore, rec.Validation.Valid, string(recJSON), rec.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert record %s", rec.DocID)
}

func (s *SQLiteStore) Get(ctx context.Context, docID string) (*model.EnforcementRecord, error) {
	var recJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM records WHERE doc_id = ?`, docID,
	).Scan(&recJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get record %s", docID)
	}
	return unmarshalRecord(recJSON)
}

func (s *SQLiteStore) ListRecent(ctx context.Context, since time.Time) ([]model.EnforcementRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM records WHERE created_at >= ? ORDER BY created_at DESC`,
		since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recent")
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *SQLiteStore) ListHighPriority(ctx context.Context, minScore int) ([]model.EnforcementRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record FROM records WHERE priority >= ? ORDER BY priority DESC, created_at DESC`,
		minScore,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list high priority")
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *SQLiteStore) SaveExtraction(ctx context.Context, ex model.RawExtraction) error {
	if ex.ID == "" {
		ex.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (id, doc_id, method, usable, chars, text, extracted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.DocID, string(ex.Method), ex.Usable, ex.Chars, ex.Text, ex.ExtractedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: save extraction for %s", ex.DocID)
}

func (s *SQLiteStore) ListExtractions(ctx context.Context, docID string) ([]model.RawExtraction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc_id, method, usable, chars, text, extracted_at
		 FROM extractions WHERE doc_id = ? ORDER BY extracted_at`,
		docID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list extractions for %s", docID)
	}
	defer rows.Close()

	var out []model.RawExtraction
	for rows.Next() {
		var ex model.RawExtraction
		var method string
		if err := rows.Scan(&ex.ID, &ex.DocID, &method, &ex.Usable, &ex.Chars, &ex.Text, &ex.ExtractedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan extraction")
		}
		ex.Method = model.ExtractionMethod(method)
		out = append(out, ex)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate extractions")
}

func (s *SQLiteStore) GetLastCheck(ctx context.Context) (*time.Time, error) {
	var t time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT checked_at FROM checkpoints WHERE name = 'watch'`,
	).Scan(&t)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get last check")
	}
	return &t, nil
}

func (s *SQLiteStore) SetLastCheck(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkpoints (name, checked_at) VALUES ('watch', ?)
		 ON CONFLICT(name) DO UPDATE SET checked_at = excluded.checked_at`,
		t.UTC(),
	)
	return eris.Wrap(err, "sqlite: set last check")
}

// helpers

func unmarshalRecord(recJSON string) (*model.EnforcementRecord, error) {
	var rec model.EnforcementRecord
	if err := json.Unmarshal([]byte(recJSON), &rec); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal record")
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]model.EnforcementRecord, error) {
	var out []model.EnforcementRecord
	for rows.Next() {
		var recJSON string
		if err := rows.Scan(&recJSON); err != nil {
			return nil, eris.Wrap(err, "store: scan record")
		}
		rec, err := unmarshalRecord(recJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate records")
}
