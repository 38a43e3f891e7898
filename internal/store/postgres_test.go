package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanternhealth/enforcement-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgres_ExistsNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT 1 FROM records WHERE doc_id = \$1`).
		WithArgs("missing-doc").
		WillReturnError(pgx.ErrNoRows)

	ok, err := s.Exists(context.Background(), "missing-doc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ExistsFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT 1 FROM records WHERE doc_id = \$1`).
		WithArgs("known-doc").
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))

	ok, err := s.Exists(context.Background(), "known-doc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpsertOnConflict(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \(doc_id\) DO UPDATE`).
		WithArgs("doc-1", pgxmock.AnyArg(), "Sunrise Care Center", "MEDIUM",
			45, true, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.Upsert(context.Background(), testRecord("doc-1", 45))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT record FROM records WHERE doc_id = \$1`).
		WithArgs("missing-doc").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.Get(context.Background(), "missing-doc")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListHighPriority(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT record FROM records WHERE priority >= \$1`).
		WithArgs(70).
		WillReturnRows(pgxmock.NewRows([]string{"record"}).
			AddRow(`{"doc_id":"doc-1","priority_score":90,"severity_level":"HIGH"}`))

	recs, err := s.ListHighPriority(context.Background(), 70)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "doc-1", recs[0].DocID)
	assert.Equal(t, model.SeverityHigh, recs[0].Severity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_SaveExtractionGeneratesID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO extractions`).
		WithArgs(pgxmock.AnyArg(), "doc-2", "ocr", true, 400,
			"recognized text", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveExtraction(context.Background(), model.RawExtraction{
		DocID: "doc-2", Method: model.MethodOCR, Usable: true, Chars: 400,
		Text: "recognized text", ExtractedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Checkpoint(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT checked_at FROM checkpoints`).
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetLastCheck(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)

	mock.ExpectExec(`INSERT INTO checkpoints`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SetLastCheck(context.Background(), time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
