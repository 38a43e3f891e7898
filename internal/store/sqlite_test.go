package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanternhealth/enforcement-cli/internal/config"
	"github.com/lanternhealth/enforcement-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testRecord(docID string, priority int) model.EnforcementRecord {
	return model.EnforcementRecord{
		DocID:         docID,
		PDFURL:        "https://www.nj.gov/health/enforcement/" + docID + ".pdf",
		FacilityName:  "Sunrise Care Center",
		ActionType:    "Curtailment",
		Severity:      model.SeverityMedium,
		PriorityScore: priority,
		Validation:    model.Validation{Valid: true},
		CreatedAt:     time.Now().UTC(),
	}
}

func TestSQLite_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	rec := testRecord("a1b2c3d4e5f60718", 45)
	require.NoError(t, st.Upsert(ctx, rec))

	got, err := st.Get(ctx, rec.DocID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec.FacilityName, got.FacilityName)
	assert.Equal(t, rec.PriorityScore, got.PriorityScore)
	assert.Equal(t, rec.Severity, got.Severity)
}

func TestSQLite_GetMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_ExistsDedup(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	ok, err := st.Exists(ctx, "doc-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Upsert(ctx, testRecord("doc-1", 10)))

	ok, err = st.Exists(ctx, "doc-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLite_UpsertOverwrites(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, testRecord("doc-2", 10)))

	updated := testRecord("doc-2", 80)
	updated.Severity = model.SeverityHigh
	require.NoError(t, st.Upsert(ctx, updated))

	got, err := st.Get(ctx, "doc-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 80, got.PriorityScore)
	assert.Equal(t, model.SeverityHigh, got.Severity)
}

func TestSQLite_ListHighPriority(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.Upsert(ctx, testRecord("low", 20)))
	require.NoError(t, st.Upsert(ctx, testRecord("mid", 55)))
	require.NoError(t, st.Upsert(ctx, testRecord("high", 90)))

	recs, err := st.ListHighPriority(ctx, 50)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "high", recs[0].DocID)
	assert.Equal(t, "mid", recs[1].DocID)
}

func TestSQLite_ListRecent(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	old := testRecord("old", 10)
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -30)
	require.NoError(t, st.Upsert(ctx, old))
	require.NoError(t, st.Upsert(ctx, testRecord("new", 10)))

	recs, err := st.ListRecent(ctx, time.Now().UTC().AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "new", recs[0].DocID)
}

func TestSQLite_ExtractionsAppend(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.SaveExtraction(ctx, model.RawExtraction{
		DocID: "doc-3", Method: model.MethodDirect, Usable: false, Chars: 12,
		Text: "short", ExtractedAt: now,
	}))
	require.NoError(t, st.SaveExtraction(ctx, model.RawExtraction{
		DocID: "doc-3", Method: model.MethodOCR, Usable: true, Chars: 400,
		Text: "recognized text", ExtractedAt: now.Add(time.Second),
	}))

	exs, err := st.ListExtractions(ctx, "doc-3")
	require.NoError(t, err)
	require.Len(t, exs, 2)
	assert.Equal(t, model.MethodDirect, exs[0].Method)
	assert.Equal(t, model.MethodOCR, exs[1].Method)
	assert.True(t, exs[1].Usable)
	assert.NotEmpty(t, exs[0].ID)
}

func TestSQLite_Checkpoint(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	got, err := st.GetLastCheck(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	first := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, st.SetLastCheck(ctx, first))
	require.NoError(t, st.SetLastCheck(ctx, first.Add(5*time.Hour)))

	got, err = st.GetLastCheck(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Equal(first.Add(5*time.Hour)))
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.StoreConfig{Driver: "dynamodb"})
	assert.Error(t, err)
}
