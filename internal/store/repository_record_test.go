package store

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-protocol-sync/models"
)

// ── SQLite ───────────────────────────────────────────────────────────────────

func TestRecordRepository_SaveAndFetch(t *testing.T) {
	ctx := testContext()
	s := newTestStorages(t)

	rec := newTestRecord(models.EntityStep, "step-1")
	rec.Relations["protocolID"] = strPtr("proto-1")
	require.NoError(t, s.Records.Save(ctx, rec))

	got, err := s.Records.Fetch(ctx, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, rec.SyncID, got.SyncID)
	assert.Equal(t, rec.EntityType, got.EntityType)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, rec.LastModified.Equal(got.LastModified))
	assert.False(t, got.IsDeleted)
	assert.JSONEq(t, `"Morning routine"`, string(got.Fields["title"]))
	require.NotNil(t, got.Relations["protocolID"])
	assert.Equal(t, "proto-1", *got.Relations["protocolID"])
}

func TestRecordRepository_SaveOverwrites(t *testing.T) {
	ctx := testContext()
	s := newTestStorages(t)

	rec := newTestRecord(models.EntityNote, "note-1")
	require.NoError(t, s.Records.Save(ctx, rec))

	rec.Fields["title"] = json.RawMessage(`"Evening"`)
	rec.IsDeleted = true
	rec.LastModified = rec.LastModified.Add(time.Hour)
	require.NoError(t, s.Records.Save(ctx, rec))

	got, err := s.Records.Fetch(ctx, rec.Key())
	require.NoError(t, err)
	assert.JSONEq(t, `"Evening"`, string(got.Fields["title"]))
	assert.True(t, got.IsDeleted)
	assert.True(t, rec.LastModified.Equal(got.LastModified))

	count, err := s.Records.Count(ctx, RecordFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordRepository_SameSyncIDDifferentType(t *testing.T) {
	ctx := testContext()
	s := newTestStorages(t)

	require.NoError(t, s.Records.Save(ctx, newTestRecord(models.EntityNote, "shared")))
	require.NoError(t, s.Records.Save(ctx, newTestRecord(models.EntityStep, "shared")))

	count, err := s.Records.Count(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRecordRepository_FetchAllFilter(t *testing.T) {
	ctx := testContext()
	s := newTestStorages(t)

	require.NoError(t, s.Records.Save(ctx, newTestRecord(models.EntityProtocol, "p1")))
	require.NoError(t, s.Records.Save(ctx, newTestRecord(models.EntityStep, "s1")))
	deleted := newTestRecord(models.EntityStep, "s2")
	deleted.IsDeleted = true
	require.NoError(t, s.Records.Save(ctx, deleted))

	live, err := s.Records.FetchAll(ctx, RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, live, 2)

	all, err := s.Records.FetchAll(ctx, RecordFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	steps, err := s.Records.FetchAll(ctx, RecordFilter{EntityTypes: []models.EntityType{models.EntityStep}, IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, steps, 2)
	for _, r := range steps {
		assert.Equal(t, models.EntityStep, r.EntityType)
	}

	count, err := s.Records.Count(ctx, RecordFilter{EntityTypes: []models.EntityType{models.EntityStep}})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecordRepository_FetchMissing(t *testing.T) {
	s := newTestStorages(t)

	_, err := s.Records.Fetch(testContext(), models.RecordKey{SyncID: "nope", EntityType: models.EntityNote})
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRecordRepository_Delete(t *testing.T) {
	ctx := testContext()
	s := newTestStorages(t)
	rec := newTestRecord(models.EntityNote, "n1")
	require.NoError(t, s.Records.Save(ctx, rec))

	require.NoError(t, s.Records.Delete(ctx, rec.Key()))
	_, err := s.Records.Fetch(ctx, rec.Key())
	assert.ErrorIs(t, err, ErrRecordNotFound)

	assert.ErrorIs(t, s.Records.Delete(ctx, rec.Key()), ErrRecordNotFound)
}

func TestRecordRepository_SaveInvalid(t *testing.T) {
	s := newTestStorages(t)
	ctx := testContext()

	assert.ErrorIs(t, s.Records.Save(ctx, nil), ErrInvalidRecord)
	assert.ErrorIs(t, s.Records.Save(ctx, newTestRecord(models.EntityNote, "")), ErrInvalidRecord)
	assert.ErrorIs(t, s.Records.Save(ctx, newTestRecord("Widget", "w1")), ErrInvalidRecord)
}

func TestRecordRepository_RemoteModified(t *testing.T) {
	ctx := testContext()
	s := newTestStorages(t)

	rec := newTestRecord(models.EntityNote, "note-1")
	require.NoError(t, s.Records.Save(ctx, rec))

	got, err := s.Records.Fetch(ctx, rec.Key())
	require.NoError(t, err)
	assert.True(t, got.RemoteModified.IsZero(), "never synced")

	uploaded := testEpoch.Add(2 * time.Hour)
	require.NoError(t, s.Records.SetRemoteModified(ctx, rec.Key(), uploaded))

	// a local edit saves with a zero watermark and keeps the stored one
	rec.Fields["title"] = json.RawMessage(`"Evening"`)
	require.NoError(t, s.Records.Save(ctx, rec))

	got, err = s.Records.Fetch(ctx, rec.Key())
	require.NoError(t, err)
	assert.True(t, got.RemoteModified.Equal(uploaded))
	assert.JSONEq(t, `"Evening"`, string(got.Fields["title"]))

	pulled := uploaded.Add(time.Minute)
	got.RemoteModified = pulled
	require.NoError(t, s.Records.Save(ctx, got))

	got, err = s.Records.Fetch(ctx, rec.Key())
	require.NoError(t, err)
	assert.True(t, got.RemoteModified.Equal(pulled))
}

func TestRecordRepository_SetRemoteModified_Missing(t *testing.T) {
	s := newTestStorages(t)
	err := s.Records.SetRemoteModified(testContext(), models.RecordKey{SyncID: "gone", EntityType: models.EntityNote}, testEpoch)
	assert.NoError(t, err)
}

// ── sqlmock error paths ──────────────────────────────────────────────────────

func TestRecordRepository_Save_ExecError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordRepository(db)

	mock.ExpectExec(`INSERT INTO records`).WillReturnError(errors.New("disk I/O error"))

	err := repo.Save(testContext(), newTestRecord(models.EntityNote, "n1"))
	assert.ErrorIs(t, err, ErrExecutingStatement)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_Fetch_QueryError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordRepository(db)

	mock.ExpectQuery(`SELECT .* FROM records WHERE`).
		WithArgs("Note", "n1").
		WillReturnError(errors.New("database is locked"))

	_, err := repo.Fetch(testContext(), models.RecordKey{SyncID: "n1", EntityType: models.EntityNote})
	assert.ErrorIs(t, err, ErrExecutingQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_Fetch_CorruptRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordRepository(db)

	rows := sqlmock.NewRows(recordColumns).
		AddRow("Note", "n1", "not-a-time", "2026-01-01T00:00:00.000000000Z", false, "{}", "{}", "")
	mock.ExpectQuery(`SELECT .* FROM records`).WillReturnRows(rows)

	_, err := repo.Fetch(testContext(), models.RecordKey{SyncID: "n1", EntityType: models.EntityNote})
	assert.ErrorIs(t, err, ErrScanningRow)
}

func TestRecordRepository_FetchAll_RowError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordRepository(db)

	rows := sqlmock.NewRows(recordColumns).
		AddRow("Note", "n1", "2026-01-01T00:00:00Z", "2026-01-01T00:00:00Z", false, "{}", "{}", "").
		RowError(0, errors.New("interrupted"))
	mock.ExpectQuery(`SELECT .* FROM records`).WillReturnRows(rows)

	_, err := repo.FetchAll(testContext(), RecordFilter{})
	assert.ErrorIs(t, err, ErrExecutingQuery)
}
