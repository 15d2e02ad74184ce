package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/models"
)

const recordsTable = "records"

var recordColumns = []string{
	"entity_type",
	"sync_id",
	"created_at",
	"last_modified",
	"is_deleted",
	"fields",
	"relations",
	"remote_modified",
}

type recordRepository struct {
	db dbtx
}

// NewRecordRepository returns a [RecordRepository] running on db.
func NewRecordRepository(db dbtx) RecordRepository {
	return &recordRepository{db: db}
}

func keyCondition(key models.RecordKey) sq.And {
	return sq.And{
		sq.Eq{"entity_type": string(key.EntityType)},
		sq.Eq{"sync_id": key.SyncID},
	}
}

func (r *recordRepository) Fetch(ctx context.Context, key models.RecordKey) (*models.Record, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select(recordColumns...).From(recordsTable).Where(keyCondition(key)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Fetch").
			Str("sync_id", key.SyncID).
			Str("entity_type", key.EntityType.String()).
			Msg("failed to query record")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		return nil, ErrRecordNotFound
	}

	rec, err := scanRecord(rows)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.Fetch").
			Str("sync_id", key.SyncID).
			Msg("failed to scan record row")
		return nil, err
	}

	return rec, nil
}

func (r *recordRepository) FetchAll(ctx context.Context, filter RecordFilter) ([]*models.Record, error) {
	log := logger.FromContext(ctx)

	query, args, err := applyRecordFilter(sq.Select(recordColumns...).From(recordsTable), filter).
		OrderBy("created_at", "entity_type", "sync_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "recordRepository.FetchAll").Msg("failed to query records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			log.Err(err).Str("func", "recordRepository.FetchAll").Msg("failed to scan record row")
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "recordRepository.FetchAll").Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return records, nil
}

func (r *recordRepository) Count(ctx context.Context, filter RecordFilter) (int, error) {
	query, args, err := applyRecordFilter(sq.Select("COUNT(*)").From(recordsTable), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	count, err := queryCount(ctx, r.db, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "recordRepository.Count").Msg("failed to count records")
		return 0, err
	}
	return count, nil
}

func (r *recordRepository) Save(ctx context.Context, record *models.Record) error {
	log := logger.FromContext(ctx)

	if record == nil || record.SyncID == "" || !record.EntityType.Valid() {
		return ErrInvalidRecord
	}

	fields, err := json.Marshal(nonNilFields(record.Fields))
	if err != nil {
		return fmt.Errorf("%w: fields: %w", ErrInvalidRecord, err)
	}
	relations, err := json.Marshal(nonNilRelations(record.Relations))
	if err != nil {
		return fmt.Errorf("%w: relations: %w", ErrInvalidRecord, err)
	}

	query, args, err := sq.Insert(recordsTable).
		Columns(recordColumns...).
		Values(
			string(record.EntityType),
			record.SyncID,
			formatStoreTime(record.CreatedAt),
			formatStoreTime(record.LastModified),
			record.IsDeleted,
			string(fields),
			string(relations),
			formatRemoteModified(record.RemoteModified),
		).
		Suffix(`ON CONFLICT(entity_type, sync_id) DO UPDATE SET
			created_at = excluded.created_at,
			last_modified = excluded.last_modified,
			is_deleted = excluded.is_deleted,
			fields = excluded.fields,
			relations = excluded.relations,
			remote_modified = CASE WHEN excluded.remote_modified <> ''
				THEN excluded.remote_modified ELSE records.remote_modified END`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "recordRepository.Save").
			Str("sync_id", record.SyncID).
			Str("entity_type", record.EntityType.String()).
			Msg("failed to upsert record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (r *recordRepository) SetRemoteModified(ctx context.Context, key models.RecordKey, modified time.Time) error {
	query, args, err := sq.Update(recordsTable).
		Set("remote_modified", formatRemoteModified(modified)).
		Where(keyCondition(key)).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "recordRepository.SetRemoteModified").
			Str("sync_id", key.SyncID).
			Msg("failed to update remote modified time")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (r *recordRepository) Delete(ctx context.Context, key models.RecordKey) error {
	query, args, err := sq.Delete(recordsTable).Where(keyCondition(key)).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "recordRepository.Delete").
			Str("sync_id", key.SyncID).
			Msg("failed to delete record")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func applyRecordFilter(b sq.SelectBuilder, filter RecordFilter) sq.SelectBuilder {
	if len(filter.EntityTypes) > 0 {
		types := make([]string, 0, len(filter.EntityTypes))
		for _, t := range filter.EntityTypes {
			types = append(types, string(t))
		}
		b = b.Where(sq.Eq{"entity_type": types})
	}
	if !filter.IncludeDeleted {
		b = b.Where(sq.Eq{"is_deleted": false})
	}
	return b
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		entityType, syncID      string
		createdAt, lastModified string
		isDeleted               bool
		fields, relations       string
		remoteModified          string
	)

	if err := row.Scan(&entityType, &syncID, &createdAt, &lastModified, &isDeleted, &fields, &relations, &remoteModified); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	rec := &models.Record{
		SyncID:     syncID,
		EntityType: models.EntityType(entityType),
		IsDeleted:  isDeleted,
		Fields:     make(map[string]json.RawMessage),
		Relations:  make(map[string]*string),
	}

	var err error
	if rec.CreatedAt, err = parseStoreTime(createdAt); err != nil {
		return nil, fmt.Errorf("%w: created_at: %w", ErrScanningRow, err)
	}
	if rec.LastModified, err = parseStoreTime(lastModified); err != nil {
		return nil, fmt.Errorf("%w: last_modified: %w", ErrScanningRow, err)
	}
	if remoteModified != "" {
		if rec.RemoteModified, err = parseStoreTime(remoteModified); err != nil {
			return nil, fmt.Errorf("%w: remote_modified: %w", ErrScanningRow, err)
		}
	}
	if err = json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
		return nil, fmt.Errorf("%w: fields: %w", ErrScanningRow, err)
	}
	if err = json.Unmarshal([]byte(relations), &rec.Relations); err != nil {
		return nil, fmt.Errorf("%w: relations: %w", ErrScanningRow, err)
	}

	return rec, nil
}

func queryCount(ctx context.Context, db dbtx, query string, args ...any) (int, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return count, nil
}

func nonNilFields(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return map[string]json.RawMessage{}
	}
	return m
}

func nonNilRelations(m map[string]*string) map[string]*string {
	if m == nil {
		return map[string]*string{}
	}
	return m
}
