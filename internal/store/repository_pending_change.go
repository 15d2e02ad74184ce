package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/models"
)

const pendingChangesTable = "pending_changes"

type pendingChangeRepository struct {
	db dbtx
}

// NewPendingChangeRepository returns a [PendingChangeRepository] running on db.
func NewPendingChangeRepository(db dbtx) PendingChangeRepository {
	return &pendingChangeRepository{db: db}
}

// Upsert inserts item or, when the key is already queued, moves it to the
// new enqueue time. A known creation time is never erased by an unknown one.
func (p *pendingChangeRepository) Upsert(ctx context.Context, item models.PendingChangeItem) error {
	var createdAt sql.NullString
	if item.ItemCreatedAt != nil {
		createdAt = sql.NullString{String: formatStoreTime(*item.ItemCreatedAt), Valid: true}
	}

	query, args, err := sq.Insert(pendingChangesTable).
		Columns("entity_type", "sync_id", "item_created_at", "enqueued_at").
		Values(string(item.EntityType), item.SyncID, createdAt, formatStoreTime(item.EnqueuedAt)).
		Suffix(`ON CONFLICT(entity_type, sync_id) DO UPDATE SET
			enqueued_at = excluded.enqueued_at,
			item_created_at = COALESCE(excluded.item_created_at, pending_changes.item_created_at)`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = p.db.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "pendingChangeRepository.Upsert").
			Str("sync_id", item.SyncID).
			Str("entity_type", item.EntityType.String()).
			Msg("failed to upsert pending change")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (p *pendingChangeRepository) List(ctx context.Context) ([]models.PendingChangeItem, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select("entity_type", "sync_id", "item_created_at", "enqueued_at").
		From(pendingChangesTable).
		OrderBy("enqueued_at", "rowid").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "pendingChangeRepository.List").Msg("failed to query pending changes")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var items []models.PendingChangeItem
	for rows.Next() {
		var (
			entityType, syncID, enqueuedAt string
			createdAt                      sql.NullString
		)
		if err := rows.Scan(&entityType, &syncID, &createdAt, &enqueuedAt); err != nil {
			log.Err(err).Str("func", "pendingChangeRepository.List").Msg("failed to scan pending change row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}

		item := models.PendingChangeItem{SyncID: syncID, EntityType: models.EntityType(entityType)}
		if item.EnqueuedAt, err = parseStoreTime(enqueuedAt); err != nil {
			return nil, fmt.Errorf("%w: enqueued_at: %w", ErrScanningRow, err)
		}
		if createdAt.Valid {
			t, err := parseStoreTime(createdAt.String)
			if err != nil {
				return nil, fmt.Errorf("%w: item_created_at: %w", ErrScanningRow, err)
			}
			item.ItemCreatedAt = &t
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "pendingChangeRepository.List").Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return items, nil
}

// Delete removes the item queued under key. Removing an absent key is not an
// error.
func (p *pendingChangeRepository) Delete(ctx context.Context, key models.RecordKey) error {
	query, args, err := sq.Delete(pendingChangesTable).Where(keyCondition(key)).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = p.db.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "pendingChangeRepository.Delete").
			Str("sync_id", key.SyncID).
			Msg("failed to delete pending change")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// DeleteItem removes item only while it is still queued at the same enqueue
// time. An item re-enqueued in the meantime stays queued.
func (p *pendingChangeRepository) DeleteItem(ctx context.Context, item models.PendingChangeItem) error {
	query, args, err := sq.Delete(pendingChangesTable).
		Where(keyCondition(item.Key())).
		Where(sq.Eq{"enqueued_at": formatStoreTime(item.EnqueuedAt)}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = p.db.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "pendingChangeRepository.DeleteItem").
			Str("sync_id", item.SyncID).
			Msg("failed to delete pending change")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (p *pendingChangeRepository) Clear(ctx context.Context) error {
	query, args, err := sq.Delete(pendingChangesTable).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = p.db.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "pendingChangeRepository.Clear").Msg("failed to clear pending changes")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (p *pendingChangeRepository) Count(ctx context.Context) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From(pendingChangesTable).ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return queryCount(ctx, p.db, query, args...)
}
