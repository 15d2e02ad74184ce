package store

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/models"
)

const historyTable = "sync_history"

var historyColumns = []string{
	"id",
	"recorded_at",
	"sync_action",
	"sync_result",
	"uploaded_count",
	"downloaded_count",
	"duration_ms",
	"error_code",
	"error_message",
}

type historyRepository struct {
	db dbtx
}

// NewHistoryRepository returns a [HistoryRepository] running on db.
func NewHistoryRepository(db dbtx) HistoryRepository {
	return &historyRepository{db: db}
}

func (h *historyRepository) Append(ctx context.Context, entry models.SyncHistoryEntry, limit int) error {
	log := logger.FromContext(ctx)

	query, args, err := sq.Insert(historyTable).
		Columns(historyColumns...).
		Values(
			entry.ID,
			formatStoreTime(entry.Timestamp),
			string(entry.Action),
			string(entry.Result),
			entry.UploadedCount,
			entry.DownloadedCount,
			entry.DurationMs,
			nullString(entry.ErrorCode),
			nullString(entry.ErrorMessage),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = h.db.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "historyRepository.Append").
			Str("history_id", entry.ID).
			Msg("failed to insert history entry")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if limit <= 0 {
		return nil
	}

	keep := sq.Select("seq").From(historyTable).OrderBy("seq DESC").Limit(uint64(limit))
	keepSQL, keepArgs, err := keep.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	trimSQL, trimArgs, err := sq.Delete(historyTable).
		Where(sq.Expr("seq NOT IN ("+keepSQL+")", keepArgs...)).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = h.db.ExecContext(ctx, trimSQL, trimArgs...); err != nil {
		log.Err(err).
			Str("func", "historyRepository.Append").
			Int("limit", limit).
			Msg("failed to trim history")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return nil
}

func (h *historyRepository) Recent(ctx context.Context, limit int) ([]models.SyncHistoryEntry, error) {
	log := logger.FromContext(ctx)

	b := sq.Select(historyColumns...).From(historyTable).OrderBy("seq DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "historyRepository.Recent").Msg("failed to query history")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var entries []models.SyncHistoryEntry
	for rows.Next() {
		var (
			e               models.SyncHistoryEntry
			ts, action, res string
			errCode, errMsg sql.NullString
		)
		if err := rows.Scan(&e.ID, &ts, &action, &res, &e.UploadedCount, &e.DownloadedCount, &e.DurationMs, &errCode, &errMsg); err != nil {
			log.Err(err).Str("func", "historyRepository.Recent").Msg("failed to scan history row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		if e.Timestamp, err = parseStoreTime(ts); err != nil {
			return nil, fmt.Errorf("%w: recorded_at: %w", ErrScanningRow, err)
		}
		e.Action = models.SyncAction(action)
		e.Result = models.SyncResult(res)
		if errCode.Valid {
			e.ErrorCode = &errCode.String
		}
		if errMsg.Valid {
			e.ErrorMessage = &errMsg.String
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		log.Err(err).Str("func", "historyRepository.Recent").Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return entries, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
