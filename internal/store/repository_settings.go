package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
)

const settingsTable = "sync_settings"

type settingsRepository struct {
	db dbtx
}

// NewSettingsRepository returns a [SettingsRepository] running on db.
func NewSettingsRepository(db dbtx) SettingsRepository {
	return &settingsRepository{db: db}
}

// GetTime returns the timestamp stored under key. ok is false when the key
// was never set.
func (s *settingsRepository) GetTime(ctx context.Context, key string) (time.Time, bool, error) {
	query, args, err := sq.Select("time_value").From(settingsTable).Where(sq.Eq{"name": key}).ToSql()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "settingsRepository.GetTime").
			Str("key", key).
			Msg("failed to query setting")
		return time.Time{}, false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		return time.Time{}, false, nil
	}

	var value string
	if err := rows.Scan(&value); err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	t, err := parseStoreTime(value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %s: %w", ErrScanningRow, key, err)
	}
	return t, true, nil
}

func (s *settingsRepository) SetTime(ctx context.Context, key string, t time.Time) error {
	query, args, err := sq.Insert(settingsTable).
		Columns("name", "time_value").
		Values(key, formatStoreTime(t)).
		Suffix("ON CONFLICT(name) DO UPDATE SET time_value = excluded.time_value").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "settingsRepository.SetTime").
			Str("key", key).
			Msg("failed to store setting")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (s *settingsRepository) Delete(ctx context.Context, key string) error {
	query, args, err := sq.Delete(settingsTable).Where(sq.Eq{"name": key}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}
