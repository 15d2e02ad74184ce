package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/MKhiriev/go-protocol-sync/models"
)

// dbtx is the subset of *sql.DB and *sql.Tx used by repositories, so the
// same repository code runs on the shared pool or inside a [Session].
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// RecordFilter narrows FetchAll and Count.
type RecordFilter struct {
	// EntityTypes restricts the result to the listed types. Empty means all.
	EntityTypes []models.EntityType
	// IncludeDeleted also returns soft-deleted records.
	IncludeDeleted bool
}

// RecordRepository stores syncable records keyed by (entity type, sync id).
type RecordRepository interface {
	Fetch(ctx context.Context, key models.RecordKey) (*models.Record, error)
	FetchAll(ctx context.Context, filter RecordFilter) ([]*models.Record, error)
	Count(ctx context.Context, filter RecordFilter) (int, error)
	// Save upserts record. A zero RemoteModified keeps the stored value.
	Save(ctx context.Context, record *models.Record) error
	// SetRemoteModified records the remote modified time of the version
	// last uploaded for key. A missing record is not an error.
	SetRemoteModified(ctx context.Context, key models.RecordKey, modified time.Time) error
	Delete(ctx context.Context, key models.RecordKey) error
}

// PendingChangeRepository is the durable backing of the upload queue. It
// holds at most one row per (entity type, sync id).
type PendingChangeRepository interface {
	Upsert(ctx context.Context, item models.PendingChangeItem) error
	// List returns every item ordered by enqueue time.
	List(ctx context.Context) ([]models.PendingChangeItem, error)
	Delete(ctx context.Context, key models.RecordKey) error
	// DeleteItem removes item unless it was re-enqueued since it was listed.
	DeleteItem(ctx context.Context, item models.PendingChangeItem) error
	Clear(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// HistoryRepository keeps a capped log of sync attempts.
type HistoryRepository interface {
	// Append inserts entry and drops the oldest entries beyond limit.
	Append(ctx context.Context, entry models.SyncHistoryEntry, limit int) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]models.SyncHistoryEntry, error)
}

// Keys of [SettingsRepository] values.
const (
	SettingLastSuccessfulSync = "last_successful_sync"
	SettingLastForegroundSync = "last_foreground_sync"
)

// SettingsRepository persists small sync bookkeeping values.
type SettingsRepository interface {
	GetTime(ctx context.Context, key string) (time.Time, bool, error)
	SetTime(ctx context.Context, key string, t time.Time) error
	Delete(ctx context.Context, key string) error
}

// Transaction is the view of the local store handed to background sync work.
// Writes become durable only when Save returns nil.
type Transaction interface {
	Records() RecordRepository
	PendingChanges() PendingChangeRepository
	History() HistoryRepository
	Settings() SettingsRepository

	// Save commits everything written since the previous Save.
	Save(ctx context.Context) error
}
