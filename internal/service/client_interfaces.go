package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-protocol-sync/internal/store"
	"github.com/MKhiriev/go-protocol-sync/models"
)

// SyncOrchestrator drives the sync state machine. None of its methods return
// an error: every failure is reported through Status and the sync history.
type SyncOrchestrator interface {
	// TriggerSync starts a sync attempt in the background unless a guard
	// refuses it. Safe to call repeatedly; concurrent triggers are dropped.
	TriggerSync(ctx context.Context, trigger models.SyncTrigger)

	// ForceSync resets the foreground throttle and triggers a sync.
	ForceSync(ctx context.Context)

	// ResolveConflict answers a pending device conflict. It is ignored
	// unless the orchestrator is awaiting a decision.
	ResolveConflict(ctx context.Context, decision models.ConflictDecision)

	// Status returns the current state.
	Status() models.SyncStatus

	// Subscribe returns a channel receiving every status change and a
	// function that unsubscribes and closes it.
	Subscribe() (<-chan models.SyncStatus, func())

	// Wait blocks until background attempts started so far have finished.
	Wait()
}

// PendingChangeQueue is the durable, deduplicated upload queue.
type PendingChangeQueue interface {
	// Enqueue adds r or, if it is already queued, moves it to the back of
	// its priority tier.
	Enqueue(ctx context.Context, r *models.Record) error

	// DequeueAll returns every queued item in upload order without removing
	// them.
	DequeueAll(ctx context.Context) ([]models.PendingChangeItem, error)

	// Remove drops item after a successful upload.
	Remove(ctx context.Context, item models.PendingChangeItem) error

	// Clear drops every item.
	Clear(ctx context.Context) error

	// EnqueueAllExisting queues every local record, including soft-deleted
	// ones, and returns how many were queued. It stops between batches when
	// ctx is done; batches already queued stay queued.
	EnqueueAllExisting(ctx context.Context, records store.RecordRepository) (int, error)
}

// SyncHistory is the rolling log of sync attempts.
type SyncHistory interface {
	// Append stores entry, filling its ID and Timestamp when empty, and
	// drops the oldest entries beyond the configured limit.
	Append(ctx context.Context, entry models.SyncHistoryEntry) error

	// Recent returns up to limit entries, newest first. A non-positive limit
	// returns the whole window.
	Recent(ctx context.Context, limit int) ([]models.SyncHistoryEntry, error)
}

// RecordService is the interactive entry point for local mutations. Every
// mutation is saved together with its pending change.
type RecordService interface {
	// Put creates or replaces a record and stamps its modification time.
	Put(ctx context.Context, r *models.Record) error

	// Get returns a single record, including soft-deleted ones.
	Get(ctx context.Context, key models.RecordKey) (*models.Record, error)

	// List returns the records matching filter.
	List(ctx context.Context, filter store.RecordFilter) ([]*models.Record, error)

	// Delete soft-deletes a record.
	Delete(ctx context.Context, key models.RecordKey) error

	// Purge erases a record locally. The next sync uploads a tombstone.
	Purge(ctx context.Context, key models.RecordKey) error
}

// SyncJob triggers background syncs on a ticker.
type SyncJob interface {
	// Start stops any running job and starts a new one. A non-positive
	// interval falls back to the default.
	Start(ctx context.Context, interval time.Duration)

	// Stop cancels the job and waits for it to exit.
	Stop()

	// Run starts the job and blocks until ctx is done.
	Run(ctx context.Context) error
}

// DeviceIdentity describes the device running this process.
type DeviceIdentity interface {
	CurrentDeviceID(ctx context.Context) (string, error)
	Descriptor(ctx context.Context) (models.DeviceDescriptor, error)
}
