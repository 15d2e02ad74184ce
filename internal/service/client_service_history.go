package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-protocol-sync/internal/store"
	"github.com/MKhiriev/go-protocol-sync/internal/utils"
	"github.com/MKhiriev/go-protocol-sync/models"
)

const defaultHistoryLimit = 100

type syncHistory struct {
	repo  store.HistoryRepository
	limit int
	uuid  *utils.UUIDGenerator
	now   func() time.Time
}

// NewSyncHistory returns a history over repo keeping at most limit entries.
func NewSyncHistory(repo store.HistoryRepository, limit int) SyncHistory {
	return newSyncHistory(repo, limit, time.Now)
}

func newSyncHistory(repo store.HistoryRepository, limit int, now func() time.Time) *syncHistory {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &syncHistory{repo: repo, limit: limit, uuid: utils.NewUUIDGenerator(), now: now}
}

func (h *syncHistory) Append(ctx context.Context, entry models.SyncHistoryEntry) error {
	if entry.ID == "" {
		entry.ID = h.uuid.Generate()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = h.now().UTC()
	}

	if err := h.repo.Append(ctx, entry, h.limit); err != nil {
		return fmt.Errorf("append sync history: %w", err)
	}
	return nil
}

func (h *syncHistory) Recent(ctx context.Context, limit int) ([]models.SyncHistoryEntry, error) {
	if limit <= 0 || limit > h.limit {
		limit = h.limit
	}

	entries, err := h.repo.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("read sync history: %w", err)
	}
	return entries, nil
}

// newHistoryEntry builds the entry of a finished attempt. A non-nil err
// turns it into a failure carrying the diagnostic code and message.
func newHistoryEntry(action models.SyncAction, started, finished time.Time, downloaded, uploaded int, err error) models.SyncHistoryEntry {
	entry := models.SyncHistoryEntry{
		Timestamp:       finished.UTC(),
		Action:          action,
		Result:          models.ResultSuccess,
		UploadedCount:   uploaded,
		DownloadedCount: downloaded,
		DurationMs:      finished.Sub(started).Milliseconds(),
	}

	if err != nil {
		code := historyErrorCode(err)
		msg := err.Error()
		entry.Result = models.ResultFailure
		if code == models.ErrCodeCancelled {
			entry.Result = models.ResultCancelled
		}
		entry.ErrorCode = &code
		entry.ErrorMessage = &msg
	}
	return entry
}
