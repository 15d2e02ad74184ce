package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/store"
	"github.com/MKhiriev/go-protocol-sync/models"
)

const (
	defaultRecentActivityWindow = 24 * time.Hour
	enqueueBatchSize            = 50
)

type pendingChangeQueue struct {
	repo   store.PendingChangeRepository
	window time.Duration
	now    func() time.Time

	// checkpoint makes a finished batch durable. Nil when repo autocommits.
	checkpoint func(ctx context.Context) error
}

// NewPendingChangeQueue returns a queue over repo. Occurrences created within
// window are uploaded first.
func NewPendingChangeQueue(repo store.PendingChangeRepository, window time.Duration) PendingChangeQueue {
	return newPendingChangeQueue(repo, window, time.Now)
}

// newSessionQueue returns a queue bound to a background transaction. Every
// finished batch of EnqueueAllExisting is saved.
func newSessionQueue(tx store.Transaction, window time.Duration, now func() time.Time) *pendingChangeQueue {
	q := newPendingChangeQueue(tx.PendingChanges(), window, now)
	q.checkpoint = tx.Save
	return q
}

func newPendingChangeQueue(repo store.PendingChangeRepository, window time.Duration, now func() time.Time) *pendingChangeQueue {
	if window <= 0 {
		window = defaultRecentActivityWindow
	}
	return &pendingChangeQueue{repo: repo, window: window, now: now}
}

func (q *pendingChangeQueue) Enqueue(ctx context.Context, r *models.Record) error {
	var createdAt *time.Time
	if !r.CreatedAt.IsZero() {
		created := r.CreatedAt
		createdAt = &created
	}

	item := models.NewPendingChangeItem(r, createdAt, q.now())
	if err := q.repo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("enqueue %s: %w", r.Key().ObjectName(), err)
	}
	return nil
}

func (q *pendingChangeQueue) DequeueAll(ctx context.Context) ([]models.PendingChangeItem, error) {
	items, err := q.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending changes: %w", err)
	}
	return orderPendingItems(items, q.now(), q.window), nil
}

// Remove drops item. A record enqueued again after item was listed keeps its
// newer entry, so an edit made during an upload is not lost.
func (q *pendingChangeQueue) Remove(ctx context.Context, item models.PendingChangeItem) error {
	if err := q.repo.DeleteItem(ctx, item); err != nil {
		return fmt.Errorf("remove %s: %w", item.Key().ObjectName(), err)
	}
	return nil
}

func (q *pendingChangeQueue) Clear(ctx context.Context) error {
	if err := q.repo.Clear(ctx); err != nil {
		return fmt.Errorf("clear pending changes: %w", err)
	}
	return nil
}

func (q *pendingChangeQueue) EnqueueAllExisting(ctx context.Context, records store.RecordRepository) (int, error) {
	log := logger.FromContext(ctx)

	all, err := records.FetchAll(ctx, store.RecordFilter{IncludeDeleted: true})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrLocalRead, err)
	}

	queued := 0
	for start := 0; start < len(all); start += enqueueBatchSize {
		if err = ctx.Err(); err != nil {
			log.Warn().Int("queued", queued).Int("total", len(all)).Msg("queueing every record stopped")
			return queued, err
		}

		end := min(start+enqueueBatchSize, len(all))
		for _, r := range all[start:end] {
			if err = q.Enqueue(ctx, r); err != nil {
				return queued, err
			}
		}

		if q.checkpoint != nil {
			if err = q.checkpoint(ctx); err != nil {
				return queued, fmt.Errorf("%w: %w", models.ErrSaveFailure, err)
			}
		}
		queued = end
	}

	log.Debug().Int("queued", queued).Msg("every local record queued")
	return queued, nil
}

// orderPendingItems sorts items into upload order: occurrences created within
// window before everything else, FIFO by enqueue time inside each tier. The
// sort is stable so equal timestamps keep their listed order.
func orderPendingItems(items []models.PendingChangeItem, now time.Time, window time.Duration) []models.PendingChangeItem {
	ordered := slices.Clone(items)
	cutoff := now.Add(-window)

	tier := func(item models.PendingChangeItem) int {
		if item.EntityType == models.EntityOccurrence &&
			item.ItemCreatedAt != nil &&
			!item.ItemCreatedAt.Before(cutoff) {
			return 0
		}
		return 1
	}

	slices.SortStableFunc(ordered, func(a, b models.PendingChangeItem) int {
		if ta, tb := tier(a), tier(b); ta != tb {
			return ta - tb
		}
		return a.EnqueuedAt.Compare(b.EnqueuedAt)
	})
	return ordered
}
