package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-protocol-sync/internal/adapter"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/store"
	"github.com/MKhiriev/go-protocol-sync/models"
)

// pusher drains the pending-change queue into the remote store, one record
// at a time in queue order. Like the reconciler it saves the session before
// every upload so no transaction waits on the network.
type pusher struct {
	remote adapter.RemoteStore
	now    func() time.Time
}

func newPusher(remote adapter.RemoteStore, now func() time.Time) *pusher {
	return &pusher{remote: remote, now: now}
}

// Push returns the number of uploaded records. An item leaves the queue only
// after its upload succeeded; failed uploads stay queued for the next attempt.
func (p *pusher) Push(ctx context.Context, tx store.Transaction, queue PendingChangeQueue, folder models.RemoteFolder) (int, error) {
	log := logger.FromContext(ctx)

	items, err := queue.DequeueAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrLocalRead, err)
	}

	uploaded := 0
	for _, item := range items {
		if err = ctx.Err(); err != nil {
			return uploaded, err
		}

		name := item.Key().ObjectName()
		data, err := p.payload(ctx, tx, item)
		if err != nil {
			if errors.Is(err, ErrLocalRead) {
				return uploaded, err
			}
			log.Warn().Err(err).Str("sync_id", item.SyncID).Msg("cannot serialize queued record")
			continue
		}

		if err = release(ctx, tx); err != nil {
			return uploaded, err
		}
		modified, err := p.remote.Upload(ctx, name, data, folder)
		if err != nil {
			log.Warn().Err(err).
				Str("sync_id", item.SyncID).
				Str("entity_type", item.EntityType.String()).
				Msg("upload failed, record stays queued")
			continue
		}

		if err = p.markUploaded(ctx, tx, queue, item, modified); err != nil {
			return uploaded, err
		}
		uploaded++
	}

	log.Info().Int("queued", len(items)).Int("uploaded", uploaded).Msg("push finished")
	return uploaded, nil
}

// markUploaded remembers the uploaded remote version, so the next pull does
// not fetch it back, and takes item off the queue.
func (p *pusher) markUploaded(ctx context.Context, tx store.Transaction, queue PendingChangeQueue, item models.PendingChangeItem, modified time.Time) error {
	if !modified.IsZero() {
		if err := tx.Records().SetRemoteModified(ctx, item.Key(), modified); err != nil {
			return fmt.Errorf("%w: %w", models.ErrSaveFailure, err)
		}
	}
	if err := queue.Remove(ctx, item); err != nil {
		return fmt.Errorf("%w: %w", models.ErrSaveFailure, err)
	}
	if err := tx.Save(ctx); err != nil {
		return fmt.Errorf("%w: %w", models.ErrSaveFailure, err)
	}
	return nil
}

// payload serializes the local record behind item, or a tombstone when the
// record no longer exists locally.
func (p *pusher) payload(ctx context.Context, tx store.Transaction, item models.PendingChangeItem) ([]byte, error) {
	rec, err := tx.Records().Fetch(ctx, item.Key())
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		logger.FromContext(ctx).Debug().Str("sync_id", item.SyncID).Msg("record gone, uploading tombstone")
		return json.Marshal(models.NewTombstonePayload(item.SyncID, p.now()))
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrLocalRead, err)
	}

	return rec.Serialize()
}
