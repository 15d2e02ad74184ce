package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/store"
	"github.com/MKhiriev/go-protocol-sync/internal/validators"
	"github.com/MKhiriev/go-protocol-sync/models"
)

type recordService struct {
	storages  *store.ClientStorages
	validator validators.Validator
	window    time.Duration
	now       func() time.Time
}

// NewRecordService returns the interactive mutation entry point. Each
// mutation and its pending change are committed together.
func NewRecordService(storages *store.ClientStorages, recentActivityWindow time.Duration) RecordService {
	return &recordService{
		storages:  storages,
		validator: validators.NewRecordValidator(),
		window:    recentActivityWindow,
		now:       time.Now,
	}
}

func (s *recordService) Put(ctx context.Context, r *models.Record) error {
	now := models.TruncateTimestamp(s.now())
	r.LastModified = now
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}

	if err := s.validator.Validate(ctx, r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	return s.mutate(ctx, "recordService.Put", r.Key(), func(ctx context.Context, tx store.Transaction) (*models.Record, error) {
		if err := tx.Records().Save(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	})
}

func (s *recordService) Get(ctx context.Context, key models.RecordKey) (*models.Record, error) {
	return s.storages.Records.Fetch(ctx, key)
}

func (s *recordService) List(ctx context.Context, filter store.RecordFilter) ([]*models.Record, error) {
	return s.storages.Records.FetchAll(ctx, filter)
}

func (s *recordService) Delete(ctx context.Context, key models.RecordKey) error {
	return s.mutate(ctx, "recordService.Delete", key, func(ctx context.Context, tx store.Transaction) (*models.Record, error) {
		r, err := tx.Records().Fetch(ctx, key)
		if err != nil {
			return nil, err
		}
		if r.IsDeleted {
			return nil, nil
		}

		r.IsDeleted = true
		r.LastModified = models.TruncateTimestamp(s.now())
		if err = tx.Records().Save(ctx, r); err != nil {
			return nil, err
		}
		return r, nil
	})
}

func (s *recordService) Purge(ctx context.Context, key models.RecordKey) error {
	return s.mutate(ctx, "recordService.Purge", key, func(ctx context.Context, tx store.Transaction) (*models.Record, error) {
		r, err := tx.Records().Fetch(ctx, key)
		if err != nil {
			return nil, err
		}
		if err = tx.Records().Delete(ctx, key); err != nil {
			return nil, err
		}
		return r, nil
	})
}

// mutate runs change in a fresh session and queues the record it returns.
// A nil record means nothing changed.
func (s *recordService) mutate(
	ctx context.Context,
	op string,
	key models.RecordKey,
	change func(ctx context.Context, tx store.Transaction) (*models.Record, error),
) error {
	log := logger.FromContext(ctx)
	session := s.storages.NewSession()

	r, err := change(ctx, session)
	if err == nil && r != nil {
		err = newPendingChangeQueue(session.PendingChanges(), s.window, s.now).Enqueue(ctx, r)
	}
	if err == nil {
		err = session.Save(ctx)
	}
	if err != nil {
		if rbErr := session.Rollback(); rbErr != nil {
			log.Err(rbErr).Str("func", op).Msg("rollback failed")
		}
		log.Err(err).
			Str("func", op).
			Str("sync_id", key.SyncID).
			Str("entity_type", key.EntityType.String()).
			Msg("local mutation failed")
		return err
	}
	return nil
}
