package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-protocol-sync/internal/adapter"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/store"
	"github.com/MKhiriev/go-protocol-sync/internal/validators"
	"github.com/MKhiriev/go-protocol-sync/models"
)

// reconciler pulls remote objects into the local store with whole-record
// last-write-wins. Pass one creates and updates records; pass two resolves
// relationship references once every listed record has been applied and
// nulls the ones that still point nowhere.
//
// No transaction is held while waiting on the network: the session is saved
// before every remote call so interactive access to the store is never stuck
// behind a download.
type reconciler struct {
	remote    adapter.RemoteStore
	validator validators.Validator
}

func newReconciler(remote adapter.RemoteStore, validator validators.Validator) *reconciler {
	return &reconciler{remote: remote, validator: validator}
}

// Pull returns the number of records created, updated or soft-deleted.
// Record-level failures are skipped; listing, read and save failures abort.
func (r *reconciler) Pull(ctx context.Context, tx store.Transaction, folder models.RemoteFolder) (int, error) {
	log := logger.FromContext(ctx)

	if err := release(ctx, tx); err != nil {
		return 0, err
	}
	refs, err := r.remote.ListRecords(ctx, folder)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRemoteList, err)
	}

	var (
		applied int
		touched []models.RecordKey
	)
	for _, ref := range refs {
		if err = ctx.Err(); err != nil {
			return applied, err
		}

		changed, err := r.reconcile(ctx, tx, ref)
		if err != nil {
			if isRecordLevel(err) {
				log.Warn().Err(err).
					Str("sync_id", ref.SyncID).
					Str("entity_type", ref.EntityType.String()).
					Str("file_id", ref.FileID).
					Msg("skipping remote record")
				continue
			}
			return applied, err
		}
		if changed {
			applied++
			if len(ref.EntityType.Relationships()) > 0 {
				touched = append(touched, ref.Key())
			}
		}
	}

	if err = r.resolveRelations(ctx, tx, touched); err != nil {
		return applied, err
	}

	log.Info().Int("listed", len(refs)).Int("applied", applied).Msg("pull finished")
	return applied, nil
}

// reconcile applies a single remote object and reports whether the local
// store changed. The local record is read again after the download because
// the interactive context may have written it in the meantime.
func (r *reconciler) reconcile(ctx context.Context, tx store.Transaction, ref models.RemoteFileRef) (bool, error) {
	local, err := lookupLocal(ctx, tx, ref.Key())
	if err != nil {
		return false, err
	}
	if !remoteWins(ref, local) {
		return false, nil
	}

	if err = release(ctx, tx); err != nil {
		return false, err
	}
	payload, err := r.download(ctx, ref)
	if err != nil {
		return false, err
	}

	if local, err = lookupLocal(ctx, tx, ref.Key()); err != nil {
		return false, err
	}
	if !remoteWins(ref, local) {
		return false, nil
	}

	if local == nil {
		if payload.IsTombstone() {
			return false, nil
		}
		next, err := models.NewRecordFromPayload(ref.EntityType, payload)
		if err != nil {
			return false, err
		}
		next.RemoteModified = ref.ModifiedTime
		return true, saveRecord(ctx, tx, next)
	}

	next := local.Clone()
	if err = next.ApplyPayload(payload); err != nil {
		return false, err
	}
	next.RemoteModified = ref.ModifiedTime

	same, err := sameContent(local, next)
	if err != nil {
		return false, err
	}
	if same {
		// Already holds this content: only remember the remote version.
		if err = tx.Records().SetRemoteModified(ctx, ref.Key(), ref.ModifiedTime); err != nil {
			return false, fmt.Errorf("%w: %w", models.ErrSaveFailure, err)
		}
		return false, release(ctx, tx)
	}
	return true, saveRecord(ctx, tx, next)
}

// remoteWins is the last-write-wins rule for one listed object. A remote
// version this device already pulled or uploaded never wins again; otherwise
// the remote copy wins only when it is strictly newer than the local edit.
func remoteWins(ref models.RemoteFileRef, local *models.Record) bool {
	if local == nil {
		return true
	}
	if !local.RemoteModified.IsZero() && !ref.ModifiedTime.After(local.RemoteModified) {
		return false
	}
	return ref.ModifiedTime.After(local.LastModified)
}

func sameContent(a, b *models.Record) (bool, error) {
	left, err := a.Serialize()
	if err != nil {
		return false, err
	}
	right, err := b.Serialize()
	if err != nil {
		return false, err
	}
	return bytes.Equal(left, right), nil
}

func lookupLocal(ctx context.Context, tx store.Transaction, key models.RecordKey) (*models.Record, error) {
	local, err := tx.Records().Fetch(ctx, key)
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrLocalRead, err)
	}
	return local, nil
}

func (r *reconciler) download(ctx context.Context, ref models.RemoteFileRef) (models.RecordPayload, error) {
	data, err := r.remote.Download(ctx, ref.FileID)
	if err != nil {
		return models.RecordPayload{}, err
	}

	payload, err := models.DecodeRecordPayload(data)
	if err != nil {
		return models.RecordPayload{}, err
	}
	if err = r.validator.Validate(ctx, payload); err != nil {
		return models.RecordPayload{}, fmt.Errorf("%w: %s: %w", models.ErrMalformedRemoteData, ref.Name, err)
	}
	if payload.SyncID != ref.SyncID {
		return models.RecordPayload{}, fmt.Errorf("%w: %s carries sync id %q", models.ErrMalformedRemoteData, ref.Name, payload.SyncID)
	}
	return payload, nil
}

// resolveRelations nulls references of the touched records whose target does
// not exist locally. The record timestamp is kept so a later pull still
// compares against the remote version it came from.
func (r *reconciler) resolveRelations(ctx context.Context, tx store.Transaction, keys []models.RecordKey) error {
	log := logger.FromContext(ctx)

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := tx.Records().Fetch(ctx, key)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLocalRead, err)
		}

		changed := false
		for _, rel := range key.EntityType.Relationships() {
			ref := rec.Relations[rel.Field]
			if ref == nil {
				continue
			}

			exists, err := recordExists(ctx, tx, models.RecordKey{SyncID: *ref, EntityType: rel.Target})
			if err != nil {
				return err
			}
			if !exists {
				log.Debug().
					Str("sync_id", key.SyncID).
					Str("field", rel.Field).
					Str("target", *ref).
					Msg("unresolved reference cleared")
				rec.Relations[rel.Field] = nil
				changed = true
			}
		}

		if changed {
			if err = saveRecord(ctx, tx, rec); err != nil {
				return err
			}
		}
	}
	return nil
}

func recordExists(ctx context.Context, tx store.Transaction, key models.RecordKey) (bool, error) {
	_, err := tx.Records().Fetch(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrRecordNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrLocalRead, err)
	}
}

// release ends the current unit of work so the store connection is free
// while the caller waits on the network.
func release(ctx context.Context, tx store.Transaction) error {
	if err := tx.Save(ctx); err != nil {
		return fmt.Errorf("%w: %w", models.ErrSaveFailure, err)
	}
	return nil
}

// saveRecord writes rec and commits it as its own unit.
func saveRecord(ctx context.Context, tx store.Transaction, rec *models.Record) error {
	if err := tx.Records().Save(ctx, rec); err != nil {
		return fmt.Errorf("%w: %w", models.ErrSaveFailure, err)
	}
	if err := tx.Save(ctx); err != nil {
		return fmt.Errorf("%w: %w", models.ErrSaveFailure, err)
	}
	return nil
}
