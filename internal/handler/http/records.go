package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/store"
	"github.com/MKhiriev/go-protocol-sync/internal/utils"
	"github.com/MKhiriev/go-protocol-sync/models"
)

// maxRecordBody bounds a PUT body.
const maxRecordBody = 1 << 20

// recordResponse pairs the entity type with the record's wire payload.
type recordResponse struct {
	EntityType models.EntityType `json:"entityType"`
	Record     json.RawMessage   `json:"record"`
}

func newRecordResponse(r *models.Record) (recordResponse, error) {
	data, err := r.Serialize()
	if err != nil {
		return recordResponse{}, err
	}
	return recordResponse{EntityType: r.EntityType, Record: data}, nil
}

func recordKeyFromRequest(r *http.Request) (models.RecordKey, error) {
	key := models.RecordKey{
		SyncID:     chi.URLParam(r, "syncID"),
		EntityType: models.EntityType(chi.URLParam(r, "entityType")),
	}
	if !key.EntityType.Valid() {
		return models.RecordKey{}, fmt.Errorf("%w: %q", ErrInvalidEntityType, key.EntityType)
	}
	return key, nil
}

// listRecords answers GET /api/records?type=Step&type=Note&deleted=true.
func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	query := r.URL.Query()

	filter := store.RecordFilter{IncludeDeleted: query.Get("deleted") == "true"}
	for _, raw := range query["type"] {
		entityType := models.EntityType(raw)
		if !entityType.Valid() {
			http.Error(w, ErrInvalidEntityType.Error(), statusFromError(ErrInvalidEntityType))
			return
		}
		filter.EntityTypes = append(filter.EntityTypes, entityType)
	}

	records, err := h.records.List(r.Context(), filter)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listRecords").Msg("error listing records")
		http.Error(w, "error listing records", statusFromError(err))
		return
	}

	response := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		item, err := newRecordResponse(rec)
		if err != nil {
			log.Err(err).Str("func", "*Handler.listRecords").Msg("error serializing record")
			http.Error(w, "error serializing record", http.StatusInternalServerError)
			return
		}
		response = append(response, item)
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	key, err := recordKeyFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	rec, err := h.records.Get(r.Context(), key)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getRecord").Str("object", key.ObjectName()).Msg("error getting record")
		http.Error(w, "error getting record", statusFromError(err))
		return
	}

	h.writeRecord(w, r, rec, http.StatusOK)
}

// putRecord creates or replaces a record from a payload-shaped body. The
// envelope fields are optional; lastModified is always stamped locally.
func (h *Handler) putRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	key, err := recordKeyFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRecordBody))
	if err != nil {
		log.Err(err).Str("func", "*Handler.putRecord").Msg("error reading body")
		http.Error(w, "error reading body", http.StatusBadRequest)
		return
	}

	payload, err := models.DecodeRecordPayload(body)
	if err != nil {
		log.Err(err).Str("func", "*Handler.putRecord").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", statusFromError(err))
		return
	}
	if payload.SyncID != "" && payload.SyncID != key.SyncID {
		http.Error(w, ErrSyncIDMismatch.Error(), statusFromError(ErrSyncIDMismatch))
		return
	}
	payload.SyncID = key.SyncID

	rec, err := models.NewRecordFromPayload(key.EntityType, payload)
	if err != nil {
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	existing, err := h.records.Get(r.Context(), key)
	switch {
	case err == nil:
		if payload.CreatedAt == nil {
			rec.CreatedAt = existing.CreatedAt
		}
	case errors.Is(err, store.ErrRecordNotFound):
		if payload.CreatedAt == nil {
			rec.CreatedAt = time.Time{}
		}
	default:
		log.Err(err).Str("func", "*Handler.putRecord").Msg("error reading existing record")
		http.Error(w, "error reading existing record", statusFromError(err))
		return
	}

	if err = h.records.Put(r.Context(), rec); err != nil {
		log.Err(err).Str("func", "*Handler.putRecord").Str("object", key.ObjectName()).Msg("error saving record")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	h.writeRecord(w, r, rec, http.StatusOK)
}

// deleteRecord soft-deletes a record, or erases it with ?purge=true.
func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	key, err := recordKeyFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	if r.URL.Query().Get("purge") == "true" {
		err = h.records.Purge(r.Context(), key)
	} else {
		err = h.records.Delete(r.Context(), key)
	}
	if err != nil {
		log.Err(err).Str("func", "*Handler.deleteRecord").Str("object", key.ObjectName()).Msg("error deleting record")
		http.Error(w, "error deleting record", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeRecord(w http.ResponseWriter, r *http.Request, rec *models.Record, status int) {
	response, err := newRecordResponse(rec)
	if err != nil {
		logger.FromContext(r.Context()).Err(err).Str("func", "*Handler.writeRecord").Msg("error serializing record")
		http.Error(w, "error serializing record", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, response, status)
}
