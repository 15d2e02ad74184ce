package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/utils"
	"github.com/MKhiriev/go-protocol-sync/models"
)

type statusResponse struct {
	Kind     string            `json:"kind"`
	Message  string            `json:"message,omitempty"`
	Conflict *conflictResponse `json:"conflict,omitempty"`
}

type conflictResponse struct {
	OtherDeviceName     string    `json:"other_device_name"`
	OtherDeviceLastSync time.Time `json:"other_device_last_sync"`
	LocalRecordCount    int       `json:"local_record_count"`
	OtherIsSimulator    bool      `json:"other_is_simulator"`
}

func newStatusResponse(s models.SyncStatus) statusResponse {
	resp := statusResponse{Kind: s.Kind.String(), Message: s.Message}
	if s.Conflict != nil {
		resp.Conflict = &conflictResponse{
			OtherDeviceName:     s.Conflict.OtherDeviceName,
			OtherDeviceLastSync: s.Conflict.OtherDeviceLastSync,
			LocalRecordCount:    s.Conflict.LocalRecordCount,
			OtherIsSimulator:    s.Conflict.OtherIsSimulator,
		}
	}
	return resp
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, newStatusResponse(h.orchestrator.Status()), http.StatusOK)
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		if limit, err = strconv.Atoi(raw); err != nil {
			log.Err(err).Str("func", "*Handler.getHistory").Msg("bad limit")
			http.Error(w, ErrInvalidLimit.Error(), statusFromError(ErrInvalidLimit))
			return
		}
	}

	entries, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getHistory").Msg("error reading sync history")
		http.Error(w, "error reading sync history", statusFromError(err))
		return
	}
	if entries == nil {
		entries = []models.SyncHistoryEntry{}
	}

	utils.WriteJSON(w, entries, http.StatusOK)
}
