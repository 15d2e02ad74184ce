package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/utils"
	"github.com/MKhiriev/go-protocol-sync/models"
)

type conflictRequest struct {
	Decision string `json:"decision"`
}

// forceSync starts a sync that bypasses the foreground throttle and answers
// with the status seen right after the trigger. The attempt outlives the
// request; shutdown waits for it.
func (h *Handler) forceSync(w http.ResponseWriter, r *http.Request) {
	h.orchestrator.ForceSync(context.WithoutCancel(r.Context()))
	utils.WriteJSON(w, newStatusResponse(h.orchestrator.Status()), http.StatusAccepted)
}

func (h *Handler) resolveConflict(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req conflictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.resolveConflict").Msg("invalid JSON was passed")
		http.Error(w, "invalid JSON was passed", http.StatusBadRequest)
		return
	}

	decision, err := models.ParseConflictDecision(req.Decision)
	if err != nil {
		log.Err(err).Str("func", "*Handler.resolveConflict").Send()
		http.Error(w, ErrInvalidDecision.Error(), statusFromError(ErrInvalidDecision))
		return
	}

	if h.orchestrator.Status().Kind != models.StatusAwaitingUserDecision {
		http.Error(w, ErrNoPendingConflict.Error(), statusFromError(ErrNoPendingConflict))
		return
	}

	h.orchestrator.ResolveConflict(context.WithoutCancel(r.Context()), decision)
	utils.WriteJSON(w, newStatusResponse(h.orchestrator.Status()), http.StatusAccepted)
}
