package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-protocol-sync/internal/service"
	"github.com/MKhiriev/go-protocol-sync/internal/store"
	"github.com/MKhiriev/go-protocol-sync/models"
)

var errorStatusMap = map[error]int{
	ErrInvalidEntityType: http.StatusBadRequest,
	ErrInvalidLimit:      http.StatusBadRequest,
	ErrInvalidDecision:   http.StatusBadRequest,
	ErrSyncIDMismatch:    http.StatusBadRequest,
	ErrNoPendingConflict: http.StatusConflict,

	service.ErrInvalidRecord:      http.StatusBadRequest,
	models.ErrMalformedRemoteData: http.StatusBadRequest,

	store.ErrRecordNotFound: http.StatusNotFound,
	store.ErrInvalidRecord:  http.StatusBadRequest,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
