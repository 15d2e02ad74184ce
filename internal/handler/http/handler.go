package http

import (
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/service"
)

type Handler struct {
	orchestrator service.SyncOrchestrator
	history      service.SyncHistory
	records      service.RecordService

	logger *logger.Logger
}

func NewHandler(services *service.ClientServices, logger *logger.Logger) *Handler {
	logger.Info().Msg("control handler created")
	return &Handler{
		orchestrator: services.Orchestrator,
		history:      services.History,
		records:      services.RecordService,
		logger:       logger,
	}
}
