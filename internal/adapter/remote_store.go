package adapter

import (
	"fmt"

	"github.com/MKhiriev/go-protocol-sync/internal/auth"
	"github.com/MKhiriev/go-protocol-sync/internal/config"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
)

// NewRemoteStore builds the [RemoteStore] selected by cfg.Backend. An empty
// backend means Drive.
func NewRemoteStore(cfg config.ClientAdapter, tokens auth.Provider, logger *logger.Logger) (RemoteStore, error) {
	switch cfg.Backend {
	case config.BackendDrive, "":
		return NewDriveRemoteStore(cfg, tokens, logger)
	case config.BackendS3:
		return NewS3RemoteStore(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
