// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"
)

// validate checks the merged [StructuredConfig] before it is mapped.
// Only values that cannot be defaulted are checked here.
func (cfg *StructuredConfig) validate() error {
	switch cfg.Adapter.Backend {
	case "", BackendDrive, BackendS3:
		return nil
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidAdapterConfigs, cfg.Adapter.Backend)
	}
}

func (cfg *ClientConfig) validate() error {
	if cfg.App.DataDir == "" {
		return ErrInvalidAppConfigs
	}

	if cfg.App.ControlAddress != "" {
		var addr NetAddress
		if err := addr.Set(cfg.App.ControlAddress); err != nil {
			return fmt.Errorf("%w: control address: %v", ErrInvalidAppConfigs, err)
		}
	}

	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") || cfg.Storage.IdentityPath == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.RequestTimeout <= 0 || cfg.Adapter.RootFolder == "" {
		return ErrInvalidAdapterConfigs
	}

	switch cfg.Adapter.Backend {
	case BackendDrive:
		if cfg.Adapter.HTTPAddress == "" {
			return ErrInvalidAdapterConfigs
		}
	case BackendS3:
		if cfg.Adapter.S3.Endpoint == "" || cfg.Adapter.S3.Bucket == "" {
			return ErrInvalidAdapterConfigs
		}
	default:
		return ErrInvalidAdapterConfigs
	}

	w := cfg.Workers
	if w.SyncInterval <= 0 || w.ForegroundThrottle < 0 || w.SuccessHold < 0 ||
		w.HistoryLimit <= 0 || w.RecentActivityWindow <= 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
