// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	BackendDrive = "drive"
	BackendS3    = "s3"
)

const (
	defaultDriveAddress         = "https://www.googleapis.com"
	defaultRequestTimeout       = 30 * time.Second
	defaultRootFolder           = "ProtocolSync"
	defaultSyncInterval         = 15 * time.Minute
	defaultForegroundThrottle   = 5 * time.Minute
	defaultSuccessHold          = 3 * time.Second
	defaultHistoryLimit         = 100
	defaultRecentActivityWindow = 24 * time.Hour
	dataDirName                 = "protocol-sync"
)

// defaultConfig returns the lowest-priority source. Paths derived from the
// data directory are filled in later by [GetClientConfig], once the final
// data directory is known.
func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			DataDir: defaultDataDir(),
		},
		Adapter: Adapter{
			Backend:        BackendDrive,
			HTTPAddress:    defaultDriveAddress,
			RequestTimeout: defaultRequestTimeout,
			RootFolder:     defaultRootFolder,
		},
		Workers: Workers{
			SyncInterval:         defaultSyncInterval,
			ForegroundThrottle:   defaultForegroundThrottle,
			SuccessHold:          defaultSuccessHold,
			HistoryLimit:         defaultHistoryLimit,
			RecentActivityWindow: defaultRecentActivityWindow,
		},
	}
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, dataDirName)
	}
	return filepath.Join(os.TempDir(), dataDirName)
}
