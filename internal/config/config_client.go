package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// ClientApp holds device-level settings.
type ClientApp struct {
	// DeviceName overrides the reported device name when non-empty.
	DeviceName string
	// AllowDisposable lets disposable environments sync.
	AllowDisposable bool
	// DataDir holds the database, keystore and log.
	DataDir string
	// ControlAddress enables the local control API when non-empty.
	ControlAddress string
}

// ClientAuth holds the credential sources for the remote store.
type ClientAuth struct {
	Token     string
	TokenFile string
}

// ClientS3 holds S3-compatible backend settings.
type ClientS3 struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
}

// ClientAdapter holds remote store settings.
type ClientAdapter struct {
	// Backend is [BackendDrive] or [BackendS3].
	Backend string
	// HTTPAddress is the Drive API base URL.
	HTTPAddress string
	// RequestTimeout is the default timeout for outbound requests.
	RequestTimeout time.Duration
	// RootFolder is the top-level remote folder name.
	RootFolder string
	// S3 is used when Backend is [BackendS3].
	S3 ClientS3
}

// ClientDB contains local database connection settings.
type ClientDB struct {
	// DSN is the SQLite connection string.
	DSN string
}

// ClientStorage groups local storage settings.
type ClientStorage struct {
	// DB holds local database settings.
	DB ClientDB
	// IdentityPath is the bbolt keystore file of the device identity.
	IdentityPath string
}

// ClientWorkers contains sync timing settings.
type ClientWorkers struct {
	SyncInterval         time.Duration
	ForegroundThrottle   time.Duration
	SuccessHold          time.Duration
	HistoryLimit         int
	RecentActivityWindow time.Duration
}

// ClientConfig is the top-level configuration of the sync daemon assembled
// from [StructuredConfig].
type ClientConfig struct {
	App     ClientApp
	Auth    ClientAuth
	Adapter ClientAdapter
	Storage ClientStorage
	Workers ClientWorkers
}

// GetClientConfig builds and validates the daemon config from the merged
// structured configuration. Storage paths left empty are placed inside the
// data directory.
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := newClientConfig(cfg)
	return clientCfg, clientCfg.validate()
}

func newClientConfig(cfg *StructuredConfig) *ClientConfig {
	clientCfg := &ClientConfig{
		App: ClientApp{
			DeviceName:      cfg.App.DeviceName,
			AllowDisposable: cfg.App.AllowDisposable,
			DataDir:         cfg.App.DataDir,
			ControlAddress:  cfg.App.ControlAddress,
		},
		Auth: ClientAuth{
			Token:     cfg.Auth.Token,
			TokenFile: cfg.Auth.TokenFile,
		},
		Adapter: ClientAdapter{
			Backend:        cfg.Adapter.Backend,
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
			RootFolder:     cfg.Adapter.RootFolder,
			S3: ClientS3{
				Endpoint:  cfg.Adapter.S3.Endpoint,
				Bucket:    cfg.Adapter.S3.Bucket,
				AccessKey: cfg.Adapter.S3.AccessKey,
				SecretKey: cfg.Adapter.S3.SecretKey,
				Region:    cfg.Adapter.S3.Region,
				UseSSL:    cfg.Adapter.S3.UseSSL,
			},
		},
		Storage: ClientStorage{
			DB:           ClientDB{DSN: cfg.Storage.DB.DSN},
			IdentityPath: cfg.Storage.IdentityPath,
		},
		Workers: ClientWorkers{
			SyncInterval:         cfg.Workers.SyncInterval,
			ForegroundThrottle:   cfg.Workers.ForegroundThrottle,
			SuccessHold:          cfg.Workers.SuccessHold,
			HistoryLimit:         cfg.Workers.HistoryLimit,
			RecentActivityWindow: cfg.Workers.RecentActivityWindow,
		},
	}

	if clientCfg.App.DataDir != "" {
		if clientCfg.Storage.DB.DSN == "" {
			clientCfg.Storage.DB.DSN = filepath.Join(clientCfg.App.DataDir, "sync.db")
		}
		if clientCfg.Storage.IdentityPath == "" {
			clientCfg.Storage.IdentityPath = filepath.Join(clientCfg.App.DataDir, "identity.db")
		}
	}

	return clientCfg
}
