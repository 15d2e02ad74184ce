// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"os"
	"time"
)

// StructuredConfig is the top-level configuration container for the sync
// daemon. It aggregates all sub-configurations and is populated by merging
// values from a .env file, environment variables, command-line flags, an
// optional JSON file and finally built-in defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env: direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds settings describing this device and where it keeps its
	// local state.
	App App `envPrefix:"APP_"`

	// Auth holds the account credentials used against the remote store.
	Auth Auth `envPrefix:"AUTH_"`

	// Storage holds configuration for the local database and the device
	// identity keystore.
	Storage Storage `envPrefix:"STORAGE_"`

	// Adapter selects and configures the remote store backend.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Workers holds timing settings of the sync job and orchestrator.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds device-level settings.
type App struct {
	// DeviceName overrides the host name reported in the device registry.
	// Env: APP_DEVICE_NAME
	DeviceName string `env:"DEVICE_NAME"`

	// AllowDisposable lets containers and virtual machines sync. Without it
	// such environments are blocked.
	// Env: APP_ALLOW_DISPOSABLE
	AllowDisposable bool `env:"ALLOW_DISPOSABLE"`

	// DataDir is the directory holding the database, the identity keystore
	// and the log file.
	// Env: APP_DATA_DIR
	DataDir string `env:"DATA_DIR"`

	// ControlAddress is the host:port of the local control API. The API is
	// disabled when empty.
	// Env: APP_CONTROL_ADDRESS
	ControlAddress string `env:"CONTROL_ADDRESS"`
}

// Auth holds the bearer credentials for the remote store.
type Auth struct {
	// Token is an OAuth access token used as-is.
	// Env: AUTH_TOKEN
	Token string `env:"TOKEN"`

	// TokenFile is a file re-read on every request, for tokens refreshed by
	// an external helper. Takes precedence over Token.
	// Env: AUTH_TOKEN_FILE
	TokenFile string `env:"TOKEN_FILE"`
}

// Storage groups the configuration of local persistence.
type Storage struct {
	// DB holds the SQLite connection settings.
	DB DB `envPrefix:"DB_"`

	// IdentityPath is the bbolt file caching the device identifier.
	// Env: STORAGE_IDENTITY_PATH
	IdentityPath string `env:"IDENTITY_PATH"`
}

// DB holds connection settings for the local SQLite database.
type DB struct {
	// DSN is the SQLite data source name (e.g. "/var/lib/sync/sync.db").
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Adapter configures the remote store.
type Adapter struct {
	// Backend is either "drive" (REST API) or "s3" (S3-compatible object
	// store).
	// Env: ADAPTER_BACKEND
	Backend string `env:"BACKEND"`

	// HTTPAddress is the base URL of the Drive REST API.
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds a single outbound request (e.g. "30s").
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	// RootFolder is the name of the top-level remote folder.
	// Env: ADAPTER_ROOT_FOLDER
	RootFolder string `env:"ROOT_FOLDER"`

	// S3 configures the S3-compatible backend.
	S3 S3 `envPrefix:"S3_"`
}

// S3 holds settings of an S3-compatible object store.
type S3 struct {
	// Endpoint in "host:port" form.
	// Env: ADAPTER_S3_ENDPOINT
	Endpoint string `env:"ENDPOINT"`
	// Env: ADAPTER_S3_BUCKET
	Bucket string `env:"BUCKET"`
	// Env: ADAPTER_S3_ACCESS_KEY
	AccessKey string `env:"ACCESS_KEY"`
	// Env: ADAPTER_S3_SECRET_KEY
	SecretKey string `env:"SECRET_KEY"`
	// Env: ADAPTER_S3_REGION
	Region string `env:"REGION"`
	// Env: ADAPTER_S3_USE_SSL
	UseSSL bool `env:"USE_SSL"`
}

// Workers holds timing settings for background sync.
type Workers struct {
	// SyncInterval is the period of the background sync job.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`

	// ForegroundThrottle is the minimum gap between two foreground syncs.
	// Env: WORKERS_FOREGROUND_THROTTLE
	ForegroundThrottle time.Duration `env:"FOREGROUND_THROTTLE"`

	// SuccessHold is how long the success status stays visible.
	// Env: WORKERS_SUCCESS_HOLD
	SuccessHold time.Duration `env:"SUCCESS_HOLD"`

	// HistoryLimit caps the number of kept sync history entries.
	// Env: WORKERS_HISTORY_LIMIT
	HistoryLimit int `env:"HISTORY_LIMIT"`

	// RecentActivityWindow decides which occurrences jump the upload queue.
	// Env: WORKERS_RECENT_ACTIVITY_WINDOW
	RecentActivityWindow time.Duration `env:"RECENT_ACTIVITY_WINDOW"`
}

// GetStructuredConfig loads, merges, and validates the configuration from
// all available sources. mergo only fills zero fields, so for any field the
// first source that sets it wins:
//  1. Environment variables (including those loaded from .env)
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withDotEnv().
		withEnv().
		withFlags(os.Args[1:]).
		withJSON().
		withDefaults().
		build()
}
