// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package device identifies the machine the daemon runs on.
//
// The device ID is derived from the hardware host ID reported by the OS, so
// it survives a reinstall that wipes the data directory, and is cached in a
// small bbolt keystore next to the database. A random ID is minted only on
// hosts that expose no hardware ID.
package device

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	bolt "go.etcd.io/bbolt"

	"github.com/MKhiriev/go-protocol-sync/internal/config"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/utils"
	"github.com/MKhiriev/go-protocol-sync/models"
)

const (
	keystoreDirPerm     = fs.FileMode(0o700)
	keystoreFilePerm    = fs.FileMode(0o600)
	keystoreOpenTimeout = 5 * time.Second
)

var (
	identityBucket = []byte("identity")
	deviceIDKey    = []byte("device_id")
)

// ciEnvVars mark hosted build runners, which are treated as disposable.
var ciEnvVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "BUILDKITE", "JENKINS_URL", "TEAMCITY_VERSION"}

// ErrKeystore is returned when the identity keystore cannot be read or
// written.
var ErrKeystore = errors.New("device keystore error")

// Identity resolves the stable device ID and describes the running host.
type Identity struct {
	db *bolt.DB

	deviceName      string
	allowDisposable bool

	hostID    func(ctx context.Context) (string, error)
	hostInfo  func(ctx context.Context) (*host.InfoStat, error)
	lookupEnv func(key string) (string, bool)
	uuid      *utils.UUIDGenerator

	mu       sync.Mutex
	deviceID string

	logger *logger.Logger
}

// NewIdentity opens (or creates) the keystore at path.
func NewIdentity(path string, cfg config.ClientApp, logger *logger.Logger) (*Identity, error) {
	if err := os.MkdirAll(filepath.Dir(path), keystoreDirPerm); err != nil {
		return nil, fmt.Errorf("%w: creating keystore directory: %w", ErrKeystore, err)
	}

	db, err := bolt.Open(path, keystoreFilePerm, &bolt.Options{Timeout: keystoreOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("%w: opening keystore: %w", ErrKeystore, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(identityBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: initializing keystore: %w", ErrKeystore, err)
	}

	return &Identity{
		db:              db,
		deviceName:      cfg.DeviceName,
		allowDisposable: cfg.AllowDisposable,
		hostID:          host.HostIDWithContext,
		hostInfo:        host.InfoWithContext,
		lookupEnv:       os.LookupEnv,
		uuid:            utils.NewUUIDGenerator(),
		logger:          logger,
	}, nil
}

// Close closes the keystore.
func (i *Identity) Close() error {
	return i.db.Close()
}

// CurrentDeviceID returns the ID of this device. The first call resolves
// and persists it; later calls are served from memory.
func (i *Identity) CurrentDeviceID(ctx context.Context) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.deviceID != "" {
		return i.deviceID, nil
	}

	stored, err := i.storedDeviceID()
	if err != nil {
		return "", err
	}
	if stored != "" {
		i.deviceID = stored
		return stored, nil
	}

	id := i.deriveDeviceID(ctx)
	err = i.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(identityBucket).Put(deviceIDKey, []byte(id))
	})
	if err != nil {
		return "", fmt.Errorf("%w: storing device id: %w", ErrKeystore, err)
	}

	i.logger.Info().Str("func", "Identity.CurrentDeviceID").Str("device_id", id).Msg("device id resolved")
	i.deviceID = id
	return id, nil
}

// Descriptor describes this device for the registry.
func (i *Identity) Descriptor(ctx context.Context) (models.DeviceDescriptor, error) {
	id, err := i.CurrentDeviceID(ctx)
	if err != nil {
		return models.DeviceDescriptor{}, err
	}

	info, err := i.hostInfo(ctx)
	if err != nil || info == nil {
		i.logger.Warn().Err(err).Str("func", "Identity.Descriptor").Msg("host info unavailable")
		info = &host.InfoStat{}
	}

	return models.DeviceDescriptor{
		ID:           id,
		Name:         i.name(info),
		Type:         deviceType(info),
		IsDisposable: !i.allowDisposable && i.isDisposable(info),
	}, nil
}

func (i *Identity) storedDeviceID() (string, error) {
	var id string
	err := i.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(identityBucket).Get(deviceIDKey); v != nil {
			id = string(v)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: reading device id: %w", ErrKeystore, err)
	}
	return id, nil
}

func (i *Identity) deriveDeviceID(ctx context.Context) string {
	hostID, err := i.hostID(ctx)
	hostID = strings.ToLower(strings.TrimSpace(hostID))
	if err != nil || hostID == "" {
		i.logger.Warn().Err(err).Str("func", "Identity.deriveDeviceID").Msg("no hardware id, generating a random device id")
		return i.uuid.Generate()
	}
	return i.uuid.FromName(utils.DeviceNamespace, hostID)
}

func (i *Identity) name(info *host.InfoStat) string {
	if i.deviceName != "" {
		return i.deviceName
	}
	if info.Hostname != "" {
		return info.Hostname
	}
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "unknown"
}

func (i *Identity) isDisposable(info *host.InfoStat) bool {
	if info.VirtualizationRole == "guest" {
		return true
	}
	for _, key := range ciEnvVars {
		if v, ok := i.lookupEnv(key); ok && v != "" && v != "false" && v != "0" {
			return true
		}
	}
	return false
}

func deviceType(info *host.InfoStat) string {
	switch {
	case info.OS != "" && info.Platform != "":
		return info.OS + "/" + info.Platform
	case info.OS != "":
		return info.OS
	default:
		return "unknown"
	}
}
