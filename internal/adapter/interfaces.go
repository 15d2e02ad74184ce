// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the remote store that entity objects and the
// device registry are synced with.
//
// The primary abstraction is [RemoteStore], which decouples the sync service
// from the storage backend. The package ships a Drive-style REST
// implementation ([NewDriveRemoteStore]) and an S3-compatible one
// ([NewS3RemoteStore]); [NewRemoteStore] picks one from configuration.
//
// Both keep the same layout: a root folder containing a "Records" folder
// that holds one "{EntityType}_{syncID}.json" object per record plus the
// shared DeviceRegistry.json.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] regardless of backend.
package adapter

import (
	"context"
	"time"

	"github.com/MKhiriev/go-protocol-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/remote_store_mock.go -package=mock

// RecordsFolderName is the folder below the root that holds entity objects.
const RecordsFolderName = "Records"

// RemoteStore is the remote side of a sync. Implementations wrap transport
// failures in [models.ErrNetworkFailure] and undecodable content in
// [models.ErrMalformedRemoteData].
type RemoteStore interface {
	// EnsureRootReady makes sure the root and records folders exist and
	// returns the records folder. The result is cached after the first
	// successful call.
	EnsureRootReady(ctx context.Context) (models.RemoteFolder, error)

	// ListRecords lists every entity object in folder. Objects whose name
	// does not follow the entity naming convention are left out.
	ListRecords(ctx context.Context, folder models.RemoteFolder) ([]models.RemoteFileRef, error)

	// Download returns the raw content of the object fileID.
	Download(ctx context.Context, fileID string) ([]byte, error)

	// Upload writes data under name in folder, replacing the content of an
	// existing object with the same name. It returns the modified time the
	// remote side now reports for the object, the same value a later
	// ListRecords carries. A zero time means the backend did not report one.
	Upload(ctx context.Context, name string, data []byte, folder models.RemoteFolder) (time.Time, error)

	// FetchDeviceRegistry reads the registry from folder. A registry that
	// does not exist yet is returned as an empty document.
	FetchDeviceRegistry(ctx context.Context, folder models.RemoteFolder) (models.DeviceRegistryDocument, error)

	// UpdateDeviceRegistry writes doc back to folder.
	UpdateDeviceRegistry(ctx context.Context, folder models.RemoteFolder, doc models.DeviceRegistryDocument) error
}
