// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"fmt"
	"strings"
	"time"
)

const remoteObjectExt = ".json"

// RemoteFolder is an opaque handle to a folder in the remote store.
type RemoteFolder struct {
	// ID is the backend-specific folder identifier (a Drive file id or an
	// object key prefix).
	ID string
	// Name is the human-readable folder name.
	Name string
}

// RemoteFileRef describes one entity object listed in the remote store.
type RemoteFileRef struct {
	FileID       string
	Name         string
	ModifiedTime time.Time
	SyncID       string
	EntityType   EntityType
}

// Key returns the record identity encoded in the object name.
func (r RemoteFileRef) Key() RecordKey {
	return RecordKey{SyncID: r.SyncID, EntityType: r.EntityType}
}

// ParseRemoteFileName splits an object name of the form
// "{EntityType}_{syncID}.json". Names with an unknown entity type or a
// missing sync ID are rejected.
func ParseRemoteFileName(name string) (EntityType, string, error) {
	base, ok := strings.CutSuffix(name, remoteObjectExt)
	if !ok {
		return "", "", fmt.Errorf("%w: %q has no %s suffix", ErrInvalidObjectName, name, remoteObjectExt)
	}

	prefix, syncID, ok := strings.Cut(base, "_")
	if !ok || syncID == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidObjectName, name)
	}

	entityType := EntityType(prefix)
	if !entityType.Valid() {
		return "", "", fmt.Errorf("%w: unknown entity type %q", ErrInvalidObjectName, prefix)
	}

	return entityType, syncID, nil
}

// NewRemoteFileRef builds a ref from a listed object, parsing its name.
func NewRemoteFileRef(fileID, name string, modified time.Time) (RemoteFileRef, error) {
	entityType, syncID, err := ParseRemoteFileName(name)
	if err != nil {
		return RemoteFileRef{}, err
	}
	return RemoteFileRef{
		FileID:       fileID,
		Name:         name,
		ModifiedTime: modified.UTC(),
		SyncID:       syncID,
		EntityType:   entityType,
	}, nil
}
