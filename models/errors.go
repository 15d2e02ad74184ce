// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "errors"

// Sync error taxonomy. Callers match with [errors.Is].
var (
	// ErrAuthenticationRequired means no user is signed in. Sync skips
	// silently.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrEnvironmentBlocked means the process runs in a disposable
	// environment that must never sync.
	ErrEnvironmentBlocked = errors.New("sync blocked in disposable environment")

	// ErrNetworkFailure wraps transport failures of a single upload or
	// download. The affected record is retried on a later attempt.
	ErrNetworkFailure = errors.New("network failure")

	// ErrMalformedRemoteData means a remote payload could not be decoded or
	// misses required fields. The record is skipped.
	ErrMalformedRemoteData = errors.New("malformed remote data")

	// ErrSaveFailure means a local persistence write failed. It aborts the
	// current phase.
	ErrSaveFailure = errors.New("local save failed")

	// ErrInvalidObjectName is returned for remote object names that do not
	// follow the "{EntityType}_{syncID}.json" convention.
	ErrInvalidObjectName = errors.New("invalid remote object name")
)

// Error codes stored in sync history for diagnostics.
const (
	ErrCodeRemoteSetup = "REMOTE_SETUP_FAILED"
	ErrCodeRegistry    = "REGISTRY_UNAVAILABLE"
	ErrCodeRemoteList  = "REMOTE_LIST_FAILED"
	ErrCodeLocalRead   = "LOCAL_READ_FAILED"
	ErrCodeSave        = "SAVE_FAILED"
	ErrCodeDevice      = "DEVICE_IDENTITY_FAILED"
	ErrCodeCancelled   = "CANCELLED"
	ErrCodeInternal    = "INTERNAL"
)
