// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-protocol-sync/models"
)

// historyErrorCode translates an attempt failure into the diagnostic code
// stored in the sync history.
func historyErrorCode(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return models.ErrCodeCancelled

	case errors.Is(err, models.ErrSaveFailure):
		return models.ErrCodeSave

	case errors.Is(err, ErrRemoteSetup):
		return models.ErrCodeRemoteSetup

	case errors.Is(err, ErrRegistryUnavailable):
		return models.ErrCodeRegistry

	case errors.Is(err, ErrRemoteList):
		return models.ErrCodeRemoteList

	case errors.Is(err, ErrLocalRead):
		return models.ErrCodeLocalRead

	case errors.Is(err, ErrDeviceIdentity):
		return models.ErrCodeDevice
	}

	return models.ErrCodeInternal
}

// isRecordLevel reports whether err only affects a single record. Such
// failures are logged and skipped instead of aborting the phase.
func isRecordLevel(err error) bool {
	return errors.Is(err, models.ErrNetworkFailure) ||
		errors.Is(err, models.ErrMalformedRemoteData) ||
		errors.Is(err, models.ErrAuthenticationRequired)
}
