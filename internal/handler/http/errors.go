// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Request validation errors. Each maps to a 4xx status in [statusFromError].
var (
	// ErrInvalidEntityType is returned for an entity type outside the closed
	// set of syncable entities.
	ErrInvalidEntityType = errors.New("invalid entity type")

	// ErrInvalidLimit is returned when the history limit is not an integer.
	ErrInvalidLimit = errors.New("invalid history limit")

	// ErrInvalidDecision is returned for an unknown conflict decision.
	ErrInvalidDecision = errors.New("invalid conflict decision")

	// ErrNoPendingConflict is returned when a decision arrives while the
	// orchestrator is not awaiting one.
	ErrNoPendingConflict = errors.New("no conflict awaits a decision")

	// ErrSyncIDMismatch is returned when the body names a different record
	// than the URL.
	ErrSyncIDMismatch = errors.New("sync id in body does not match the URL")
)
