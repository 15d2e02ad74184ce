// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"fmt"
	"time"
)

// SyncStatusKind enumerates the states of the sync state machine.
type SyncStatusKind int

const (
	StatusIdle SyncStatusKind = iota
	StatusSyncing
	StatusSuccess
	StatusFailed
	StatusEnvironmentBlocked
	StatusConflictDetected
	StatusAwaitingUserDecision
)

var statusKindNames = map[SyncStatusKind]string{
	StatusIdle:                 "idle",
	StatusSyncing:              "syncing",
	StatusSuccess:              "success",
	StatusFailed:               "failed",
	StatusEnvironmentBlocked:   "environment_blocked",
	StatusConflictDetected:     "conflict_detected",
	StatusAwaitingUserDecision: "awaiting_user_decision",
}

func (k SyncStatusKind) String() string {
	if name, ok := statusKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// SyncStatus is the observable state of the orchestrator.
type SyncStatus struct {
	Kind    SyncStatusKind
	Message string

	// Conflict is set for StatusConflictDetected and
	// StatusAwaitingUserDecision.
	Conflict *SyncConflictInfo
}

// IdleStatus returns the resting state.
func IdleStatus() SyncStatus { return SyncStatus{Kind: StatusIdle} }

// SyncingStatus returns an in-progress state with a phase message.
func SyncingStatus(msg string) SyncStatus { return SyncStatus{Kind: StatusSyncing, Message: msg} }

// SuccessStatus returns a finished state with a summary message.
func SuccessStatus(msg string) SyncStatus { return SyncStatus{Kind: StatusSuccess, Message: msg} }

// FailedStatus returns a failure state with a user-facing message.
func FailedStatus(msg string) SyncStatus { return SyncStatus{Kind: StatusFailed, Message: msg} }

// InFlight reports whether the status belongs to an unfinished attempt.
func (s SyncStatus) InFlight() bool {
	switch s.Kind {
	case StatusSyncing, StatusConflictDetected, StatusAwaitingUserDecision:
		return true
	default:
		return false
	}
}

// SyncConflictInfo describes another device found in the registry when this
// device syncs for the first time. It is never persisted.
type SyncConflictInfo struct {
	OtherDeviceName     string
	OtherDeviceLastSync time.Time
	LocalRecordCount    int
	OtherIsSimulator    bool
}

// ConflictDecision is the user's answer to a device conflict.
type ConflictDecision int

const (
	// DecisionCancel leaves everything untouched.
	DecisionCancel ConflictDecision = iota
	// DecisionUseLocal uploads every local record over the remote copy.
	DecisionUseLocal
	// DecisionUseRemote pulls the remote data into the local store.
	DecisionUseRemote
)

func (d ConflictDecision) String() string {
	switch d {
	case DecisionUseLocal:
		return "use_local"
	case DecisionUseRemote:
		return "use_remote"
	default:
		return "cancel"
	}
}

// ParseConflictDecision is the inverse of [ConflictDecision.String].
func ParseConflictDecision(s string) (ConflictDecision, error) {
	for _, d := range []ConflictDecision{DecisionCancel, DecisionUseLocal, DecisionUseRemote} {
		if d.String() == s {
			return d, nil
		}
	}
	return DecisionCancel, fmt.Errorf("unknown conflict decision %q", s)
}

// SyncTrigger tells the orchestrator where a sync request came from.
type SyncTrigger int

const (
	// TriggerForeground is a sync requested by the app coming to the
	// foreground. It is throttled.
	TriggerForeground SyncTrigger = iota
	// TriggerBackground is a periodic sync from the background job.
	TriggerBackground
	// TriggerForced is a user-requested sync that bypasses the throttle.
	TriggerForced
)

func (t SyncTrigger) String() string {
	switch t {
	case TriggerBackground:
		return "background"
	case TriggerForced:
		return "forced"
	default:
		return "foreground"
	}
}
