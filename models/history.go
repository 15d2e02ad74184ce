// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncAction names what a history entry recorded.
type SyncAction string

const (
	ActionSync             SyncAction = "sync"
	ActionResolveUseLocal  SyncAction = "resolve_use_local"
	ActionResolveUseRemote SyncAction = "resolve_use_remote"
	ActionResolveCancel    SyncAction = "resolve_cancel"
)

// SyncResult is the outcome of an attempt.
type SyncResult string

const (
	ResultSuccess   SyncResult = "success"
	ResultFailure   SyncResult = "failure"
	ResultCancelled SyncResult = "cancelled"
)

// SyncHistoryEntry is one row of the rolling sync log.
type SyncHistoryEntry struct {
	ID              string     `json:"id"`
	Timestamp       time.Time  `json:"timestamp"`
	Action          SyncAction `json:"action"`
	Result          SyncResult `json:"result"`
	UploadedCount   int        `json:"uploaded_count"`
	DownloadedCount int        `json:"downloaded_count"`
	DurationMs      int64      `json:"duration_ms"`
	ErrorCode       *string    `json:"error_code,omitempty"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
}
