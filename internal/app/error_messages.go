// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared application-layer constants used across the
// sync daemon.
//
// All Msg* constants are human-readable strings shown to the user as the
// transient sync status message. Detailed failure causes never appear here;
// they are written into the sync history for diagnostics.
package app

const (
	// MsgCheckingDevices is shown while the device registry is inspected.
	MsgCheckingDevices = "Checking devices"

	// MsgDownloading is shown during pull reconciliation.
	MsgDownloading = "Downloading"

	// MsgUploading is shown while the pending-change queue is drained.
	MsgUploading = "Uploading"

	// MsgPreparingUpload is shown while every local record is queued after
	// the user chose to keep local data.
	MsgPreparingUpload = "Preparing upload"

	// MsgUpToDate is the success message when nothing moved in either
	// direction.
	MsgUpToDate = "Up to date"

	// MsgSyncedFormat is the success message when records moved. The
	// arguments are the downloaded and uploaded counts.
	MsgSyncedFormat = "Synced: %d downloaded, %d uploaded"

	// MsgSyncFailed is the generic failure message. The cause is kept in
	// the history entry only.
	MsgSyncFailed = "Sync failed. Will retry later"

	// MsgEnvironmentBlocked is shown when the process runs in a disposable
	// environment that is not allowed to sync.
	MsgEnvironmentBlocked = "Sync is disabled in this environment"

	// MsgOtherDeviceFound is shown while the orchestrator waits for the user
	// to resolve a device conflict.
	MsgOtherDeviceFound = "Data from another device found"
)
