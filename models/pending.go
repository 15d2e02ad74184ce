// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// PendingChangeItem is a local record waiting to be uploaded. The queue holds
// at most one item per (SyncID, EntityType).
type PendingChangeItem struct {
	SyncID     string     `json:"sync_id"`
	EntityType EntityType `json:"entity_type"`

	// ItemCreatedAt is the creation time of the underlying record, used to
	// prioritise fresh occurrences. Nil when unknown.
	ItemCreatedAt *time.Time `json:"item_created_at,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Key returns the identity of the queued record.
func (p PendingChangeItem) Key() RecordKey {
	return RecordKey{SyncID: p.SyncID, EntityType: p.EntityType}
}

// NewPendingChangeItem builds a queue item for r enqueued at now.
func NewPendingChangeItem(r SyncableRecord, createdAt *time.Time, now time.Time) PendingChangeItem {
	key := r.Key()
	return PendingChangeItem{
		SyncID:        key.SyncID,
		EntityType:    key.EntityType,
		ItemCreatedAt: createdAt,
		EnqueuedAt:    now.UTC(),
	}
}
