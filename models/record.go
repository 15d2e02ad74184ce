// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SyncableRecord is the capability every locally stored entity must provide
// to take part in synchronisation.
type SyncableRecord interface {
	// Key returns the cross-device identity of the record.
	Key() RecordKey

	// ModifiedAt returns the local mutation timestamp used for
	// last-write-wins comparison.
	ModifiedAt() time.Time

	// Deleted reports whether the record is soft-deleted.
	Deleted() bool

	// Serialize encodes the record into its wire payload.
	Serialize() ([]byte, error)

	// ApplyPayload overwrites the fields present in p and leaves every other
	// field untouched.
	ApplyPayload(p RecordPayload) error
}

// RecordKey identifies a record across devices.
type RecordKey struct {
	SyncID     string     `json:"syncID"`
	EntityType EntityType `json:"entityType"`
}

// ObjectName returns the remote object name "{EntityType}_{syncID}.json".
func (k RecordKey) ObjectName() string {
	return fmt.Sprintf("%s_%s%s", k.EntityType, k.SyncID, remoteObjectExt)
}

// Record is the local representation of a syncable entity. Entity-specific
// fields are kept as raw JSON so the sync core stays independent of the
// entity model; relationship fields are kept apart as nullable sync IDs.
type Record struct {
	SyncID       string
	EntityType   EntityType
	CreatedAt    time.Time
	LastModified time.Time
	IsDeleted    bool

	// Fields holds entity-specific, non-relationship fields.
	Fields map[string]json.RawMessage

	// Relations maps relationship field names to the foreign sync ID, or nil
	// when the reference is unset or could not be resolved.
	Relations map[string]*string

	// RemoteModified is the remote modified time of the version last pulled
	// into or pushed from this record, zero before the first sync. It is
	// local bookkeeping and never serialized.
	RemoteModified time.Time
}

// NewRecordFromPayload constructs a fresh record of entityType from a remote
// payload.
func NewRecordFromPayload(entityType EntityType, p RecordPayload) (*Record, error) {
	r := &Record{
		SyncID:     p.SyncID,
		EntityType: entityType,
		CreatedAt:  p.LastModified,
		Fields:     make(map[string]json.RawMessage),
		Relations:  make(map[string]*string),
	}
	if err := r.ApplyPayload(p); err != nil {
		return nil, err
	}
	return r, nil
}

// Key implements [SyncableRecord].
func (r *Record) Key() RecordKey {
	return RecordKey{SyncID: r.SyncID, EntityType: r.EntityType}
}

// ModifiedAt implements [SyncableRecord].
func (r *Record) ModifiedAt() time.Time {
	return r.LastModified
}

// Deleted implements [SyncableRecord].
func (r *Record) Deleted() bool {
	return r.IsDeleted
}

// Serialize implements [SyncableRecord]. Relationship fields are written as
// UUID strings or null, never as nested objects.
func (r *Record) Serialize() ([]byte, error) {
	out := make(map[string]any, len(r.Fields)+len(r.Relations)+5)
	for k, v := range r.Fields {
		out[k] = v
	}
	for k, v := range r.Relations {
		if v == nil {
			out[k] = nil
			continue
		}
		out[k] = *v
	}

	out[fieldSchemaVersion] = CurrentSchemaVersion
	out[fieldSyncID] = r.SyncID
	out[fieldLastModified] = FormatTimestamp(r.LastModified)
	out[fieldIsDeleted] = r.IsDeleted
	if !r.CreatedAt.IsZero() {
		out[fieldCreatedAt] = FormatTimestamp(r.CreatedAt)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", r.Key().ObjectName(), err)
	}
	return data, nil
}

// ApplyPayload implements [SyncableRecord].
func (r *Record) ApplyPayload(p RecordPayload) error {
	if r.Fields == nil {
		r.Fields = make(map[string]json.RawMessage)
	}
	if r.Relations == nil {
		r.Relations = make(map[string]*string)
	}

	if !p.LastModified.IsZero() {
		r.LastModified = p.LastModified
	}
	if p.IsDeleted != nil {
		r.IsDeleted = *p.IsDeleted
	}
	if p.CreatedAt != nil {
		r.CreatedAt = *p.CreatedAt
	}

	for name, raw := range p.Fields {
		if !r.EntityType.IsRelationship(name) {
			r.Fields[name] = raw
			continue
		}

		ref, err := decodeReference(raw)
		if err != nil {
			return fmt.Errorf("%w: field %s of %s: %v", ErrMalformedRemoteData, name, r.SyncID, err)
		}
		r.Relations[name] = ref
	}

	return nil
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	c.Fields = make(map[string]json.RawMessage, len(r.Fields))
	for k, v := range r.Fields {
		c.Fields[k] = append(json.RawMessage(nil), v...)
	}
	c.Relations = make(map[string]*string, len(r.Relations))
	for k, v := range r.Relations {
		if v == nil {
			c.Relations[k] = nil
			continue
		}
		id := *v
		c.Relations[k] = &id
	}
	return &c
}

func decodeReference(raw json.RawMessage) (*string, error) {
	var ref *string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return nil, err
	}
	if ref != nil && *ref == "" {
		return nil, nil
	}
	return ref, nil
}
