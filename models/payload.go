// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CurrentSchemaVersion is written into every uploaded payload. Payloads
// without a version are treated as version 1.
const CurrentSchemaVersion = 1

const (
	fieldSchemaVersion = "schemaVersion"
	fieldSyncID        = "syncID"
	fieldLastModified  = "lastModified"
	fieldIsDeleted     = "isDeleted"
	fieldCreatedAt     = "createdAt"
)

// RecordPayload is a remote entity payload decoded once into a typed
// envelope. Optional envelope fields are pointers so that absence can be told
// apart from a zero value; entity-specific fields stay raw.
type RecordPayload struct {
	SchemaVersion int
	SyncID        string
	LastModified  time.Time
	IsDeleted     *bool
	CreatedAt     *time.Time

	// Fields holds every non-envelope field, including relationship fields.
	Fields map[string]json.RawMessage
}

// NewTombstonePayload builds the minimal deletion marker for syncID.
func NewTombstonePayload(syncID string, now time.Time) RecordPayload {
	deleted := true
	return RecordPayload{
		SchemaVersion: CurrentSchemaVersion,
		SyncID:        syncID,
		LastModified:  TruncateTimestamp(now),
		IsDeleted:     &deleted,
	}
}

// IsTombstone reports whether the payload marks its entity as deleted.
func (p RecordPayload) IsTombstone() bool {
	return p.IsDeleted != nil && *p.IsDeleted
}

// MarshalJSON writes a tombstone as {syncID, isDeleted, lastModified} only
// and any other payload with its entity fields flattened beside the envelope.
func (p RecordPayload) MarshalJSON() ([]byte, error) {
	if p.IsTombstone() {
		return json.Marshal(struct {
			SyncID       string `json:"syncID"`
			IsDeleted    bool   `json:"isDeleted"`
			LastModified string `json:"lastModified"`
		}{p.SyncID, true, FormatTimestamp(p.LastModified)})
	}

	out := make(map[string]any, len(p.Fields)+5)
	for k, v := range p.Fields {
		out[k] = v
	}
	out[fieldSyncID] = p.SyncID
	out[fieldLastModified] = FormatTimestamp(p.LastModified)
	if p.SchemaVersion > 0 {
		out[fieldSchemaVersion] = p.SchemaVersion
	}
	if p.IsDeleted != nil {
		out[fieldIsDeleted] = *p.IsDeleted
	}
	if p.CreatedAt != nil {
		out[fieldCreatedAt] = FormatTimestamp(*p.CreatedAt)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the envelope, defaulting absent optional fields, and
// keeps the remaining fields raw. Unknown fields never cause a failure.
func (p *RecordPayload) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRemoteData, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: payload is null", ErrMalformedRemoteData)
	}

	decoded := RecordPayload{SchemaVersion: 1, Fields: make(map[string]json.RawMessage)}

	for key, value := range raw {
		var err error
		switch key {
		case fieldSchemaVersion:
			err = json.Unmarshal(value, &decoded.SchemaVersion)
		case fieldSyncID:
			err = json.Unmarshal(value, &decoded.SyncID)
		case fieldLastModified:
			decoded.LastModified, err = decodeTimestamp(value)
		case fieldIsDeleted:
			var deleted bool
			if err = json.Unmarshal(value, &deleted); err == nil {
				decoded.IsDeleted = &deleted
			}
		case fieldCreatedAt:
			var created time.Time
			if created, err = decodeTimestamp(value); err == nil {
				decoded.CreatedAt = &created
			}
		default:
			decoded.Fields[key] = value
		}
		if err != nil {
			return fmt.Errorf("%w: field %s: %v", ErrMalformedRemoteData, key, err)
		}
	}

	*p = decoded
	return nil
}

// DecodeRecordPayload parses a downloaded object body.
func DecodeRecordPayload(data []byte) (RecordPayload, error) {
	var p RecordPayload
	if err := p.UnmarshalJSON(data); err != nil {
		return RecordPayload{}, err
	}
	return p, nil
}

func decodeTimestamp(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	return ParseTimestamp(s)
}
