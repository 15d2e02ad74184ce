// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newTestOccurrence(t *testing.T) *Record {
	t.Helper()
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return &Record{
		SyncID:       "0b9f1c52-8a1e-4f57-9d0e-7c0f3a9b5e11",
		EntityType:   EntityOccurrence,
		CreatedAt:    created,
		LastModified: TruncateTimestamp(created.Add(90*time.Minute + 123*time.Millisecond)),
		Fields: map[string]json.RawMessage{
			"scheduledAt": json.RawMessage(`"2026-03-02T09:00:00.000Z"`),
			"completed":   json.RawMessage(`false`),
		},
		Relations: map[string]*string{
			"protocolID": strPtr("5d1f3c8e-2b7a-4c1d-9e8f-1a2b3c4d5e6f"),
		},
	}
}

// ── Serialize / ApplyPayload ─────────────────────────────────────────────────

func TestRecord_RoundTrip(t *testing.T) {
	original := newTestOccurrence(t)

	data, err := original.Serialize()
	require.NoError(t, err)

	payload, err := DecodeRecordPayload(data)
	require.NoError(t, err)

	fresh := &Record{SyncID: original.SyncID, EntityType: original.EntityType}
	require.NoError(t, fresh.ApplyPayload(payload))

	assert.Equal(t, original.SyncID, fresh.SyncID)
	assert.True(t, original.LastModified.Equal(fresh.LastModified))
	assert.True(t, original.CreatedAt.Equal(fresh.CreatedAt))
	assert.Equal(t, original.IsDeleted, fresh.IsDeleted)
	assert.Equal(t, original.Relations, fresh.Relations)
	require.Len(t, fresh.Fields, len(original.Fields))
	for k, v := range original.Fields {
		assert.JSONEq(t, string(v), string(fresh.Fields[k]), "field %s", k)
	}
}

func TestRecord_Serialize_RelationshipsAreStrings(t *testing.T) {
	rec := newTestOccurrence(t)
	rec.Relations["protocolID"] = nil

	data, err := rec.Serialize()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "protocolID")
	assert.Nil(t, raw["protocolID"])
	assert.Equal(t, rec.SyncID, raw["syncID"])
	assert.Equal(t, false, raw["isDeleted"])
	assert.Equal(t, "2026-03-01T09:30:00.123Z", raw["lastModified"])
}

func TestRecord_ApplyPayload_Idempotent(t *testing.T) {
	payload, err := DecodeRecordPayload([]byte(`{
		"syncID": "0b9f1c52-8a1e-4f57-9d0e-7c0f3a9b5e11",
		"lastModified": "2026-03-05T10:00:00.000Z",
		"completed": true,
		"protocolID": "7e0a1b2c-3d4e-4f50-8a9b-0c1d2e3f4a5b"
	}`))
	require.NoError(t, err)

	once := newTestOccurrence(t)
	require.NoError(t, once.ApplyPayload(payload))

	twice := newTestOccurrence(t)
	require.NoError(t, twice.ApplyPayload(payload))
	require.NoError(t, twice.ApplyPayload(payload))

	assert.Equal(t, once, twice)
}

func TestRecord_ApplyPayload_PartialUpdate(t *testing.T) {
	rec := newTestOccurrence(t)
	before := rec.Clone()

	payload, err := DecodeRecordPayload([]byte(`{
		"syncID": "0b9f1c52-8a1e-4f57-9d0e-7c0f3a9b5e11",
		"lastModified": "2026-03-05T10:00:00.000Z",
		"completed": true
	}`))
	require.NoError(t, err)
	require.NoError(t, rec.ApplyPayload(payload))

	assert.JSONEq(t, `true`, string(rec.Fields["completed"]))
	assert.Equal(t, before.Fields["scheduledAt"], rec.Fields["scheduledAt"], "absent fields must be kept")
	assert.Equal(t, before.Relations, rec.Relations)
	assert.Equal(t, before.IsDeleted, rec.IsDeleted, "absent isDeleted must not reset the flag")
	assert.True(t, before.CreatedAt.Equal(rec.CreatedAt))
	assert.Equal(t, time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC), rec.LastModified)
}

func TestRecord_ApplyPayload_BadReference(t *testing.T) {
	rec := newTestOccurrence(t)
	payload := RecordPayload{
		SyncID:       rec.SyncID,
		LastModified: time.Now().UTC(),
		Fields:       map[string]json.RawMessage{"protocolID": json.RawMessage(`{"nested":true}`)},
	}

	err := rec.ApplyPayload(payload)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedRemoteData)
}

// ── RecordPayload ────────────────────────────────────────────────────────────

func TestRecordPayload_TombstoneMarshal(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 500_000_000, time.UTC)
	data, err := json.Marshal(NewTombstonePayload("abc", now))
	require.NoError(t, err)

	assert.JSONEq(t, `{"syncID":"abc","isDeleted":true,"lastModified":"2026-04-01T12:00:00.500Z"}`, string(data))
}

func TestDecodeRecordPayload(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantErr   bool
		tombstone bool
		version   int
	}{
		{name: "tombstone", body: `{"syncID":"a","isDeleted":true,"lastModified":"2026-01-01T00:00:00.000Z"}`, tombstone: true, version: 1},
		{name: "no fractional seconds", body: `{"syncID":"a","lastModified":"2026-01-01T00:00:00Z"}`, version: 1},
		{name: "versioned", body: `{"syncID":"a","schemaVersion":2,"lastModified":"2026-01-01T00:00:00Z","future":1}`, version: 2},
		{name: "not json", body: `<html>`, wantErr: true},
		{name: "null", body: `null`, wantErr: true},
		{name: "bad timestamp", body: `{"syncID":"a","lastModified":"yesterday"}`, wantErr: true},
		{name: "bad isDeleted", body: `{"syncID":"a","isDeleted":"yes"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodeRecordPayload([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedRemoteData)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.tombstone, p.IsTombstone())
			assert.Equal(t, tt.version, p.SchemaVersion)
		})
	}
}

func TestDecodeRecordPayload_UnknownFieldsKept(t *testing.T) {
	p, err := DecodeRecordPayload([]byte(`{"syncID":"a","lastModified":"2026-01-01T00:00:00Z","colour":"red"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `"red"`, string(p.Fields["colour"]))
	assert.Nil(t, p.IsDeleted)
	assert.Nil(t, p.CreatedAt)
}

// ── ParseRemoteFileName ──────────────────────────────────────────────────────

func TestParseRemoteFileName(t *testing.T) {
	tests := []struct {
		name     string
		wantType EntityType
		wantID   string
		wantErr  bool
	}{
		{name: "Occurrence_1234.json", wantType: EntityOccurrence, wantID: "1234"},
		{name: "Note_a_b.json", wantType: EntityNote, wantID: "a_b"},
		{name: "DeviceRegistry.json", wantErr: true},
		{name: "Unknown_1234.json", wantErr: true},
		{name: "Step_1234.txt", wantErr: true},
		{name: "Step_.json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			et, id, err := ParseRemoteFileName(tt.name)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidObjectName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, et)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestRecordKey_ObjectName(t *testing.T) {
	key := RecordKey{SyncID: "42", EntityType: EntityStep}
	assert.Equal(t, "Step_42.json", key.ObjectName())

	et, id, err := ParseRemoteFileName(key.ObjectName())
	require.NoError(t, err)
	assert.Equal(t, key, RecordKey{SyncID: id, EntityType: et})
}
