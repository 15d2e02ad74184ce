package validators

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/MKhiriev/go-protocol-sync/models"
)

// Field name constants used to specify which fields should be validated.
const (
	// FieldSyncID targets the cross-device identity of a record or payload.
	FieldSyncID = "sync_id"

	// FieldEntityType targets the entity type of a local record.
	FieldEntityType = "entity_type"

	// FieldLastModified targets the mutation timestamp.
	FieldLastModified = "last_modified"

	// FieldSchemaVersion targets the payload schema version.
	FieldSchemaVersion = "schema_version"

	// FieldRelations targets relationship references. They must be UUID
	// strings or null.
	FieldRelations = "relations"
)

// RecordValidator checks local records before they are queued and remote
// payloads before they are applied.
type RecordValidator struct {
}

func NewRecordValidator() Validator {
	return &RecordValidator{}
}

// Validate accepts models.Record, *models.Record and models.RecordPayload.
// Without fields every rule for the type is applied.
func (v *RecordValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.Record:
		return v.validateRecord(ctx, &value, fields...)
	case *models.Record:
		if value == nil {
			return ErrUnsupportedType
		}
		return v.validateRecord(ctx, value, fields...)

	case models.RecordPayload:
		return v.validatePayload(ctx, value, fields...)
	case *models.RecordPayload:
		if value == nil {
			return ErrUnsupportedType
		}
		return v.validatePayload(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *RecordValidator) validateRecord(_ context.Context, r *models.Record, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldSyncID, FieldEntityType, FieldLastModified, FieldRelations}
	}

	for _, f := range fields {
		switch f {
		case FieldSyncID:
			if r.SyncID == "" {
				return ErrInvalidSyncID
			}
		case FieldEntityType:
			if !r.EntityType.Valid() {
				return ErrInvalidEntityType
			}
		case FieldLastModified:
			if r.LastModified.IsZero() {
				return ErrInvalidLastModified
			}
		case FieldRelations:
			for name, ref := range r.Relations {
				if !r.EntityType.IsRelationship(name) {
					return ErrUnknownRelationship
				}
				if ref != nil && !isUUID(*ref) {
					return ErrInvalidReference
				}
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validatePayload checks the envelope of a decoded remote payload. Relationship
// fields are checked for every entity type since the payload does not carry
// its own type.
func (v *RecordValidator) validatePayload(_ context.Context, p models.RecordPayload, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldSyncID, FieldLastModified, FieldSchemaVersion, FieldRelations}
	}

	for _, f := range fields {
		switch f {
		case FieldSyncID:
			if p.SyncID == "" {
				return ErrInvalidSyncID
			}
		case FieldLastModified:
			if p.LastModified.IsZero() {
				return ErrInvalidLastModified
			}
		case FieldSchemaVersion:
			if p.SchemaVersion < 1 {
				return ErrInvalidSchemaVersion
			}
		case FieldRelations:
			for name, raw := range p.Fields {
				if !isRelationshipField(name) {
					continue
				}
				if !isReference(raw) {
					return ErrInvalidReference
				}
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func isRelationshipField(name string) bool {
	for _, t := range models.EntityTypes {
		if t.IsRelationship(name) {
			return true
		}
	}
	return false
}

// isReference accepts null, an empty string or a UUID string.
func isReference(raw json.RawMessage) bool {
	var ref *string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return false
	}
	return ref == nil || *ref == "" || isUUID(*ref)
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
