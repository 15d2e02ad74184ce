package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidSyncID        = errors.New("invalid sync id")
	ErrInvalidEntityType    = errors.New("invalid entity type")
	ErrInvalidLastModified  = errors.New("invalid last modified timestamp")
	ErrInvalidSchemaVersion = errors.New("invalid schema version")
	ErrInvalidReference     = errors.New("invalid relationship reference")
	ErrUnknownRelationship  = errors.New("unknown relationship field")
)
