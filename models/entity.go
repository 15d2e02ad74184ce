// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// EntityType names a kind of syncable local entity. The set is closed: remote
// object names carrying any other prefix are ignored.
type EntityType string

const (
	// EntityProtocol is a user-defined routine that owns steps and occurrences.
	EntityProtocol EntityType = "Protocol"

	// EntityStep is a single step of a protocol.
	EntityStep EntityType = "Step"

	// EntityOccurrence is a schedulable occurrence of a protocol. Freshly
	// created occurrences are uploaded before anything else.
	EntityOccurrence EntityType = "Occurrence"

	// EntityNote is a free-form note attached to an occurrence.
	EntityNote EntityType = "Note"
)

// EntityTypes lists every known entity type in a stable order.
var EntityTypes = []EntityType{
	EntityProtocol,
	EntityStep,
	EntityOccurrence,
	EntityNote,
}

// Relationship describes a payload field that refers to another entity by
// its sync ID.
type Relationship struct {
	// Field is the JSON field name carrying the foreign sync ID.
	Field string
	// Target is the entity type the sync ID belongs to.
	Target EntityType
}

var relationships = map[EntityType][]Relationship{
	EntityStep:       {{Field: "protocolID", Target: EntityProtocol}},
	EntityOccurrence: {{Field: "protocolID", Target: EntityProtocol}},
	EntityNote:       {{Field: "occurrenceID", Target: EntityOccurrence}},
}

// Valid reports whether t belongs to the closed set of entity types.
func (t EntityType) Valid() bool {
	for _, known := range EntityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Relationships returns the relationship fields declared for t.
func (t EntityType) Relationships() []Relationship {
	return relationships[t]
}

// IsRelationship reports whether field is a relationship field of t.
func (t EntityType) IsRelationship(field string) bool {
	for _, r := range relationships[t] {
		if r.Field == field {
			return true
		}
	}
	return false
}

func (t EntityType) String() string {
	return string(t)
}
