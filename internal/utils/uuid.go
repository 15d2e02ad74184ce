package utils

import "github.com/google/uuid"

// DeviceNamespace scopes name-based device identifiers so that the same
// hardware id always maps to the same device id.
var DeviceNamespace = uuid.MustParse("6f1c2a0e-4b7d-5e39-9a8f-2d3c4b5a6e7f")

type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate returns a time-ordered UUIDv7, falling back to v4.
func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}

// FromName returns the deterministic UUIDv5 of name within namespace.
func (g *UUIDGenerator) FromName(namespace uuid.UUID, name string) string {
	return uuid.NewSHA1(namespace, []byte(name)).String()
}
