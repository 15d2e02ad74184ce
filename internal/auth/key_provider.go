package auth

import (
	"context"

	"github.com/MKhiriev/go-protocol-sync/internal/config"
)

// KeyProvider reports an S3-compatible bucket as signed in once both static
// keys are configured. Requests are signed by the storage client itself.
type KeyProvider struct {
	signedIn bool
}

// NewKeyProvider builds a provider from the S3 backend settings.
func NewKeyProvider(cfg config.ClientS3) *KeyProvider {
	return &KeyProvider{signedIn: cfg.AccessKey != "" && cfg.SecretKey != ""}
}

// IsSignedIn implements [Provider].
func (p *KeyProvider) IsSignedIn(context.Context) bool {
	return p.signedIn
}

// AccessToken implements [Provider]. There is no bearer token.
func (p *KeyProvider) AccessToken(context.Context) (string, error) {
	if !p.signedIn {
		return "", ErrNotSignedIn
	}
	return "", nil
}
