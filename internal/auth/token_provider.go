package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MKhiriev/go-protocol-sync/internal/config"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
	"github.com/MKhiriev/go-protocol-sync/internal/utils"
)

// TokenProvider serves an OAuth access token from configuration or from a
// file. The file is re-read on every call so an external helper can refresh
// it while the daemon runs.
type TokenProvider struct {
	token     string
	tokenFile string

	now func() time.Time
}

// NewTokenProvider builds a provider from the auth config. TokenFile wins
// over Token when both are set.
func NewTokenProvider(cfg config.ClientAuth) *TokenProvider {
	return &TokenProvider{
		token:     strings.TrimSpace(cfg.Token),
		tokenFile: cfg.TokenFile,
		now:       time.Now,
	}
}

// IsSignedIn implements [Provider].
func (p *TokenProvider) IsSignedIn(ctx context.Context) bool {
	_, err := p.AccessToken(ctx)
	if err != nil {
		logger.FromContext(ctx).Debug().Err(err).Str("func", "TokenProvider.IsSignedIn").Msg("not signed in")
		return false
	}
	return true
}

// AccessToken implements [Provider]. Tokens shaped like a JWT are checked
// against their exp claim; opaque tokens are returned as is.
func (p *TokenProvider) AccessToken(_ context.Context) (string, error) {
	token := p.token
	if p.tokenFile != "" {
		data, err := os.ReadFile(p.tokenFile)
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotSignedIn
		}
		if err != nil {
			return "", fmt.Errorf("error reading token file: %w", err)
		}
		token = strings.TrimSpace(string(data))
	}

	if token == "" {
		return "", ErrNotSignedIn
	}

	if utils.LooksLikeJWT(token) {
		exp, err := utils.TokenExpiry(token)
		switch {
		case errors.Is(err, utils.ErrNoExpiry):
		case err != nil:
			return "", fmt.Errorf("%w: %w", ErrNotSignedIn, err)
		case !exp.After(p.now()):
			return "", ErrTokenExpired
		}
	}

	return token, nil
}
