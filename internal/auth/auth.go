// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package auth answers whether an account is signed in and hands out the
// credentials the remote store needs.
//
// Signing in is done outside this process: the daemon only consumes an
// access token (configured directly or refreshed into a file by a helper) or
// the static keys of an S3-compatible bucket.
package auth

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-protocol-sync/internal/config"
)

//go:generate mockgen -source=auth.go -destination=../mock/auth_provider_mock.go -package=mock

var (
	// ErrNotSignedIn is returned when no credential is configured.
	ErrNotSignedIn = errors.New("no account signed in")

	// ErrTokenExpired is returned for a JWT access token past its exp claim.
	ErrTokenExpired = errors.New("access token expired")
)

// Provider reports the sign-in state and supplies bearer tokens.
type Provider interface {
	// IsSignedIn reports whether a usable credential is available right now.
	IsSignedIn(ctx context.Context) bool

	// AccessToken returns the current bearer token. Backends that sign
	// requests with static keys return an empty token.
	AccessToken(ctx context.Context) (string, error)
}

// NewProvider returns the provider matching the configured backend.
func NewProvider(cfg config.ClientConfig) Provider {
	if cfg.Adapter.Backend == config.BackendS3 {
		return NewKeyProvider(cfg.Adapter.S3)
	}
	return NewTokenProvider(cfg.Auth)
}
