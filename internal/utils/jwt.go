package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned by TokenExpiry for a JWT without an exp claim.
var ErrNoExpiry = errors.New("token has no expiry")

// LooksLikeJWT reports whether token has the three dot-separated segments of
// a compact JWT. Opaque OAuth tokens do not.
func LooksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}

// TokenExpiry reads the exp claim of a JWT. The signature is not checked.
func TokenExpiry(tokenString string) (time.Time, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing token: %w", err)
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("error reading exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}
