// Package auth validates the optional bearer tokens that identify card owners.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingOwner = errors.New("token has no subject")
)

// Validator checks HS256 tokens. A Validator built without a secret is
// disabled: every request is anonymous.
type Validator struct {
	secret []byte
}

// NewValidator creates a Validator for the shared secret.
func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// Enabled reports whether tokens are checked at all.
func (v *Validator) Enabled() bool {
	return v != nil && len(v.secret) > 0
}

// OwnerFromHeader resolves the owner id from an Authorization header value.
// An empty header, or a disabled validator, yields the anonymous owner "".
func (v *Validator) OwnerFromHeader(header string) (string, error) {
	if !v.Enabled() {
		return "", nil
	}

	header = strings.TrimSpace(header)
	if header == "" {
		return "", nil
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: expected a bearer token", ErrInvalidToken)
	}
	return v.Owner(strings.TrimSpace(token))
}

// Owner validates a raw token and returns its subject.
func (v *Validator) Owner(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return "", ErrMissingOwner
	}
	return claims.Subject, nil
}

// Issue signs a token for owner. A zero ttl issues a token without expiry.
func (v *Validator) Issue(owner string, ttl time.Duration) (string, error) {
	if !v.Enabled() {
		return "", errors.New("cannot issue tokens without a secret")
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:  owner,
		IssuedAt: jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
